package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// DefaultSettle is how long the inbox must be quiet before new notes are filed.
const DefaultSettle = 5 * time.Second

// InboxWatcher watches the archive inbox and calls onArrival once a burst
// of new PDFs has settled. Sync clients write files in several steps, so
// events are coalesced rather than handled one by one.
type InboxWatcher struct {
	dir       string
	settle    time.Duration
	onArrival func(ctx context.Context)

	mu      sync.Mutex
	timer   *time.Timer
	pending []string
}

// WatcherOption configures an InboxWatcher.
type WatcherOption func(*InboxWatcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) WatcherOption {
	return func(w *InboxWatcher) { w.settle = d }
}

// NewInboxWatcher creates a watcher on dir.
func NewInboxWatcher(dir string, onArrival func(ctx context.Context), opts ...WatcherOption) *InboxWatcher {
	w := &InboxWatcher{dir: filepath.Clean(dir), settle: DefaultSettle, onArrival: onArrival}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. onArrival is never called
// concurrently with itself.
func (w *InboxWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	logger.L().Info("watching inbox", zap.String("dir", w.dir), zap.Duration("settle", w.settle))

	fire := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-fire:
				w.mu.Lock()
				files := w.pending
				w.pending = nil
				w.mu.Unlock()
				logger.L().Info("new notes in inbox", zap.Strings("files", files))
				w.onArrival(ctx)
			}
		}
	}()

	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, fire)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.L().Warn("inbox watcher error", zap.Error(err))
		}
	}
}

func (w *InboxWatcher) handleEvent(ev fsnotify.Event, fire chan<- struct{}) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(ev.Name)
	if isHidden(name) || !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return
	}
	// A rename event names the old path.
	if info, err := os.Stat(ev.Name); err != nil || info.IsDir() {
		return
	}

	logger.L().Debug("inbox event", zap.String("op", ev.Op.String()), zap.String("file", name))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !slices.Contains(w.pending, name) {
		w.pending = append(w.pending, name)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}
