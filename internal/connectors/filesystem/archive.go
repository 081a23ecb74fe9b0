package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// Archive implements driven.Archive on a local directory. Archive paths
// are slash-separated and rooted at Root.
type Archive struct {
	root string
}

var _ driven.Archive = (*Archive)(nil)

// New creates an archive rooted at root, which must be an existing directory.
func New(root string) (*Archive, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: archive root is required", domain.ErrConfigInvalid)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: archive root: %v", domain.ErrConfigInvalid, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: archive root %s is not a directory", domain.ErrConfigInvalid, root)
	}
	return &Archive{root: filepath.Clean(root)}, nil
}

// Root returns the local directory backing the archive.
func (a *Archive) Root() string {
	return a.root
}

// Local converts an archive path to a path on disk.
func (a *Archive) Local(p string) string {
	return filepath.Join(a.root, filepath.FromSlash(path.Clean("/"+p)))
}

// List implements driven.Archive.
func (a *Archive) List(ctx context.Context, dir string) ([]domain.ArchiveEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(a.Local(dir))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, wrapError(err))
	}

	out := make([]domain.ArchiveEntry, 0, len(entries))
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entry := domain.ArchiveEntry{
			Name:     e.Name(),
			Path:     path.Join("/", dir, e.Name()),
			IsFolder: e.IsDir(),
			Modified: info.ModTime(),
		}
		if !e.IsDir() {
			entry.Size = info.Size()
		}
		out = append(out, entry)
	}

	logger.L().Debug("listed archive folder", zap.String("path", dir), zap.Int("entries", len(out)))
	return out, nil
}

// Exists implements driven.Archive.
func (a *Archive) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(a.Local(p))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", p, wrapError(err))
	}
}

// CreateFolder implements driven.Archive.
func (a *Archive) CreateFolder(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.Local(p), 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", p, wrapError(err))
	}
	return nil
}

// Move implements driven.Archive. os.Rename silently replaces files on
// most platforms, so the target is checked first.
func (a *Archive) Move(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := a.Local(to)
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("move %s: %w: %s", from, domain.ErrAlreadyExists, to)
	}
	if err := os.Rename(a.Local(from), dst); err != nil {
		return fmt.Errorf("move %s: %w", from, wrapError(err))
	}
	return nil
}

// Upload implements driven.Archive.
func (a *Archive) Upload(ctx context.Context, p string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst := a.Local(p)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("upload %s: %w", p, wrapError(err))
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("upload %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("upload %s: %w", p, err)
	}
	return nil
}

func wrapError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
	}
	return err
}

// isHidden reports dot files and sync client metadata such as .DS_Store.
func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
