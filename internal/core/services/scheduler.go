package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// DefaultSchedule runs the daily workflow at 06:00 local time.
const DefaultSchedule = "0 6 * * *"

// Scheduler runs the daily workflow on a cron schedule and records each
// run in the scheduler store.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	store    driven.SchedulerStore
	workflow driving.Workflow

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	cron    *cron.Cron
}

var _ driving.Scheduler = (*Scheduler)(nil)

// NewScheduler creates a scheduler. spec is a five-field cron expression.
// store may be nil.
func NewScheduler(spec string, store driven.SchedulerStore, workflow driving.Workflow) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %v", domain.ErrConfigInvalid, spec, err)
	}
	return &Scheduler{spec: spec, schedule: schedule, store: store, workflow: workflow}, nil
}

// Next returns the next activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start begins the scheduler loop. This method blocks until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.RunNow(ctx) }))
	c, stopCh := s.cron, s.stopCh
	s.mu.Unlock()

	if err := s.ensureTask(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise task: %v", err)
	}

	c.Start()
	logger.Info("scheduler: next run at %s", s.Next(time.Now()).Format(time.RFC1123))

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-stopCh:
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	// Wait for a running workflow to finish.
	<-c.Stop().Done()
	return err
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// History returns up to limit recorded runs, newest first. Without a
// store there is no history.
func (s *Scheduler) History(ctx context.Context, limit int) ([]domain.TaskResult, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetTaskHistory(ctx, domain.TaskIDDailyWorkflow, limit)
}

func (s *Scheduler) ensureTask(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	task, err := s.store.GetTask(ctx, domain.TaskIDDailyWorkflow)
	if err != nil {
		return err
	}
	if task == nil {
		task = &domain.ScheduledTask{
			ID:   domain.TaskIDDailyWorkflow,
			Name: "Daily Workflow",
		}
	}
	task.Schedule = s.spec
	task.Enabled = true
	task.NextRun = s.Next(time.Now())
	return s.store.SaveTask(ctx, task)
}

// RunNow executes the workflow once and records the result.
func (s *Scheduler) RunNow(ctx context.Context) *domain.TaskResult {
	result := &domain.TaskResult{
		TaskID:    domain.TaskIDDailyWorkflow,
		StartedAt: time.Now(),
	}

	err := s.workflow.RunDaily(ctx)

	result.EndedAt = time.Now()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		logger.Error("scheduler: daily workflow: %v", err)
	}

	s.record(context.WithoutCancel(ctx), result)
	return result
}

func (s *Scheduler) record(ctx context.Context, result *domain.TaskResult) {
	if s.store == nil {
		return
	}

	task, err := s.store.GetTask(ctx, result.TaskID)
	if err != nil {
		logger.Warn("scheduler: failed to load task %s: %v", result.TaskID, err)
	}
	if task == nil {
		task = &domain.ScheduledTask{ID: result.TaskID, Name: "Daily Workflow", Schedule: s.spec, Enabled: true}
	}
	task.LastRun = result.StartedAt
	task.NextRun = s.Next(result.EndedAt)
	task.LastError = result.Error
	if result.Success {
		task.LastSuccess = result.EndedAt
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, err)
	}
}
