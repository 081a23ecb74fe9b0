package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

func TestRunCmd(t *testing.T) {
	w := &mockWorkflow{}
	setupCLITest(t, &Services{Workflow: w})

	out, err := execute(t, "run")

	require.NoError(t, err)
	assert.Equal(t, 1, w.calls)
	assert.Contains(t, out, "Daily workflow complete.")
}

func TestRunCmd_Error(t *testing.T) {
	setupCLITest(t, &Services{Workflow: &mockWorkflow{err: errors.New("publish: quota")}})

	_, err := execute(t, "run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily workflow")
}

func TestScheduleCmd(t *testing.T) {
	s := &mockScheduler{}
	setupCLITest(t, &Services{Scheduler: s})

	out, err := execute(t, "schedule")

	require.NoError(t, err)
	assert.True(t, s.started)
	assert.Contains(t, out, "Scheduler running")
}

func TestScheduleCmd_History(t *testing.T) {
	start := time.Date(2025, 6, 6, 6, 0, 0, 0, time.UTC)
	s := &mockScheduler{history: []domain.TaskResult{
		{StartedAt: start, EndedAt: start.Add(90 * time.Second), Success: true},
		{StartedAt: start.Add(-24 * time.Hour), EndedAt: start.Add(-24*time.Hour + time.Minute), Error: "sheet offline"},
	}}
	setupCLITest(t, &Services{Scheduler: s})

	out, err := execute(t, "schedule", "--history", "5")

	require.NoError(t, err)
	assert.False(t, s.started)
	assert.Equal(t, 5, s.limit)
	assert.Contains(t, out, "2025-06-06 06:00  1m30s  ok")
	assert.Contains(t, out, "2025-06-05 06:00  1m0s  failed: sheet offline")
}

func TestScheduleCmd_HistoryEmpty(t *testing.T) {
	setupCLITest(t, &Services{Scheduler: &mockScheduler{}})

	out, err := execute(t, "schedule", "--history", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "No scheduled runs recorded.")
}

func TestScheduleCmd_NotConfigured(t *testing.T) {
	setupCLITest(t, nil)

	_, err := execute(t, "schedule")

	assert.Error(t, err)
}
