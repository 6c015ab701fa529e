package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
)

type countingJob struct {
	name     string
	schedule string
	failN    int32 // fail the first N runs
	runs     atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(context.Context) error {
	n := j.runs.Add(1)
	if n <= j.failN {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), metrics.New()).WithRetry(2, time.Millisecond)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 0 * * * *"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "0 0 * * * *"}), "duplicate")
	assert.Error(t, s.AddJob(&countingJob{name: "b", schedule: "not a cron"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
}

func TestRunJob_Retries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", schedule: "@daily", failN: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob(context.Background(), "flaky"))
	assert.Equal(t, int32(3), job.runs.Load())

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, 3, history.Results[0].Attempts)
	assert.Empty(t, history.Results[0].Error)
}

func TestRunJob_ExhaustsRetries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "broken", schedule: "@daily", failN: 100}
	require.NoError(t, s.AddJob(job))

	assert.Error(t, s.RunJob(context.Background(), "broken"))
	assert.Equal(t, int32(3), job.runs.Load(), "1 attempt + 2 retries")

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
	assert.Equal(t, 1, stats.TotalRuns)

	history, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	last, ok := history.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last.Attempts)
	assert.Equal(t, "transient", last.Error)

	assert.Error(t, s.RunJob(context.Background(), "missing"))
}

func TestRunJob_ContextCancelStopsRetrying(t *testing.T) {
	s := New(logger.Nop(), nil).WithRetry(5, time.Hour)
	job := &countingJob{name: "broken", schedule: "@daily", failN: 100}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.RunJob(ctx, "broken")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 30 21 * * 1-5"}))

	s.Start()
	defer s.Stop()

	next, ok := s.NextRun("a")
	require.True(t, ok)
	assert.Equal(t, 21, next.Hour())
	assert.Equal(t, 30, next.Minute())

	_, ok = s.NextRun("missing")
	assert.False(t, ok)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	_, ok := h.Last()
	assert.False(t, ok)
	assert.Equal(t, 0.0, h.SuccessRate())

	total := maxHistory + 10
	for i := 0; i < total; i++ {
		h.AddResult(JobResult{Attempts: i, Success: i%2 == 0})
	}

	// 최근 maxHistory개만 보관, 카운터는 누적
	require.Len(t, h.Results, maxHistory)
	assert.Equal(t, 10, h.Results[0].Attempts)
	assert.Equal(t, total, h.Runs)
	assert.Equal(t, total/2, h.Failures)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, total-1, last.Attempts)

	succeeded, found := h.LastWith(true)
	require.True(t, found)
	assert.Equal(t, total-2, succeeded.Attempts)

	failed, found := h.LastWith(false)
	require.True(t, found)
	assert.Equal(t, total-1, failed.Attempts)
}

func TestJobHistory_CountersOutliveTrim(t *testing.T) {
	h := &JobHistory{}
	h.AddResult(JobResult{Success: false})
	for i := 0; i < maxHistory; i++ {
		h.AddResult(JobResult{Success: true})
	}

	_, found := h.LastWith(false)
	assert.False(t, found, "failure trimmed from the window")
	assert.Equal(t, 1, h.Failures)
	assert.InDelta(t, float64(maxHistory)/float64(maxHistory+1), h.SuccessRate(), 1e-9)
}
