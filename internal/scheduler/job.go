package scheduler

import (
	"context"
	"time"
)

// maxHistory bounds the results kept per job
const maxHistory = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a cron expression with a seconds field,
	// e.g. "0 30 21 * * 1-5" (weekdays 21:30) or "@daily"
	Schedule() string
}

// JobResult is one execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the latest maxHistory results.
// Runs/Failures count every execution since start, not just the kept window.
type JobHistory struct {
	Results  []JobResult `json:"results"`
	Runs     int         `json:"runs"`
	Failures int         `json:"failures"`
}

// AddResult records a result, dropping the oldest beyond maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Runs++
	if !result.Success {
		h.Failures++
	}

	h.Results = append(h.Results, result)
	if over := len(h.Results) - maxHistory; over > 0 {
		h.Results = append(h.Results[:0:0], h.Results[over:]...)
	}
}

// Last returns the most recent result
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// LastWith returns the most recent result with the given outcome
func (h *JobHistory) LastWith(success bool) (JobResult, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Success == success {
			return h.Results[i], true
		}
	}
	return JobResult{}, false
}

// SuccessRate returns successes / runs over the whole lifetime (0 when never run)
func (h *JobHistory) SuccessRate() float64 {
	if h.Runs == 0 {
		return 0
	}
	return float64(h.Runs-h.Failures) / float64(h.Runs)
}
