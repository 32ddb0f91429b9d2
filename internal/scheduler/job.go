package scheduler

import (
	"context"
	"sync"
	"time"
)

// maxHistory bounds the per-job result history
const maxHistory = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field first
	// Examples: "0 30 16 * * 1-5" (weekdays 16:30), "@daily"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores the latest results of one job
type JobHistory struct {
	mu      sync.RWMutex
	results []JobResult
}

// Add appends a result, keeping the last maxHistory entries
func (h *JobHistory) Add(result JobResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, result)
	if len(h.results) > maxHistory {
		h.results = h.results[len(h.results)-maxHistory:]
	}
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.results) {
		n = len(h.results)
	}
	out := make([]JobResult, n)
	copy(out, h.results[len(h.results)-n:])
	return out
}

// Stats summarizes the history
func (h *JobHistory) Stats() (total, failed int, successRate float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total = len(h.results)
	for _, r := range h.results {
		if !r.Success {
			failed++
		}
	}
	if total > 0 {
		successRate = float64(total-failed) / float64(total)
	}
	return total, failed, successRate
}
