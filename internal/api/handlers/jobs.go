package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/leapscreener/internal/scheduler"
	"github.com/wonny/leapscreener/pkg/logger"
)

// JobRunner is the part of the scheduler the API needs
type JobRunner interface {
	RunJob(jobName string) error
	GetJobStats() map[string]scheduler.JobStats
	GetJobHistory(jobName string) (*scheduler.JobHistory, error)
}

const defaultHistoryLimit = 20

// JobsHandler exposes scheduled scan status and manual triggers
type JobsHandler struct {
	jobs    JobRunner
	scanJob string
	logger  *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(jobs JobRunner, scanJob string, log *logger.Logger) *JobsHandler {
	return &JobsHandler{jobs: jobs, scanJob: scanJob, logger: log}
}

// GetJobs returns job statistics
// GET /api/jobs
func (h *JobsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}

// GetJobHistory returns the most recent runs of one job
// GET /api/jobs/{name}/history?limit=N
func (h *JobsHandler) GetJobHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.jobs.GetJobHistory(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	total, failed, rate := history.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job_name":      name,
		"total_runs":    total,
		"failure_count": failed,
		"success_rate":  rate,
		"runs":          history.Latest(limit),
	})
}

// TriggerScan starts the scan job outside its schedule
// POST /api/scan
func (h *JobsHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.RunJob(h.scanJob); err != nil {
		h.logger.WithError(err).Warn("Manual scan trigger failed")
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.Info("Manual scan triggered")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"job":    h.scanJob,
	})
}
