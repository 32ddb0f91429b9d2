package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/report"
	"github.com/wonny/leapscreener/pkg/logger"
)

// LatestReport exposes the most recent completed scan (scan.Store)
type LatestReport interface {
	Latest() (*contracts.ScanReport, bool)
}

// ResultsHandler serves the latest scan
// ⭐ SSOT: 스캔 결과 API 핸들러는 이 구조체에서만
type ResultsHandler struct {
	store    LatestReport
	criteria []string
	topN     int
	logger   *logger.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(store LatestReport, criteria []string, topN int, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:    store,
		criteria: criteria,
		topN:     topN,
		logger:   log,
	}
}

func (h *ResultsHandler) options(r *http.Request) report.Options {
	opts := report.Options{TopN: h.topN, Criteria: h.criteria}
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.TopN = n
		}
	}
	return opts
}

// GetResults returns the ranked latest scan
// GET /api/results?top=N
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	latest, ok := h.store.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "no completed scan yet")
		return
	}
	respondJSON(w, http.StatusOK, report.NewDocument(latest, h.options(r)))
}

// GetTicker returns one ticker's result from the latest scan
// GET /api/results/{ticker}
func (h *ResultsHandler) GetTicker(w http.ResponseWriter, r *http.Request) {
	latest, ok := h.store.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "no completed scan yet")
		return
	}

	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	for _, res := range latest.Results {
		if res.Ticker == ticker {
			respondJSON(w, http.StatusOK, res)
			return
		}
	}
	respondError(w, http.StatusNotFound, "ticker not in latest scan: "+ticker)
}

// GetMarkdown returns the Markdown report of the latest scan
// GET /api/report.md?top=N
func (h *ResultsHandler) GetMarkdown(w http.ResponseWriter, r *http.Request) {
	latest, ok := h.store.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "no completed scan yet")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Markdown(latest, h.options(r))))
}
