package contracts

import (
	"fmt"
	"time"
)

// Layer identifies a funnel stage
type Layer int

const (
	LayerNone         Layer = 0
	LayerFundamentals Layer = 1
	LayerTechnical    Layer = 2
	LayerOptions      Layer = 3
)

// String returns the layer name
func (l Layer) String() string {
	switch l {
	case LayerFundamentals:
		return "fundamentals"
	case LayerTechnical:
		return "technical"
	case LayerOptions:
		return "options"
	default:
		return "none"
	}
}

// Outcome is the per-ticker result variant
type Outcome string

const (
	OutcomePassed              Outcome = "passed"
	OutcomeFunnelFailure       Outcome = "funnel_failure"
	OutcomeCollaboratorFailure Outcome = "collaborator_failure"
)

// ProcessingFailedPrefix starts the reason of every collaborator failure
const ProcessingFailedPrefix = "processing failed: "

// ScoreBreakdown holds the clamped sub-scores and the composite
type ScoreBreakdown struct {
	Fundamental float64 `json:"fundamental"`
	Valuation   float64 `json:"valuation"`
	Technical   float64 `json:"technical"`
	Catalyst    float64 `json:"catalyst"`
	Option      float64 `json:"option"`
	Composite   float64 `json:"composite"`
}

// ScreeningResult is the immutable outcome for one ticker
// ⭐ SSOT: 티커당 정확히 하나의 결과
type ScreeningResult struct {
	Ticker      string          `json:"ticker"`
	Score       float64         `json:"score"`
	Layer1Pass  bool            `json:"layer1_pass"`
	Layer2Pass  bool            `json:"layer2_pass"`
	Layer3Pass  bool            `json:"layer3_pass"`
	Outcome     Outcome         `json:"outcome"`
	FailedLayer Layer           `json:"failed_layer"`
	Reason      string          `json:"reason"`
	Evidence    *TickerEvidence `json:"evidence,omitempty"`
	Option      *OptionQuote    `json:"option,omitempty"`
	Breakdown   *ScoreBreakdown `json:"breakdown,omitempty"`
}

// NewCollaboratorFailure records a ticker whose data retrieval failed.
// Every layer flag is false and the score is zero.
func NewCollaboratorFailure(ticker string, err error) ScreeningResult {
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	return ScreeningResult{
		Ticker:      ticker,
		Outcome:     OutcomeCollaboratorFailure,
		FailedLayer: LayerFundamentals,
		Reason:      fmt.Sprintf("%s%s", ProcessingFailedPrefix, detail),
	}
}

// Passed reports whether all three layers passed
func (r ScreeningResult) Passed() bool {
	return r.Layer1Pass && r.Layer2Pass && r.Layer3Pass
}

// Flagged reports whether the evidence carries sanity flags
func (r ScreeningResult) Flagged() bool {
	return r.Evidence.Flagged()
}

// RunMetadata describes one batch scan
type RunMetadata struct {
	RunID              string        `json:"run_id"`
	StartedAt          time.Time     `json:"started_at"`
	Elapsed            time.Duration `json:"elapsed"`
	UniverseSize       int           `json:"universe_size"`
	RequireVolumeSpike bool          `json:"require_volume_spike"`
	Workers            int           `json:"workers"`
	StrategyHash       string        `json:"strategy_hash"`
}

// ScanReport is handed to reporting collaborators.
// Results keep the original universe order.
type ScanReport struct {
	Metadata RunMetadata       `json:"metadata"`
	Results  []ScreeningResult `json:"results"`
}
