package report

import (
	"encoding/json"
	"fmt"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/selection"
)

// Document is the machine-readable scan output
type Document struct {
	Metadata contracts.RunMetadata       `json:"metadata"`
	Criteria []string                    `json:"criteria,omitempty"`
	Stats    selection.FunnelStats       `json:"stats"`
	Top      []contracts.ScreeningResult `json:"top"`
	Flagged  []contracts.ScreeningResult `json:"flagged"`
	Results  []contracts.ScreeningResult `json:"results"`
}

// NewDocument ranks the scan into a Document
func NewDocument(scan *contracts.ScanReport, opts Options) *Document {
	if opts.TopN < 1 {
		opts.TopN = 1
	}
	ranking := selection.Rank(scan.Results)

	doc := &Document{
		Metadata: scan.Metadata,
		Criteria: opts.Criteria,
		Stats:    ranking.Stats,
		Top:      ranking.Top(opts.TopN),
		Flagged:  ranking.Flagged,
		Results:  scan.Results,
	}
	if doc.Top == nil {
		doc.Top = []contracts.ScreeningResult{}
	}
	if doc.Flagged == nil {
		doc.Flagged = []contracts.ScreeningResult{}
	}
	return doc
}

// JSON renders the scan as indented JSON
func JSON(scan *contracts.ScanReport, opts Options) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(scan, opts), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}
