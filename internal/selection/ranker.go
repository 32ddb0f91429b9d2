package selection

import (
	"sort"
	"strings"

	"github.com/wonny/leapscreener/internal/contracts"
)

// FunnelStats counts where tickers left the funnel
type FunnelStats struct {
	Scanned          int `json:"scanned"`
	Passed           int `json:"passed"`
	Clean            int `json:"clean"`
	Flagged          int `json:"flagged"`
	Layer1Failed     int `json:"layer1_failed"`
	Layer2Failed     int `json:"layer2_failed"`
	Layer3Failed     int `json:"layer3_failed"`
	ProcessingFailed int `json:"processing_failed"`
}

// Ranking splits full passers into clean and flagged lists
// ⭐ SSOT: 랭킹 (점수 내림차순, 동점은 유니버스 순서 유지)
type Ranking struct {
	Clean   []contracts.ScreeningResult `json:"clean"`
	Flagged []contracts.ScreeningResult `json:"flagged"`
	Stats   FunnelStats                 `json:"stats"`
}

// Rank sorts passers by score descending. The sort is stable so ties keep
// the original universe order.
func Rank(results []contracts.ScreeningResult) Ranking {
	r := Ranking{Stats: Stats(results)}

	for _, res := range results {
		if !res.Passed() {
			continue
		}
		if res.Flagged() {
			r.Flagged = append(r.Flagged, res)
		} else {
			r.Clean = append(r.Clean, res)
		}
	}

	byScore := func(list []contracts.ScreeningResult) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Score > list[j].Score
		})
	}
	byScore(r.Clean)
	byScore(r.Flagged)

	return r
}

// Top returns at most n clean passers
func (r Ranking) Top(n int) []contracts.ScreeningResult {
	if n < 0 || n >= len(r.Clean) {
		return r.Clean
	}
	return r.Clean[:n]
}

// Stats computes funnel statistics
func Stats(results []contracts.ScreeningResult) FunnelStats {
	s := FunnelStats{Scanned: len(results)}

	for _, res := range results {
		switch {
		case res.Passed():
			s.Passed++
			if res.Flagged() {
				s.Flagged++
			} else {
				s.Clean++
			}
		case !res.Layer1Pass:
			s.Layer1Failed++
		case !res.Layer2Pass:
			s.Layer2Failed++
		default:
			s.Layer3Failed++
		}

		if res.Outcome == contracts.OutcomeCollaboratorFailure || strings.HasPrefix(res.Reason, contracts.ProcessingFailedPrefix) {
			s.ProcessingFailed++
		}
	}
	return s
}

// Failures returns up to n non-passing results in universe order
func Failures(results []contracts.ScreeningResult, n int) []contracts.ScreeningResult {
	var out []contracts.ScreeningResult
	for _, res := range results {
		if res.Passed() {
			continue
		}
		out = append(out, res)
		if len(out) == n {
			break
		}
	}
	return out
}
