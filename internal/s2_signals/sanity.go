package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/strategyconfig"
)

// SanityResult is the fundamentals view after suspicious values were nulled
type SanityResult struct {
	RevenueGrowth      contracts.Field
	QuarterlyEPSGrowth contracts.Field
	ForwardEPSGrowth   contracts.Field
	TrailingEPS        contracts.Field
	ForwardEPS         contracts.Field
	PEG                contracts.Field
	PEGSource          contracts.PEGSource
	MarketCap          contracts.Field
	Flags              []string
}

// SanityChecker flags fundamentals distorted by one-off events
// (M&A, share issuance, low-base effects) and nulls the growth fields
// that cannot be trusted.
// ⭐ SSOT: 이상치 검사는 여기서만 (null 처리된 값은 이후 필터/점수에서 제외)
type SanityChecker struct {
	cfg strategyconfig.Sanity
}

// NewSanityChecker creates a checker
func NewSanityChecker(cfg strategyconfig.Sanity) *SanityChecker {
	return &SanityChecker{cfg: cfg}
}

// Check applies every rule. Rules are independent and flags accumulate.
func (c *SanityChecker) Check(raw *contracts.RawFundamentals) SanityResult {
	if raw == nil {
		raw = &contracts.RawFundamentals{}
	}

	res := SanityResult{
		RevenueGrowth:      contracts.FromPtr(raw.RevenueGrowth),
		QuarterlyEPSGrowth: contracts.FromPtr(raw.EarningsGrowth),
		TrailingEPS:        contracts.FromPtr(raw.TrailingEPS),
		ForwardEPS:         contracts.FromPtr(raw.ForwardEPS),
		MarketCap:          contracts.FromPtr(raw.MarketCap),
	}

	trailing, hasTrailing := res.TrailingEPS.Get()
	forward, hasForward := res.ForwardEPS.Get()

	// forward 성장률 = (forward - trailing) / |trailing|
	if hasTrailing && hasForward && math.Abs(trailing) > c.cfg.TrailingEPSMinAbs {
		res.ForwardEPSGrowth = contracts.Present((forward - trailing) / math.Abs(trailing))
	}

	// PEG: primary 우선, 없으면 trailing PEG
	res.PEG, res.PEGSource = resolvePEG(raw)

	// 1. 주식 구조 이상 (flag only)
	shares := contracts.FromPtr(raw.SharesOutstanding).Or(0)
	floatShares := contracts.FromPtr(raw.FloatShares).Or(0)
	if shares != 0 && floatShares > 0 {
		if ratio := shares / floatShares; ratio > c.cfg.ShareStructureRatioMax {
			res.Flags = append(res.Flags, fmt.Sprintf("share structure anomaly (shares outstanding %.2fx float)", ratio))
		}
	}

	// 2. 매출 성장률 과대 → null
	if v, ok := res.RevenueGrowth.Get(); ok && v > c.cfg.RevenueGrowthCap {
		msg := fmt.Sprintf("revenue growth abnormally high (%.0f%%), possible M&A or one-off", v*100)
		res.Flags = append(res.Flags, msg)
		res.RevenueGrowth = res.RevenueGrowth.Null(msg)
	}

	// 3. 분기 EPS 성장률 과대 → null
	if v, ok := res.QuarterlyEPSGrowth.Get(); ok && math.Abs(v) > c.cfg.EPSGrowthCap {
		msg := fmt.Sprintf("quarterly EPS growth abnormal (%.0f%%), possible one-off", v*100)
		res.Flags = append(res.Flags, msg)
		res.QuarterlyEPSGrowth = res.QuarterlyEPSGrowth.Null(msg)
	}

	// 4. forward EPS 성장률 과대 → null
	if v, ok := res.ForwardEPSGrowth.Get(); ok && math.Abs(v) > c.cfg.EPSGrowthCap {
		msg := fmt.Sprintf("forward EPS growth abnormal (%.0f%%), possible M&A or basis mismatch", v*100)
		res.Flags = append(res.Flags, msg)
		res.ForwardEPSGrowth = res.ForwardEPSGrowth.Null(msg)
	}

	// 5. 저베이스 효과 → forward 성장률 null (forward EPS 자체는 유지)
	if hasTrailing && hasForward && math.Abs(trailing) < c.cfg.LowBaseTrailingEPSMax && forward > c.cfg.LowBaseForwardEPSMin {
		msg := fmt.Sprintf("trailing EPS very low ($%.2f) while forward high ($%.2f), low-base effect", trailing, forward)
		res.Flags = append(res.Flags, msg)
		res.ForwardEPSGrowth = res.ForwardEPSGrowth.Null(msg)
	}

	// 6. PEG 과소 (flag only)
	if v, ok := res.PEG.Get(); ok && v < c.cfg.PEGMin {
		res.Flags = append(res.Flags, fmt.Sprintf("PEG abnormally low (%.2f), growth inputs may be distorted", v))
	}

	// 7. 분기 EPS 변동성 (flag only)
	if cv, ok := epsVariation(raw.QuarterlyEPS, c.cfg.EPSVolatilityQuarters); ok && cv > c.cfg.EPSVolatilityMax {
		res.Flags = append(res.Flags, fmt.Sprintf("quarterly EPS highly volatile (CV=%.1f), earnings unstable", cv))
	}

	return res
}

func resolvePEG(raw *contracts.RawFundamentals) (contracts.Field, contracts.PEGSource) {
	if peg := contracts.FromPtr(raw.PEGRatio); peg.IsPresent() {
		return peg, contracts.PEGSourcePrimary
	}
	if peg := contracts.FromPtr(raw.TrailingPEGRatio); peg.IsPresent() {
		return peg, contracts.PEGSourceTrailing
	}
	return contracts.Absent(), contracts.PEGSourceNone
}

// epsVariation returns population std / mean(|eps|) over the last n finite prints
func epsVariation(prints []float64, n int) (float64, bool) {
	vals := make([]float64, 0, len(prints))
	for _, p := range prints {
		if !math.IsNaN(p) && !math.IsInf(p, 0) {
			vals = append(vals, p)
		}
	}
	if len(vals) < n {
		return 0, false
	}
	vals = vals[len(vals)-n:]

	var sum, absSum float64
	for _, v := range vals {
		sum += v
		absSum += math.Abs(v)
	}
	mean := sum / float64(n)
	absMean := absSum / float64(n)
	if absMean <= 0 {
		return 0, false
	}

	var sq float64
	for _, v := range vals {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(n))

	return std / absMean, true
}
