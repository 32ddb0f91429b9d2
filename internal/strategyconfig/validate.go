package strategyconfig

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Fundamentals ===
	f := cfg.Fundamentals
	if f.PEGMax <= 0 {
		return ValidationError{"fundamentals.peg_max", "must be > 0"}
	}
	if f.MarketCapMin < 0 {
		return ValidationError{"fundamentals.market_cap_min", "must be >= 0"}
	}

	// === Technical ===
	t := cfg.Technical
	if t.RSIMax <= 0 || t.RSIMax > 100 {
		return ValidationError{"technical.rsi_max", "must be in (0, 100]"}
	}
	if t.DrawdownMinPct >= 0 || t.DrawdownMinPct < -100 {
		return ValidationError{"technical.drawdown_min_pct", "must be in [-100, 0)"}
	}
	if t.RSIPeriod < 2 {
		return ValidationError{"technical.rsi_period", "must be >= 2"}
	}
	if t.VolumeWindow < 1 {
		return ValidationError{"technical.volume_window", "must be >= 1"}
	}
	if t.VolumeSpikeRatio <= 0 {
		return ValidationError{"technical.volume_spike_ratio", "must be > 0"}
	}
	if t.MinBars < t.RSIPeriod+1 || t.MinBars < t.VolumeWindow {
		return ValidationError{"technical.min_bars", fmt.Sprintf("must cover rsi_period+1=%d and volume_window=%d", t.RSIPeriod+1, t.VolumeWindow)}
	}
	if t.LookbackDays < t.MinBars {
		return ValidationError{"technical.lookback_days", "must be >= min_bars"}
	}

	// === Sanity ===
	s := cfg.Sanity
	for field, v := range map[string]float64{
		"sanity.share_structure_ratio_max": s.ShareStructureRatioMax,
		"sanity.revenue_growth_cap":        s.RevenueGrowthCap,
		"sanity.eps_growth_cap":            s.EPSGrowthCap,
		"sanity.trailing_eps_min_abs":      s.TrailingEPSMinAbs,
		"sanity.eps_volatility_max":        s.EPSVolatilityMax,
	} {
		if v <= 0 {
			return ValidationError{field, "must be > 0"}
		}
	}
	if s.EPSVolatilityQuarters < 2 {
		return ValidationError{"sanity.eps_volatility_quarters", "must be >= 2"}
	}

	// === Options ===
	if cfg.Options.MinMonths < 1 {
		return ValidationError{"options.min_months", "must be >= 1"}
	}
	if cfg.Options.DaysPerMonth < 28 || cfg.Options.DaysPerMonth > 31 {
		return ValidationError{"options.days_per_month", "must be in [28, 31]"}
	}

	// === Scoring ===
	w := cfg.Scoring.Weights
	for field, v := range map[string]float64{
		"scoring.weights.fundamental": w.Fundamental,
		"scoring.weights.valuation":   w.Valuation,
		"scoring.weights.technical":   w.Technical,
		"scoring.weights.catalyst":    w.Catalyst,
		"scoring.weights.option":      w.Option,
	} {
		if err := validatePctRange(v, field); err != nil {
			return err
		}
	}
	if err := validateWeightsSum(w.Sum(), 1.0, 1e-6); err != nil {
		return ValidationError{"scoring.weights", err.Error()}
	}
	if cfg.Scoring.IVRankTarget < 0 || cfg.Scoring.IVRankTarget > 100 {
		return ValidationError{"scoring.iv_rank_target", "must be in [0, 100]"}
	}
	if cfg.Scoring.IVRankSlope <= 0 {
		return ValidationError{"scoring.iv_rank_slope", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// PEG 점수 구간(0~2.0) 밖
	if cfg.Fundamentals.PEGMax > 2.0 {
		warnings = append(warnings, Warning{
			Code:    "PEG_MAX_ABOVE_SCORE_RANGE",
			Message: "peg_max > 2.0: PEG 2.0 이상은 점수 0",
		})
	}

	// LEAP 정의보다 짧은 만기
	if cfg.Options.MinMonths < 9 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_EXPIRY",
			Message: "min_months < 9: LEAP이 아닌 만기 포함 가능",
		})
	}

	// 52주 고점 계산에 1년 미만 데이터
	if cfg.Technical.LookbackDays < 365 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_LOOKBACK",
			Message: "lookback_days < 365: drawdown이 52주 고점 기준이 아님",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(sum float64, target float64, epsilon float64) error {
	if sum == 0 {
		return errors.New("must not be empty")
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
