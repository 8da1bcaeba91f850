package interfacing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Level is the severity of a period-over-period change.
type Level string

const (
	LevelNormal  Level = "normal"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

const (
	DefaultWarnPct   = 50
	DefaultDangerPct = 100
)

var hundred = decimal.NewFromInt(100)

// DeltaResult is a classified percentage change. Pct is nil when there is nothing to compare against.
type DeltaResult struct {
	Pct   *float64 `json:"pct"`
	Level Level    `json:"level"`
}

// IsNew reports whether the value appeared from zero.
func (d DeltaResult) IsNew() bool { return d.Pct == nil }

// Threshold holds warning and danger bounds in percent.
type Threshold struct {
	Warn   float64
	Danger float64
}

// DefaultThreshold returns warn=50, danger=100.
func DefaultThreshold() Threshold {
	return Threshold{Warn: DefaultWarnPct, Danger: DefaultDangerPct}
}

// Thresholds resolves per-category thresholds over a default.
type Thresholds struct {
	Default    Threshold
	Categories map[string]Threshold
}

// DefaultThresholds returns thresholds with no category overrides.
func DefaultThresholds() Thresholds {
	return Thresholds{Default: DefaultThreshold()}
}

// For returns the threshold of a category; zero fields fall back to the default.
func (t Thresholds) For(category string) Threshold {
	base := t.Default
	if base.Warn == 0 && base.Danger == 0 {
		base = DefaultThreshold()
	}
	override, ok := t.Categories[category]
	if !ok {
		return base
	}
	if override.Warn != 0 {
		base.Warn = override.Warn
	}
	if override.Danger != 0 {
		base.Danger = override.Danger
	}
	return base
}

// PctChange returns the relative change in percent, or nil when previous is zero and current is not.
func PctChange(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		if current.IsZero() {
			zero := 0.0
			return &zero
		}
		return nil
	}
	pct := current.Sub(previous).Div(previous.Abs()).Mul(hundred).InexactFloat64()
	return &pct
}

// Classify maps a percentage change to a severity level.
func Classify(pct *float64, warn, danger float64) Level {
	if pct == nil {
		return LevelDanger
	}
	change := math.Abs(*pct)
	switch {
	case change >= danger:
		return LevelDanger
	case change >= warn:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// Compare computes and classifies the change between two values.
func Compare(current, previous decimal.Decimal, threshold Threshold) DeltaResult {
	pct := PctChange(current, previous)
	return DeltaResult{Pct: pct, Level: Classify(pct, threshold.Warn, threshold.Danger)}
}
