package scoring

import (
	"time"

	"github.com/gyaneshwarpardhi/riskflow/internal/index"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

const (
	merchantHistoryMin = 5
	merchantNovelRisk  = 0.8
	merchantKnownRisk  = 0.2
	largeAmount        = 1000.0
	largeAmountRisk    = 0.6
	normalAmountRisk   = 0.1
	earlyHourCutoff    = 6
	earlyHourRisk      = 0.4
	normalHourRisk     = 0.1
)

// Scorer evaluates the time-dependent heuristics in a fixed time zone.
// The zero value uses time.Local.
type Scorer struct {
	loc *time.Location
}

// NewScorer returns a Scorer that reads hours in loc (nil means time.Local).
func NewScorer(loc *time.Location) *Scorer {
	return &Scorer{loc: loc}
}

// Location returns the zone hours and dates are evaluated in.
func (s *Scorer) Location() *time.Location {
	if s == nil || s.loc == nil {
		return time.Local
	}
	return s.loc
}

// RiskFactor sums the merchant novelty, amount and time-of-day risks.
// Result is in [0.5, 1.8].
func (s *Scorer) RiskFactor(t txn.Transaction, merchants index.Index) float64 {
	merchant := merchantKnownRisk
	if len(merchants.Get(t.MerchantKey())) < merchantHistoryMin {
		merchant = merchantNovelRisk
	}
	amount := normalAmountRisk
	if t.Amount > largeAmount {
		amount = largeAmountRisk
	}
	hour := normalHourRisk
	if t.Timestamp.In(s.Location()).Hour() < earlyHourCutoff {
		hour = earlyHourRisk
	}
	return merchant + amount + hour
}

// Scores is the per-transaction output of Evaluate.
type Scores struct {
	Risk    float64
	Pattern float64
	Anomaly float64
}

// Total is the sum contributed to a report's total risk.
func (s Scores) Total() float64 { return s.Risk + s.Pattern + s.Anomaly }

// HighRisk reports whether the risk factor exceeds HighRiskThreshold.
func (s Scores) HighRisk() bool { return s.Risk > HighRiskThreshold }

// Evaluate runs the three per-transaction heuristics against prebuilt indices.
func (s *Scorer) Evaluate(t txn.Transaction, merchants, users index.Index) Scores {
	return Scores{
		Risk:    s.RiskFactor(t, merchants),
		Pattern: Pattern(t, merchants, users),
		Anomaly: Anomaly(t, users),
	}
}
