// Package scoring implements the per-transaction risk heuristics: pairwise
// fraud similarity, per-user anomaly, merchant/velocity pattern and the
// merchant/amount/time risk factor.
package scoring

import (
	"math"
	"time"

	"github.com/gyaneshwarpardhi/riskflow/internal/index"
	"github.com/gyaneshwarpardhi/riskflow/internal/stats"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

const (
	fraudIncrement         = 0.3
	fraudMerchantThreshold = 0.8
	fraudAmountThreshold   = 0.1
	fraudTimeWindow        = time.Hour

	anomalyDeviationWeight = 0.3
	anomalyLocationPenalty = 0.4
	anomalyRecentLocations = 10

	patternAmountTolerance = 10.0
	patternSimilarMin      = 3 // strictly more than
	patternVelocityMin     = 5 // strictly more than
	patternVelocityWindow  = time.Hour
	patternSimilarScore    = 0.3
	patternVelocityScore   = 0.5

	// HighRiskThreshold classifies a risk factor as high risk when exceeded.
	HighRiskThreshold = 0.7
)

// FraudScores scores every transaction of batch against all others with a
// different id. Output order matches batch order.
func FraudScores(batch []txn.Transaction) []txn.Scored {
	out := make([]txn.Scored, len(batch))
	for i, t := range batch {
		var score float64
		for _, o := range batch {
			if o.ID == t.ID {
				continue
			}
			if suspiciousPair(t, o) {
				score += fraudIncrement
			}
		}
		out[i] = txn.Scored{Transaction: t, FraudScore: score}
	}
	return out
}

// suspiciousPair checks the cheap amount and time conditions before the
// edit distance.
func suspiciousPair(t, o txn.Transaction) bool {
	if amountDistance(t.Amount, o.Amount) >= fraudAmountThreshold {
		return false
	}
	if absDuration(t.Timestamp.Sub(o.Timestamp)) >= fraudTimeWindow {
		return false
	}
	return stats.Similarity(t.MerchantName, o.MerchantName) > fraudMerchantThreshold
}

// amountDistance is |a-b| / max(a, b); two zero amounts are identical.
func amountDistance(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi == 0 {
		return 0
	}
	return math.Abs(a-b) / hi
}

// Anomaly scores how far t deviates from its user's indexed history, plus a
// penalty for a location not seen in the user's last ten indexed entries.
// users is expected to contain the batch t belongs to. Result is in [0, 1].
func Anomaly(t txn.Transaction, users index.Index) float64 {
	history := users.Get(t.UserKey())

	avg := t.Amount
	if len(history) > 0 {
		avg = 0
		for i, h := range history {
			avg += (h.Amount - avg) / float64(i+1)
		}
	}

	var deviation float64
	if avg != 0 {
		deviation = math.Abs(t.Amount-avg) / avg
	}

	var location float64
	if t.Location != "" && !seenLocation(t.Location, history) {
		location = anomalyLocationPenalty
	}

	// Non-finite amounts saturate.
	score := deviation*anomalyDeviationWeight + location
	if math.IsNaN(score) {
		return 1
	}
	return math.Min(score, 1)
}

func seenLocation(loc string, history []txn.Transaction) bool {
	recent := history[max(0, len(history)-anomalyRecentLocations):]
	for _, h := range recent {
		if h.Location == loc {
			return true
		}
	}
	return false
}

// Pattern rewards repeated near-identical amounts at one merchant and bursts
// of activity by one user. Result is in [0, 0.8].
func Pattern(t txn.Transaction, merchants, users index.Index) float64 {
	similar := 0
	for _, m := range merchants.Get(t.MerchantKey()) {
		if math.Abs(m.Amount-t.Amount) < patternAmountTolerance {
			similar++
		}
	}
	velocity := 0
	for _, u := range users.Get(t.UserKey()) {
		if absDuration(u.Timestamp.Sub(t.Timestamp)) < patternVelocityWindow {
			velocity++
		}
	}

	var score float64
	if similar > patternSimilarMin {
		score += patternSimilarScore
	}
	if velocity > patternVelocityMin {
		score += patternVelocityScore
	}
	return score
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
