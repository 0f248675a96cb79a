// Package report builds the synchronous risk assessment and its aggregate
// views: daily time series, category correlation and spend-tier clusters.
package report

import (
	"time"

	"github.com/gyaneshwarpardhi/riskflow/internal/metrics"
	"github.com/gyaneshwarpardhi/riskflow/internal/scoring"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

// Assessment is the comprehensive report for one batch.
type Assessment struct {
	FraudScores       []txn.Scored                  `json:"fraudScores"`
	TimeSeries        TimeSeriesData                `json:"timeSeriesData"`
	MarketCorrelation map[string]map[string]float64 `json:"marketCorrelation"`
	BehaviorClusters  map[string][]txn.Transaction  `json:"behaviorClusters"`
	ProcessingTime    float64                       `json:"processingTime"` // ms
	DataPoints        int                           `json:"dataPoints"`     // n², a cost estimate
}

// Builder runs the synchronous pipeline. It holds no per-call state and is
// safe for concurrent use.
type Builder struct {
	loc *time.Location
	now func() time.Time
}

// NewBuilder returns a Builder that buckets dates in loc (nil means time.Local).
func NewBuilder(loc *time.Location) *Builder {
	return &Builder{loc: loc, now: time.Now}
}

// Build scores and aggregates batch. batch is only read; cluster buckets
// share the caller's transaction values.
func (b *Builder) Build(batch []txn.Transaction) *Assessment {
	start := b.now()

	a := &Assessment{
		FraudScores:       scoring.FraudScores(batch),
		TimeSeries:        TimeSeries(batch, b.loc),
		MarketCorrelation: Correlation(batch),
		BehaviorClusters:  Clusters(batch),
		DataPoints:        len(batch) * len(batch),
	}

	elapsed := b.now().Sub(start)
	a.ProcessingTime = float64(elapsed) / float64(time.Millisecond)
	metrics.AssessmentDuration.Observe(a.ProcessingTime)
	return a
}
