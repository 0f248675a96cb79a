package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskflow_batches_submitted_total",
		Help: "Total number of batches accepted by the dispatcher.",
	})

	BatchesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskflow_batches_skipped_total",
		Help: "Total number of batches ignored because they were below the activation threshold.",
	})

	BatchesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskflow_batches_rejected_total",
		Help: "Total number of batches refused by the dispatcher, labelled by reason.",
	}, []string{"reason"})

	AnalysesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskflow_analyses_completed_total",
		Help: "Total number of finished analyses, labelled by outcome (delivered, failed, discarded).",
	}, []string{"outcome"})

	AnalysesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskflow_analyses_in_flight",
		Help: "Number of analyses currently queued or running.",
	})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riskflow_analysis_duration_ms",
		Help:    "Background risk analysis latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riskflow_assessment_duration_ms",
		Help:    "Synchronous risk assessment latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	TransactionsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskflow_transactions_ingested_total",
		Help: "Total number of transactions appended to the repository.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskflow_queue_utilization_ratio",
		Help: "Current dispatcher queue utilization (0–1).",
	})
)
