// Package engine runs risk analysis of large transaction batches on a
// background worker pool and delivers one aggregated report per batch.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/riskflow/internal/config"
	"github.com/gyaneshwarpardhi/riskflow/internal/index"
	"github.com/gyaneshwarpardhi/riskflow/internal/metrics"
	"github.com/gyaneshwarpardhi/riskflow/internal/scoring"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

var (
	// ErrBelowThreshold means the batch was too small to analyze; no report follows.
	ErrBelowThreshold = errors.New("batch below activation threshold")
	// ErrQueueFull means the dispatcher queue had no room for the batch.
	ErrQueueFull = errors.New("dispatcher queue full")
	// ErrDisposed means the dispatcher no longer accepts work.
	ErrDisposed = errors.New("dispatcher disposed")
	// ErrComputationFailed wraps a failure raised inside a background analysis.
	ErrComputationFailed = errors.New("risk computation failed")
)

// State is the coarse activity of a Dispatcher.
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
)

// RiskAnalytics is the aggregated report for one batch.
type RiskAnalytics struct {
	TotalRisk            float64            `json:"totalRisk"`
	HighRiskTransactions int                `json:"highRiskTransactions"`
	Patterns             map[string]float64 `json:"patterns"`
	Anomalies            map[string]float64 `json:"anomalies"`
	GeneratedAt          int64              `json:"generatedAt"` // epoch ms
}

// Outcome is delivered to listeners when a batch finishes. Exactly one of
// Analytics and Err is set.
type Outcome struct {
	JobID      string
	BatchSize  int
	Analytics  *RiskAnalytics
	Err        error
	DurationMs int64
}

// Listener receives outcomes. It runs on a worker goroutine, should not block
// and must not call Dispose or Shutdown.
type Listener func(Outcome)

type analysisJob struct {
	id     string
	batch  []txn.Transaction
	queued time.Time
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Dispatcher gates batches by size and analyzes accepted ones in the
// background. Under config.PolicyConcurrent overlapping batches run
// independently and each signals its own completion; callers that need
// ordering use config.PolicySingleFlight.
type Dispatcher struct {
	threshold atomic.Int64
	scorer    *scoring.Scorer
	pool      *workerPool[*analysisJob, *RiskAnalytics]
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *slog.Logger
	now       func() time.Time
	compute   func(ctx context.Context, j *analysisJob) (*RiskAnalytics, error)
	drainOnce sync.Once
	deliverMu sync.Mutex // serializes deliveries against Dispose

	mu        sync.Mutex
	inFlight  int
	closed    bool // no new submissions
	disposed  bool // no more deliveries
	listeners []listenerEntry
	nextID    uint64
}

// NewDispatcher starts the worker pool. Cancelling ctx has the same effect
// on delivery as Dispose.
func NewDispatcher(ctx context.Context, conf config.DispatcherConf, scorer *scoring.Scorer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	d := &Dispatcher{
		scorer: scorer,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		now:    time.Now,
	}
	d.threshold.Store(int64(conf.Threshold))
	d.compute = d.analyze
	d.pool = newWorkerPool[*analysisJob, *RiskAnalytics](
		ctx,
		conf.PoolSize(),
		conf.QueueDepth,
		func(ctx context.Context, j *analysisJob) (*RiskAnalytics, error) {
			return d.compute(ctx, j)
		},
		d.deliver,
	)
	context.AfterFunc(ctx, d.Dispose)
	return d
}

// SetThreshold changes the activation threshold for later submissions.
func (d *Dispatcher) SetThreshold(n int) {
	d.threshold.Store(int64(n))
}

// Threshold returns the current activation threshold.
func (d *Dispatcher) Threshold() int {
	return int(d.threshold.Load())
}

// Listen registers fn for every later outcome. The returned function
// deregisters it.
func (d *Dispatcher) Listen(fn Listener) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.listeners = slices.DeleteFunc(d.listeners, func(e listenerEntry) bool { return e.id == id })
	}
}

// Submit queues batch for analysis and returns its job id. The batch is
// copied; the caller may reuse it immediately. Batches smaller than the
// threshold return ErrBelowThreshold and leave the state untouched.
func (d *Dispatcher) Submit(batch []txn.Transaction) (string, error) {
	if len(batch) < d.Threshold() {
		metrics.BatchesSkipped.Inc()
		return "", ErrBelowThreshold
	}
	job := &analysisJob{
		id:     uuid.NewString(),
		batch:  slices.Clone(batch),
		queued: d.now(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.disposed {
		metrics.BatchesRejected.WithLabelValues("disposed").Inc()
		return "", ErrDisposed
	}
	d.inFlight++
	if !d.pool.Submit(job) {
		d.inFlight--
		metrics.BatchesRejected.WithLabelValues("queue_full").Inc()
		return "", ErrQueueFull
	}
	metrics.BatchesSubmitted.Inc()
	metrics.AnalysesInFlight.Inc()
	d.logger.Debug("batch queued", "job_id", job.id, "batch_size", len(job.batch))
	return job.id, nil
}

// State reports StateAnalyzing while any accepted batch has not yet been delivered.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight > 0 {
		return StateAnalyzing
	}
	return StateIdle
}

// QueueUtilization returns queue used / capacity (0–1).
func (d *Dispatcher) QueueUtilization() float64 {
	if d.pool.QueueCap() == 0 {
		return 0
	}
	return float64(d.pool.QueueLen()) / float64(d.pool.QueueCap())
}

// Dispose stops delivery immediately: listeners are dropped, the workers are
// told to stop and the state returns to idle. An analysis already running
// finishes and its result is discarded.
func (d *Dispatcher) Dispose() {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	d.closed = true
	d.listeners = nil
	metrics.AnalysesInFlight.Sub(float64(d.inFlight))
	d.inFlight = 0
	d.mu.Unlock()
	d.cancel()
}

// Shutdown stops accepting batches, waits for queued ones to be delivered
// and then disposes the dispatcher.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.drainOnce.Do(d.pool.Drain)
	d.Dispose()
}

func (d *Dispatcher) analyze(_ context.Context, j *analysisJob) (*RiskAnalytics, error) {
	merchants := index.ByMerchant(j.batch)
	users := index.ByUser(j.batch)

	ra := &RiskAnalytics{
		Patterns:    make(map[string]float64, len(j.batch)),
		Anomalies:   make(map[string]float64, len(j.batch)),
		GeneratedAt: d.now().UnixMilli(),
	}
	for _, t := range j.batch {
		s := d.scorer.Evaluate(t, merchants, users)
		ra.TotalRisk += s.Total()
		if s.HighRisk() {
			ra.HighRiskTransactions++
		}
		ra.Patterns[t.ID] = s.Pattern
		ra.Anomalies[t.ID] = s.Anomaly
	}
	return ra, nil
}

// deliver publishes a finished job. The in-flight count drops before any
// listener runs, so a listener never observes its own job as analyzing.
func (d *Dispatcher) deliver(j *analysisJob, ra *RiskAnalytics, err error) {
	elapsed := d.now().Sub(j.queued)

	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	// A cancelled parent counts as disposed before its AfterFunc has run.
	if d.disposed || d.ctx.Err() != nil {
		d.mu.Unlock()
		metrics.AnalysesCompleted.WithLabelValues("discarded").Inc()
		d.logger.Debug("analysis discarded after dispose", "job_id", j.id)
		return
	}
	d.inFlight--
	listeners := make([]Listener, len(d.listeners))
	for i, e := range d.listeners {
		listeners[i] = e.fn
	}
	d.mu.Unlock()
	metrics.AnalysesInFlight.Dec()

	out := Outcome{
		JobID:      j.id,
		BatchSize:  len(j.batch),
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		out.Err = err
		metrics.AnalysesCompleted.WithLabelValues("failed").Inc()
		d.logger.Error("risk analysis failed", "job_id", j.id, "batch_size", len(j.batch), "err", err)
	} else {
		out.Analytics = ra
		metrics.AnalysesCompleted.WithLabelValues("delivered").Inc()
		metrics.AnalysisDuration.Observe(float64(out.DurationMs))
		d.logger.Info("risk analysis complete",
			"job_id", j.id,
			"batch_size", len(j.batch),
			"high_risk", ra.HighRiskTransactions,
			"duration_ms", out.DurationMs,
		)
	}
	for _, fn := range listeners {
		fn(out)
	}
}
