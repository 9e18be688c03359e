// Package metrics tracks ledger operations: every call is timed, counted by
// outcome and logged.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Virain6/money-management/internal/models"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the ledger collectors. A nil *Metrics still logs but records
// nothing.
type Metrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	materializeRuns *prometheus.CounterVec
	budgetsCreated  prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome.",
		}, []string{"op", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		materializeRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "budget_materializations_total",
			Help:      "Recurring budget materialization calls, by whether the result was shared with a call already in flight.",
		}, []string{"shared"}),
		budgetsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "budget_instances_created_total",
			Help:      "Budget instances created from recurring templates.",
		}),
	}
}

// Track runs fn as the named operation. It logs the outcome and duration and
// records both, then returns fn's error unchanged.
func (m *Metrics) Track(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	outcome := Classify(err)
	switch outcome {
	case OutcomeOK:
		slog.InfoContext(ctx, "ledger ok",
			"op", op,
			"duration_ms", elapsed.Milliseconds(),
		)
	case OutcomeRejected:
		slog.WarnContext(ctx, "ledger rejected",
			"op", op,
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
	default:
		slog.ErrorContext(ctx, "ledger error",
			"op", op,
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	if m != nil {
		m.operations.WithLabelValues(op, outcome).Inc()
		m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	return err
}

// BudgetsMaterialized records the instances one materialization run created.
func (m *Metrics) BudgetsMaterialized(month models.MonthKey, created int) {
	slog.Debug("budgets materialized", "month", month.String(), "created", created)
	if m == nil {
		return
	}
	m.budgetsCreated.Add(float64(created))
}

// MaterializeCall counts one caller of the materializer. shared is true when
// the caller's result came from a run other callers also received.
func (m *Metrics) MaterializeCall(shared bool) {
	if m == nil {
		return
	}
	m.materializeRuns.WithLabelValues(strconv.FormatBool(shared)).Inc()
}

// Classify maps an operation error to an outcome label. Validation and lookup
// failures are rejections; anything else is an error.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, models.ErrEmptyParticipants),
		errors.Is(err, models.ErrNonPositiveAmount),
		errors.Is(err, models.ErrInvalidSplit),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidMonth),
		errors.Is(err, models.ErrDuplicateBudget),
		errors.Is(err, models.ErrProtectedPerson):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
