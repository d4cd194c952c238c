package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roster"

// Outcome labels for generation runs
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeCached  = "cached"
)

// Metrics holds Prometheus metrics for roster generation.
type Metrics struct {
	gatherer prometheus.Gatherer

	// RunsTotal counts generation runs by mode and outcome.
	RunsTotal *prometheus.CounterVec

	// RunDuration is the time a generation run takes, by mode.
	RunDuration *prometheus.HistogramVec

	// LowConfidenceSlots is the number of low-confidence slots in the latest run of a period.
	LowConfidenceSlots *prometheus.GaugeVec

	// Vacancies is the number of vacancy records in the latest run of a period.
	Vacancies *prometheus.GaugeVec

	// NormalizationWarnings counts availability warnings by kind.
	NormalizationWarnings *prometheus.CounterVec

	// AssignmentWrites counts committed writes by action (insert, update, supersede).
	AssignmentWrites *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_runs_total",
				Help:      "Total number of roster generation runs",
			},
			[]string{"mode", "outcome"},
		),

		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Time to generate a roster",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"mode"},
		),

		LowConfidenceSlots: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "low_confidence_slots",
				Help:      "Low-confidence slots in the latest run of a period",
			},
			[]string{"period"},
		),

		Vacancies: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "vacancies",
				Help:      "Vacancy records in the latest run of a period",
			},
			[]string{"period"},
		),

		NormalizationWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "normalization_warnings_total",
				Help:      "Total number of availability normalization warnings",
			},
			[]string{"kind"},
		),

		AssignmentWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assignment_writes_total",
				Help:      "Total number of assignment records written by commits",
			},
			[]string{"action"},
		),
	}
}

// NewNoop returns metrics registered on a private registry, for callers that do not export them
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveRun records the outcome and duration of one run
func (m *Metrics) ObserveRun(mode, outcome string, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(mode, outcome).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// SetPeriodQuality records the quality gauges for a period
func (m *Metrics) SetPeriodQuality(period string, lowConfidence, vacancies int) {
	m.LowConfidenceSlots.WithLabelValues(period).Set(float64(lowConfidence))
	m.Vacancies.WithLabelValues(period).Set(float64(vacancies))
}

// AddWarning counts one normalization warning
func (m *Metrics) AddWarning(kind string) {
	m.NormalizationWarnings.WithLabelValues(kind).Inc()
}

// AddWrites counts committed writes
func (m *Metrics) AddWrites(inserted, updated, superseded int) {
	m.AssignmentWrites.WithLabelValues("insert").Add(float64(inserted))
	m.AssignmentWrites.WithLabelValues("update").Add(float64(updated))
	m.AssignmentWrites.WithLabelValues("supersede").Add(float64(superseded))
}

// WriteToTextfile writes the current values in the node-exporter textfile format
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
