// Package metrics exposes Prometheus metrics for remapping runs and the HTTP service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the metric namespace used by the commands.
const Namespace = "vertint"

// Run status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Collector provides application metrics collection. A nil *Collector is valid and
// records nothing.
type Collector struct {
	// Remap metrics
	TimestepsTotal          prometheus.Counter
	RecordsReadTotal        prometheus.Counter
	RecordsWrittenTotal     prometheus.Counter
	FieldsInterpolatedTotal *prometheus.CounterVec
	WarningsTotal           *prometheus.CounterVec
	RunDuration             *prometheus.HistogramVec
	RunsTotal               *prometheus.CounterVec

	// API metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a collector registered with reg.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		TimestepsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timesteps_total",
				Help:      "Total number of time steps processed",
			},
		),

		RecordsReadTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_read_total",
				Help:      "Total number of input records read",
			},
		),

		RecordsWrittenTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_written_total",
				Help:      "Total number of output records written",
			},
		),

		FieldsInterpolatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fields_interpolated_total",
				Help:      "Total number of fields interpolated by role",
			},
			[]string{"role"},
		),

		WarningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warnings_total",
				Help:      "Total number of non-fatal warnings by kind",
			},
			[]string{"kind"},
		),

		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of remapping runs in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"operator"},
		),

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of remapping runs by operator and status",
			},
			[]string{"operator", "status"},
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
			},
			[]string{"endpoint"},
		),
	}
}

// RecordTimestep increments the time step counter.
func (c *Collector) RecordTimestep() {
	if c == nil {
		return
	}
	c.TimestepsTotal.Inc()
}

// RecordRecords adds read and written record counts.
func (c *Collector) RecordRecords(read, written int) {
	if c == nil {
		return
	}
	c.RecordsReadTotal.Add(float64(read))
	c.RecordsWrittenTotal.Add(float64(written))
}

// RecordInterpolation increments the interpolated field counter for a role.
func (c *Collector) RecordInterpolation(role string) {
	if c == nil {
		return
	}
	c.FieldsInterpolatedTotal.WithLabelValues(role).Inc()
}

// RecordWarning increments the warning counter for a kind.
func (c *Collector) RecordWarning(kind string) {
	if c == nil {
		return
	}
	c.WarningsTotal.WithLabelValues(kind).Inc()
}

// RecordRun records the outcome and duration of a run.
func (c *Collector) RecordRun(operator, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.RunsTotal.WithLabelValues(operator, status).Inc()
	c.RunDuration.WithLabelValues(operator).Observe(d.Seconds())
}

// RecordAPIRequest records one HTTP request.
func (c *Collector) RecordAPIRequest(endpoint, method, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	c.APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
