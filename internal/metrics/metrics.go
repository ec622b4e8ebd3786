// Package metrics records Prometheus metrics for secret reads and URI validation.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Read outcome labels.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusConfigError = "config_error"
	StatusInvalid     = "invalid"
)

var (
	secretReadsTotal   *prometheus.CounterVec
	secretReadDuration *prometheus.HistogramVec
	validationsTotal   *prometheus.CounterVec

	metricsOnce       sync.Once
	metricsRegistered atomic.Bool
)

// InitMetrics registers all collectors with the default registry.
// Recording before InitMetrics is a no-op.
func InitMetrics() {
	metricsOnce.Do(func() {
		secretReadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opfield_secret_reads_total",
				Help: "Total number of secret reads through the op CLI",
			},
			[]string{"vault", "status"},
		)

		secretReadDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opfield_secret_read_duration_seconds",
				Help:    "Duration of op read invocations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"vault"},
		)

		validationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opfield_uri_validations_total",
				Help: "Total number of secret reference validations by result code",
			},
			[]string{"result"},
		)

		metricsRegistered.Store(true)
	})
}

// ReadMetrics records secret read outcomes.
type ReadMetrics struct{}

// NewReadMetrics creates a new ReadMetrics instance.
func NewReadMetrics() *ReadMetrics {
	return &ReadMetrics{}
}

// RecordRead records one read attempt. durationSeconds is ignored when negative.
func (m *ReadMetrics) RecordRead(vault, status string, durationSeconds float64) {
	if !metricsRegistered.Load() {
		return
	}
	secretReadsTotal.WithLabelValues(vault, status).Inc()
	if durationSeconds >= 0 {
		secretReadDuration.WithLabelValues(vault).Observe(durationSeconds)
	}
}

// RecordValidation records a validation result; result is "valid" or an error code.
func (m *ReadMetrics) RecordValidation(result string) {
	if !metricsRegistered.Load() {
		return
	}
	validationsTotal.WithLabelValues(result).Inc()
}

// GetSecretReadsTotal returns the read counter for testing.
func GetSecretReadsTotal() *prometheus.CounterVec {
	return secretReadsTotal
}

// GetSecretReadDuration returns the read duration histogram for testing.
func GetSecretReadDuration() *prometheus.HistogramVec {
	return secretReadDuration
}

// GetValidationsTotal returns the validation counter for testing.
func GetValidationsTotal() *prometheus.CounterVec {
	return validationsTotal
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered.Load()
}
