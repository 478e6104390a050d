package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initSagaMetrics(cfg Config) {
	m.sagaRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_runs_total",
			Help: "Total number of saga runs by terminal status",
		},
		[]string{"status"},
	)

	m.sagaRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_run_duration_seconds",
			Help:    "Saga run duration in seconds",
			Buckets: cfg.RunDurationBuckets,
		},
		[]string{"status"},
	)

	m.sagaActiveRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saga_active_runs",
			Help: "Current number of in-flight saga runs",
		},
	)

	m.sagaSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_steps_total",
			Help: "Total number of executed saga steps by name and outcome",
		},
		[]string{"step", "status"},
	)

	m.sagaCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Total number of compensation actions by outcome",
		},
		[]string{"status"},
	)

	m.sagaCompensationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_compensation_duration_seconds",
			Help:    "Compensation action duration in seconds",
			Buckets: cfg.StepDurationBuckets,
		},
	)

	m.registry.MustRegister(m.sagaRuns)
	m.registry.MustRegister(m.sagaRunDuration)
	m.registry.MustRegister(m.sagaActiveRuns)
	m.registry.MustRegister(m.sagaSteps)
	m.registry.MustRegister(m.sagaCompensations)
	m.registry.MustRegister(m.sagaCompensationDuration)
}

// RecordRun records one saga run outcome.
func (m *Manager) RecordRun(status string) {
	if !m.enabled {
		return
	}
	m.sagaRuns.WithLabelValues(status).Inc()
}

// RecordRunDuration records saga run latency.
func (m *Manager) RecordRunDuration(status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.sagaRunDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// IncActiveRuns increments the in-flight run count.
func (m *Manager) IncActiveRuns() {
	if !m.enabled {
		return
	}
	m.sagaActiveRuns.Inc()
}

// DecActiveRuns decrements the in-flight run count.
func (m *Manager) DecActiveRuns() {
	if !m.enabled {
		return
	}
	m.sagaActiveRuns.Dec()
}

// RecordStep records one step execution outcome.
func (m *Manager) RecordStep(name, status string) {
	if !m.enabled {
		return
	}
	m.sagaSteps.WithLabelValues(name, status).Inc()
}

// RecordCompensation records one compensation action outcome.
func (m *Manager) RecordCompensation(status string) {
	if !m.enabled {
		return
	}
	m.sagaCompensations.WithLabelValues(status).Inc()
}

// RecordCompensationDuration records compensation action duration.
func (m *Manager) RecordCompensationDuration(duration time.Duration) {
	if !m.enabled {
		return
	}
	m.sagaCompensationDuration.Observe(duration.Seconds())
}
