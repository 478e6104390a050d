package saga

import "time"

// MetricsRecorder records saga runtime metrics.
type MetricsRecorder interface {
	RecordRun(status string)
	RecordRunDuration(status string, duration time.Duration)
	IncActiveRuns()
	DecActiveRuns()
	RecordStep(name, status string)
	RecordCompensation(status string)
	RecordCompensationDuration(duration time.Duration)
}

type nopMetricsRecorder struct{}

func (nopMetricsRecorder) RecordRun(status string)                              {}
func (nopMetricsRecorder) RecordRunDuration(status string, d time.Duration)     {}
func (nopMetricsRecorder) IncActiveRuns()                                       {}
func (nopMetricsRecorder) DecActiveRuns()                                       {}
func (nopMetricsRecorder) RecordStep(name, status string)                       {}
func (nopMetricsRecorder) RecordCompensation(status string)                     {}
func (nopMetricsRecorder) RecordCompensationDuration(d time.Duration)           {}
