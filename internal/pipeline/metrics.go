package pipeline

import "time"

// Metrics records pipeline timing and counters. The default wiring uses
// NoopMetrics; alternative implementations can forward to a collector.
type Metrics interface {
	// RecordDuration records how long a named unit of work took.
	RecordDuration(name string, d time.Duration)
	// IncCounter increments a named counter.
	IncCounter(name string)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

// RecordDuration implements Metrics.
func (NoopMetrics) RecordDuration(string, time.Duration) {}

// IncCounter implements Metrics.
func (NoopMetrics) IncCounter(string) {}

var _ Metrics = NoopMetrics{}
