// Package alerts carries the daemon's alert-firing surface (spec §4.H,
// §6): a narrow Sink interface, with a log-based adapter as the only
// concrete implementation. Deduplication and routing are the sink's
// job, not the core's — the core fires on every Tick where the
// condition holds.
package alerts

import "github.com/artemis/object-migrate/internal/nlog"

// Sink receives an alert the way spec §4.H/§6's create_alert(name,
// severity, message, metadata) contract describes it.
type Sink interface {
	CreateAlert(name, severity, message string, meta map[string]any) error
}

// LogSink logs every alert at warn level and performs no deduplication.
type LogSink struct{}

// NewLogSink builds a LogSink.
func NewLogSink() *LogSink { return &LogSink{} }

func (LogSink) CreateAlert(name, severity, message string, meta map[string]any) error {
	nlog.Warnf("alert %s severity=%s: %s %v", name, severity, message, meta)
	return nil
}
