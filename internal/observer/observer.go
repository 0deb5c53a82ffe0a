// Package observer implements the Queue Observer (component H, spec
// §4.H): on every processor tick, refresh the queue gauges and raise the
// backlog alert when warranted.
package observer

import (
	"context"
	"fmt"
	"time"

	"github.com/artemis/object-migrate/internal/alerts"
	"github.com/artemis/object-migrate/internal/cmn"
	"github.com/artemis/object-migrate/internal/metrics"
	"github.com/artemis/object-migrate/internal/nlog"
	"github.com/artemis/object-migrate/internal/store"
)

// Observer samples the Task Store's status counts and reports them. It
// also carries the §9 "SHOULD add a lease/timeout" reclaim: every tick it
// requeues running rows whose lease has expired, piggybacking on the same
// cadence as the gauge refresh rather than a second ticker.
type Observer struct {
	Tasks        store.TaskStore
	Metrics      metrics.Sink
	Alerts       alerts.Sink
	LeaseTimeout time.Duration
}

// New builds an Observer with the given lease timeout.
func New(tasks store.TaskStore, m metrics.Sink, a alerts.Sink, leaseTimeout time.Duration) *Observer {
	return &Observer{Tasks: tasks, Metrics: m, Alerts: a, LeaseTimeout: leaseTimeout}
}

// Tick reclaims stale running rows, samples count_by_status, zero-fills
// the five known statuses, sets the per-status gauge, and raises
// migration_backlog when the queued count exceeds cmn.BacklogThreshold
// (spec §4.H).
func (o *Observer) Tick(ctx context.Context) {
	if o.LeaseTimeout > 0 {
		if n, err := o.Tasks.ReclaimStale(o.LeaseTimeout); err != nil {
			nlog.Warnf("reclaim stale tasks failed: %v", err)
		} else if n > 0 {
			nlog.Infof("reclaimed %d stale running tasks", n)
		}
	}

	counts, err := o.Tasks.CountByStatus()
	if err != nil {
		return
	}
	for _, s := range cmn.AllStatuses {
		o.Metrics.SetQueueGauge(string(s), float64(counts[s]))
	}
	if n := counts[cmn.StatusQueued]; n > cmn.BacklogThreshold {
		msg := fmt.Sprintf("%d migration tasks queued", n)
		if err := o.Alerts.CreateAlert("migration_backlog", "warning", msg, map[string]any{"queued": n}); err != nil {
			nlog.Warnf("create_alert migration_backlog failed: %v", err)
		}
	}
}
