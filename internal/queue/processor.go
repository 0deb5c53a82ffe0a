// Package queue implements the Queue Processor (component G, spec §4.G):
// the state machine that claims one task at a time and dispatches it to
// the Copy Engine or Cleanup Engine, then reports to the Queue Observer.
package queue

import (
	"context"

	"github.com/artemis/object-migrate/internal/cleanup"
	"github.com/artemis/object-migrate/internal/cmn"
	"github.com/artemis/object-migrate/internal/copier"
	"github.com/artemis/object-migrate/internal/metrics"
	"github.com/artemis/object-migrate/internal/nlog"
	"github.com/artemis/object-migrate/internal/store"
)

// Observer is called after every processed task (spec §4.G/§4.H).
type Observer interface {
	Tick(ctx context.Context)
}

// Processor handles one task per ProcessOnce call; the caller runs the loop.
type Processor struct {
	Tasks     store.TaskStore
	FileMetas store.FileMetaStore
	Copier    *copier.Engine
	Cleanup   *cleanup.Engine
	Metrics   metrics.Sink
	Observer  Observer
}

// NewProcessor wires the Queue Processor's dependencies.
func NewProcessor(tasks store.TaskStore, filemetas store.FileMetaStore, cp *copier.Engine, cl *cleanup.Engine, m metrics.Sink, obs Observer) *Processor {
	return &Processor{Tasks: tasks, FileMetas: filemetas, Copier: cp, Cleanup: cl, Metrics: m, Observer: obs}
}

// ProcessOnce claims and processes a single task, returning whether it did
// useful work — callers loop this, sleeping when it returns false (spec
// §4.G/§5).
func (p *Processor) ProcessOnce(ctx context.Context) (bool, error) {
	task, err := p.Tasks.ClaimNext()
	if err != nil {
		return false, err
	}
	if task == nil {
		p.Observer.Tick(ctx)
		return false, nil
	}

	if task.Phase == cmn.PhaseCleanup {
		p.processCleanup(ctx, task)
	} else {
		p.processCopy(ctx, task)
	}

	p.Observer.Tick(ctx)
	return true, nil
}

func (p *Processor) processCopy(ctx context.Context, task *cmn.MigrationTask) {
	outcome := p.Copier.CopyOnce(ctx, task.Key, task.Src, task.Dst)
	switch outcome.Kind {
	case copier.Copied, copier.Noop:
		task.Status = cmn.StatusDone
		task.Error = ""
		if outcome.Kind == copier.Copied && p.FileMetas != nil {
			if fm, err := p.FileMetas.Get(task.Key); err != nil {
				nlog.Warnf("filemeta lookup failed for %s: %v", task.Key, err)
			} else if fm != nil {
				if err := p.FileMetas.SetVersionToken(task.Key, outcome.VersionToken); err != nil {
					nlog.Warnf("filemeta version_token write failed for %s: %v", task.Key, err)
				}
			}
		}
		p.Metrics.IncJob(string(outcome.Kind))
		if err := p.Tasks.Update(task); err != nil {
			nlog.Errorf("task update failed for %s: %v", task.ID, err)
		}
		return
	case copier.MissingSource:
		p.requeueOrDelete(task, "missing_source", "missing_source")
		return
	case copier.Blocked:
		p.requeueOrDelete(task, outcome.Reason, "blocked")
		return
	default: // Skipped, Failed — both are failures per the skip-counts-as-failure decision
		reason := outcome.Reason
		if reason == "" {
			reason = string(outcome.Kind)
		}
		p.requeueOrDelete(task, reason, "error")
	}
}

func (p *Processor) processCleanup(ctx context.Context, task *cmn.MigrationTask) {
	outcome, err := p.Cleanup.CleanupOnce(ctx, task.Key, task.Src)
	if err != nil {
		p.requeueOrDeleteCleanup(task, err.Error(), "cleanup_error")
		return
	}
	switch outcome.Kind {
	case cleanup.Deleted, cleanup.Noop:
		task.Status = cmn.StatusDone
		task.Error = ""
		p.Metrics.IncJob("deleted")
		if err := p.Tasks.Update(task); err != nil {
			nlog.Errorf("task update failed for %s: %v", task.ID, err)
		}
	}
}

// requeueOrDelete handles a copy-phase failure: attempts++ first, then
// either the row is deleted (attempts reached MaxAttempts) or requeued to
// "queued" (spec §4.G: "the status used when requeuing from the cleanup
// phase is cleanup, not queued" — implying copy-phase requeues to queued).
func (p *Processor) requeueOrDelete(task *cmn.MigrationTask, errMsg, metricResult string) {
	p.finishFailedAttempt(task, errMsg, metricResult, cmn.StatusQueued)
}

// requeueOrDeleteCleanup is the cleanup-phase mirror of requeueOrDelete:
// same attempts policy, requeues to "cleanup" on retry.
func (p *Processor) requeueOrDeleteCleanup(task *cmn.MigrationTask, errMsg, metricResult string) {
	p.finishFailedAttempt(task, errMsg, metricResult, cmn.StatusCleanup)
}

func (p *Processor) finishFailedAttempt(task *cmn.MigrationTask, errMsg, metricResult string, requeueStatus cmn.Status) {
	task.Attempts++
	task.Error = errMsg
	p.Metrics.IncJob(metricResult)

	if task.Attempts >= cmn.MaxAttempts {
		if err := p.Tasks.Delete(task); err != nil {
			nlog.Errorf("task delete failed for %s: %v", task.ID, err)
		}
		return
	}
	task.Status = requeueStatus
	if err := p.Tasks.Update(task); err != nil {
		nlog.Errorf("task update failed for %s: %v", task.ID, err)
	}
}
