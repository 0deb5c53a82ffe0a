// Package store implements the Task Store and FileMeta Store (component
// F, spec §4.F/§3), persisting both tables in one embedded buntdb
// database.
package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/artemis/object-migrate/internal/cmn"
)

// readyStatuses are the statuses claim_next considers, in no particular
// priority among themselves — ordering among ready rows is by CreatedAt
// only (spec §4.F).
var readyStatuses = map[cmn.Status]bool{
	cmn.StatusQueued:  true,
	cmn.StatusCleanup: true,
	cmn.StatusFailed:  true,
}

func isReady(s cmn.Status) bool { return readyStatuses[s] }

// phaseFor picks the dispatch branch a row claimed from pre is bound for:
// cleanup rows stay cleanup, everything else (queued, failed "re-entered
// as if queued") dispatches as a copy (spec §4.G).
func phaseFor(pre cmn.Status) cmn.Phase {
	if pre == cmn.StatusCleanup {
		return cmn.PhaseCleanup
	}
	return cmn.PhaseCopy
}

// reclaimStatus picks the status a stale running row returns to when
// ReclaimStale requeues it. A cleanup-phase orphan goes back to cleanup
// so phaseFor resolves it back to PhaseCleanup on its next claim, instead
// of being misrouted into the copy engine with no destination to copy to.
func reclaimStatus(phase cmn.Phase) cmn.Status {
	if phase == cmn.PhaseCleanup {
		return cmn.StatusCleanup
	}
	return cmn.StatusFailed
}

// newTask builds a fresh, queued MigrationTask with a freshly minted
// google/uuid v4 ID (spec §3's MigrationTask.ID).
func newTask(key, src, dst string) *cmn.MigrationTask {
	return &cmn.MigrationTask{
		ID:        uuid.NewString(),
		Key:       key,
		Src:       src,
		Dst:       dst,
		Status:    cmn.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}

// TaskStore is the durable queue interface spec §4.F describes.
type TaskStore interface {
	// Enqueue mints a MigrationTask.ID and persists a new queued row for
	// the given key/src/dst. The REST/CLI surface that would normally
	// call this is out of scope (spec §1); this is the seam it would use.
	Enqueue(key, src, dst string) (*cmn.MigrationTask, error)
	ClaimNext() (*cmn.MigrationTask, error)
	Update(t *cmn.MigrationTask) error
	Delete(t *cmn.MigrationTask) error
	CountByStatus() (map[cmn.Status]int, error)
	// ReclaimStale requeues rows stuck in `running` for longer than after,
	// per spec §9's "SHOULD add a lease/timeout" note. attempts are left
	// unchanged: a reclaim is not a copy failure.
	ReclaimStale(after time.Duration) (int, error)
}

// FileMetaStore is the narrow FileMeta interface spec §3/§4.G need: read a
// row and stamp its version token after a successful copy.
type FileMetaStore interface {
	Get(key string) (*cmn.FileMeta, error)
	SetVersionToken(key, token string) error
}

func zeroFilledCounts() map[cmn.Status]int {
	m := make(map[cmn.Status]int, len(cmn.AllStatuses))
	for _, s := range cmn.AllStatuses {
		m[s] = 0
	}
	return m
}

// sortByCreatedAt is shared by both store implementations' ClaimNext scan.
func sortByCreatedAt(tasks []*cmn.MigrationTask) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
}
