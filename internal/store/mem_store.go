package store

import (
	"sync"
	"time"

	"github.com/artemis/object-migrate/internal/cmn"
)

// MemTaskStore is an in-memory TaskStore for tests, mirroring the claim
// semantics of BuntTaskStore without any file I/O.
type MemTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*cmn.MigrationTask
}

// NewMemTaskStore builds an empty MemTaskStore.
func NewMemTaskStore() *MemTaskStore {
	return &MemTaskStore{tasks: make(map[string]*cmn.MigrationTask)}
}

// Put inserts or overwrites a task directly, bypassing ClaimNext — for
// test fixture setup.
func (s *MemTaskStore) Put(t *cmn.MigrationTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
}

func (s *MemTaskStore) Enqueue(key, src, dst string) (*cmn.MigrationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newTask(key, src, dst)
	cp := *t
	s.tasks[t.ID] = &cp
	return t, nil
}

func (s *MemTaskStore) ClaimNext() (*cmn.MigrationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []*cmn.MigrationTask
	for _, t := range s.tasks {
		if isReady(t.Status) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortByCreatedAt(candidates)
	next := candidates[0]
	next.Phase = phaseFor(next.Status)
	next.Status = cmn.StatusRunning
	next.ClaimedAt = time.Now().UTC()
	cp := *next
	return &cp, nil
}

func (s *MemTaskStore) Update(t *cmn.MigrationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *MemTaskStore) Delete(t *cmn.MigrationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, t.ID)
	return nil
}

func (s *MemTaskStore) CountByStatus() (map[cmn.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := zeroFilledCounts()
	for _, t := range s.tasks {
		counts[t.Status]++
	}
	return counts, nil
}

func (s *MemTaskStore) ReclaimStale(after time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-after)
	n := 0
	for _, t := range s.tasks {
		if t.Status == cmn.StatusRunning && t.ClaimedAt.Before(cutoff) {
			t.Status = reclaimStatus(t.Phase)
			n++
		}
	}
	return n, nil
}

// MemFileMetaStore is an in-memory FileMetaStore for tests.
type MemFileMetaStore struct {
	mu   sync.Mutex
	rows map[string]*cmn.FileMeta
}

// NewMemFileMetaStore builds an empty MemFileMetaStore.
func NewMemFileMetaStore() *MemFileMetaStore {
	return &MemFileMetaStore{rows: make(map[string]*cmn.FileMeta)}
}

func (s *MemFileMetaStore) Get(key string) (*cmn.FileMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fm, ok := s.rows[key]
	if !ok {
		return nil, nil
	}
	cp := *fm
	return &cp, nil
}

func (s *MemFileMetaStore) SetVersionToken(key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fm, ok := s.rows[key]
	if !ok {
		fm = &cmn.FileMeta{Key: key}
		s.rows[key] = fm
	}
	fm.VersionToken = token
	return nil
}
