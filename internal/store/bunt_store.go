package store

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"

	"github.com/artemis/object-migrate/internal/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	taskKeyPrefix     = "task:"
	filemetaKeyPrefix = "filemeta:"
)

func taskKey(id string) string     { return taskKeyPrefix + id }
func filemetaKey(key string) string { return filemetaKeyPrefix + key }

// BuntTaskStore is the production TaskStore, backed by tidwall/buntdb —
// an embedded ordered key-value store already in the teacher's direct
// dependency set, used here exactly the way spec §4.F's "atomic status
// flip to running" mutual-exclusion option describes: ClaimNext scans and
// flips a row to running inside one db.Update transaction.
type BuntTaskStore struct {
	db *buntdb.DB
}

// NewBuntTaskStore returns a BuntTaskStore over an already-open buntdb
// database.
func NewBuntTaskStore(db *buntdb.DB) *BuntTaskStore {
	return &BuntTaskStore{db: db}
}

func (s *BuntTaskStore) Enqueue(key, src, dst string) (*cmn.MigrationTask, error) {
	t := newTask(key, src, dst)
	err := s.db.Update(func(tx *buntdb.Tx) error {
		raw, err := json.MarshalToString(t)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(taskKey(t.ID), raw, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *BuntTaskStore) ClaimNext() (*cmn.MigrationTask, error) {
	var claimed *cmn.MigrationTask
	err := s.db.Update(func(tx *buntdb.Tx) error {
		var candidates []*cmn.MigrationTask
		err := tx.AscendKeys(taskKeyPrefix+"*", func(k, v string) bool {
			var t cmn.MigrationTask
			if jsonErr := json.UnmarshalFromString(v, &t); jsonErr == nil && isReady(t.Status) {
				candidates = append(candidates, &t)
			}
			return true
		})
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}
		sortByCreatedAt(candidates)
		next := candidates[0]
		next.Phase = phaseFor(next.Status)
		next.Status = cmn.StatusRunning
		next.ClaimedAt = time.Now().UTC()
		raw, err := json.MarshalToString(next)
		if err != nil {
			return err
		}
		if _, _, err := tx.Set(taskKey(next.ID), raw, nil); err != nil {
			return err
		}
		claimed = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *BuntTaskStore) Update(t *cmn.MigrationTask) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		raw, err := json.MarshalToString(t)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(taskKey(t.ID), raw, nil)
		return err
	})
}

func (s *BuntTaskStore) Delete(t *cmn.MigrationTask) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(taskKey(t.ID))
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
}

func (s *BuntTaskStore) CountByStatus() (map[cmn.Status]int, error) {
	counts := zeroFilledCounts()
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(taskKeyPrefix+"*", func(k, v string) bool {
			var t cmn.MigrationTask
			if err := json.UnmarshalFromString(v, &t); err == nil {
				counts[t.Status]++
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *BuntTaskStore) ReclaimStale(after time.Duration) (int, error) {
	n := 0
	cutoff := time.Now().UTC().Add(-after)
	err := s.db.Update(func(tx *buntdb.Tx) error {
		var stale []*cmn.MigrationTask
		err := tx.AscendKeys(taskKeyPrefix+"*", func(k, v string) bool {
			var t cmn.MigrationTask
			if jsonErr := json.UnmarshalFromString(v, &t); jsonErr == nil &&
				t.Status == cmn.StatusRunning && t.ClaimedAt.Before(cutoff) {
				stale = append(stale, &t)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, t := range stale {
			t.Status = reclaimStatus(t.Phase)
			raw, err := json.MarshalToString(t)
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(taskKey(t.ID), raw, nil); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// BuntFileMetaStore is the production FileMetaStore, sharing the same
// buntdb file as BuntTaskStore under a distinct key prefix.
type BuntFileMetaStore struct {
	db *buntdb.DB
}

// NewBuntFileMetaStore wraps db as a FileMetaStore.
func NewBuntFileMetaStore(db *buntdb.DB) *BuntFileMetaStore {
	return &BuntFileMetaStore{db: db}
}

func (s *BuntFileMetaStore) Get(key string) (*cmn.FileMeta, error) {
	var fm *cmn.FileMeta
	err := s.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(filemetaKey(key))
		if err == buntdb.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var v cmn.FileMeta
		if jsonErr := json.UnmarshalFromString(raw, &v); jsonErr != nil {
			return jsonErr
		}
		fm = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fm, nil
}

func (s *BuntFileMetaStore) SetVersionToken(key, token string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		existing, err := tx.Get(filemetaKey(key))
		fm := cmn.FileMeta{Key: key}
		if err == nil {
			_ = json.UnmarshalFromString(existing, &fm)
		} else if err != buntdb.ErrNotFound {
			return err
		}
		fm.VersionToken = token
		raw, err := json.MarshalToString(&fm)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(filemetaKey(key), raw, nil)
		return err
	})
}
