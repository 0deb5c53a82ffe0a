package policy

import (
	"strconv"
	"strings"

	"github.com/tidwall/buntdb"
)

const settingsKeyPrefix = "setting:"

// buntSettingsStore persists settings in the same buntdb file the Task
// Store uses, so the whole daemon state lives in one embedded database
// (spec §4.F grounds the choice of tidwall/buntdb; this reuses it here).
type buntSettingsStore struct {
	db *buntdb.DB
}

// NewBuntSettingsStore wraps an already-open buntdb.DB as a SettingsStore.
func NewBuntSettingsStore(db *buntdb.DB) SettingsStore {
	return &buntSettingsStore{db: db}
}

func (b *buntSettingsStore) GetList(key string) []string {
	var raw string
	_ = b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(settingsKeyPrefix + key)
		if err == nil {
			raw = v
		}
		return nil
	})
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (b *buntSettingsStore) GetInt(key string) int {
	var raw string
	_ = b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(settingsKeyPrefix + key)
		if err == nil {
			raw = v
		}
		return nil
	})
	n, _ := strconv.Atoi(raw)
	return n
}

func (b *buntSettingsStore) SetSetting(key, value string) string {
	_ = b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(settingsKeyPrefix+key, value, nil)
		return err
	})
	return value
}

// NewBuntGate returns a Gate whose settings persist in db.
func NewBuntGate(db *buntdb.DB) Gate {
	return newGate(NewBuntSettingsStore(db))
}
