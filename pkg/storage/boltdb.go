package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketBootHistory = []byte("boot_history")

// dedupWindow is how close two boot timestamps may be before they are
// considered the same boot. A daemon restart reads the same kernel boot
// time, give or take clock adjustment.
const dedupWindow = 60 * time.Second

// bootRecord is the JSON value stored per boot.
type bootRecord struct {
	BootTime   time.Time `json:"boot_time"`
	RecordedAt time.Time `json:"recorded_at"`
}

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the boot history database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "minder.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBootHistory); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketBootHistory, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// RecordBoot stores bootTime unless a boot within dedupWindow of it is
// already recorded, so daemon restarts between reboots do not create
// duplicate entries.
func (s *BoltStore) RecordBoot(bootTime time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBootHistory)

		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			recorded := time.Unix(int64(binary.BigEndian.Uint64(k)), 0)
			delta := bootTime.Sub(recorded)
			if delta < 0 {
				delta = -delta
			}
			if delta < dedupWindow {
				return nil
			}
		}

		rec := bootRecord{
			BootTime:   bootTime.UTC(),
			RecordedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(bootKey(bootTime), data)
	})
}

// BootTimes returns every recorded boot, oldest first. Keys are big-endian
// unix seconds, so bucket order is chronological order.
func (s *BoltStore) BootTimes() ([]time.Time, error) {
	var times []time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBootHistory)
		return b.ForEach(func(k, v []byte) error {
			var rec bootRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			times = append(times, rec.BootTime)
			return nil
		})
	})
	return times, err
}

func bootKey(t time.Time) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(t.Unix()))
	return k
}
