package storage

import "time"

// Store is the interface for boot history persistence.
// Implemented by BoltDB-backed storage.
type Store interface {
	// RecordBoot stores a boot timestamp, skipping duplicates that fall
	// within a minute of an already-recorded boot.
	RecordBoot(bootTime time.Time) error

	// BootTimes returns every recorded boot, oldest first.
	BootTimes() ([]time.Time, error)

	// Close releases the underlying database.
	Close() error
}
