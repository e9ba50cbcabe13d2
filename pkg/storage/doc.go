/*
Package storage persists Minder's boot history using BoltDB.

The daemon records the machine's boot time once at startup. The accumulated
history feeds the seven-day uptime percentage reported by get_system_info. BoltDB
gives the history crash-safe, transactional persistence in a single file
with no external process.

# Architecture

	┌──────────────────── BOOT HISTORY STORE ───────────────────┐
	│                                                             │
	│  ┌────────────────────────────────────────────┐            │
	│  │              Store Interface                │            │
	│  │  RecordBoot / BootTimes / Close             │            │
	│  └──────────────────┬─────────────────────────┘            │
	│                     │                                       │
	│  ┌──────────────────▼─────────────────────────┐            │
	│  │              BoltStore                      │            │
	│  │  - Single file: <data_dir>/minder.db        │            │
	│  │  - Bucket: boot_history                     │            │
	│  │  - Key: big-endian unix seconds             │            │
	│  │  - Value: JSON {boot_time, recorded_at}     │            │
	│  └──────────────────┬─────────────────────────┘            │
	│                     │                                       │
	│  ┌──────────────────▼─────────────────────────┐            │
	│  │              BoltDB (bbolt)                 │            │
	│  │  - ACID transactions                        │            │
	│  │  - Key order = chronological order          │            │
	│  └────────────────────────────────────────────┘            │
	└───────────────────────────────────────────────────────────┘

# Core Components

Store Interface:
  - RecordBoot(bootTime): append a boot event
  - BootTimes(): all recorded boots, oldest first
  - Close(): release the database file

Deduplication:
  - Boots within 60 seconds of a recorded boot are skipped
  - Every daemon restart re-reads the same kernel boot time, so
    restart-without-reboot must not grow the history

Key Encoding:
  - Keys are 8-byte big-endian unix seconds
  - BoltDB iterates keys in byte order, which for this encoding is
    chronological order, so listing needs no sort

# Usage

Opening and recording at daemon startup:

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RecordBoot(bootTime); err != nil {
		return err
	}

Reading for the uptime calculation:

	boots, err := store.BootTimes()
	for _, b := range boots {
		...
	}

# Integration Points

  - cmd/minder: Opens the store and records the current boot
  - pkg/sysinfo: Reads boot history for the uptime percentage
  - pkg/config: DataDir locates the database file

# Performance Characteristics

  - RecordBoot: one read-scan plus one write transaction; the history is
    tiny (one entry per reboot), so the scan is negligible
  - BootTimes: single read transaction, O(n) over recorded boots
  - Database file: kilobytes for years of reboots

# Troubleshooting

Database locked:
  - Symptom: NewBoltStore hangs or times out
  - Cause: Another minder process has the file open
  - Solution: BoltDB allows a single writer process; stop the other one

Permission denied:
  - Symptom: "failed to create data directory" or open error
  - Cause: Daemon user cannot write to data_dir
  - Solution: Create the directory with ownership for the daemon user

# See Also

  - BoltDB: https://github.com/etcd-io/bbolt
*/
package storage
