package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/minder/pkg/storage"
)

var (
	dataDir = flag.String("data-dir", "/var/lib/minder", "Minder data directory")
	record  = flag.String("record", "", "Record a boot at the given RFC3339 time (or \"now\")")
	prune   = flag.Duration("prune", 0, "Delete boot records older than this duration (e.g. 2160h)")
	dryRun  = flag.Bool("dry-run", false, "Show what would change without writing")
)

var bucketBootHistory = []byte("boot_history")

// bootRecord mirrors the value shape the daemon stores per boot
type bootRecord struct {
	BootTime   time.Time `json:"boot_time"`
	RecordedAt time.Time `json:"recorded_at"`
}

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags)
	log.Println("Minder Boot History Tool")
	log.Println("========================")

	switch {
	case *record != "":
		if err := recordBoot(*record); err != nil {
			log.Fatalf("Failed to record boot: %v", err)
		}
	case *prune > 0:
		if err := pruneHistory(*prune, *dryRun); err != nil {
			log.Fatalf("Failed to prune history: %v", err)
		}
	default:
		if err := listHistory(); err != nil {
			log.Fatalf("Failed to list history: %v", err)
		}
	}
}

// recordBoot appends a boot through the daemon's own store so the
// 60-second dedup window applies
func recordBoot(value string) error {
	bootTime := time.Now()
	if value != "now" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("parse %q: %w (want RFC3339 or \"now\")", value, err)
		}
		bootTime = parsed
	}

	store, err := storage.NewBoltStore(*dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RecordBoot(bootTime); err != nil {
		return err
	}

	log.Printf("✓ Boot recorded at %s", bootTime.Format(time.RFC3339))
	return nil
}

func listHistory() error {
	db, err := openExisting()
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBootHistory)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec bootRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				log.Printf("  [corrupt entry, key %x]", k)
				return nil
			}
			count++
			fmt.Printf("  %s  (recorded %s)\n",
				rec.BootTime.Format(time.RFC3339),
				rec.RecordedAt.Format(time.RFC3339))
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Printf("%d boot record(s)", count)
	return nil
}

func pruneHistory(olderThan time.Duration, dryRun bool) error {
	cutoff := time.Now().Add(-olderThan)
	log.Printf("Pruning boot records older than %s (before %s)", olderThan, cutoff.Format(time.RFC3339))
	log.Printf("Dry run: %v", dryRun)

	db, err := openExisting()
	if err != nil {
		return err
	}
	defer db.Close()

	// Keys are big-endian unix seconds; everything below the cutoff key
	// is old enough to delete
	cutoffKey := make([]byte, 8)
	binary.BigEndian.PutUint64(cutoffKey, uint64(cutoff.Unix()))

	var doomed [][]byte
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBootHistory)
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, _ := c.First(); k != nil && string(k) < string(cutoffKey); k, _ = c.Next() {
			key := make([]byte, len(k))
			copy(key, k)
			doomed = append(doomed, key)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(doomed) == 0 {
		log.Println("✓ Nothing to prune")
		return nil
	}

	if dryRun {
		log.Printf("Would delete %d record(s). Run without --dry-run to prune.", len(doomed))
		return nil
	}

	err = db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBootHistory)
		if bucket == nil {
			return nil
		}
		for _, k := range doomed {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("✓ Deleted %d record(s)", len(doomed))
	return nil
}

func openExisting() (*bolt.DB, error) {
	dbPath := filepath.Join(*dataDir, "minder.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s", dbPath)
	}
	return bolt.Open(dbPath, 0600, &bolt.Options{ReadOnly: false})
}
