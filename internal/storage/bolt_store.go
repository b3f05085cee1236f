package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

const dedupBucket = "dedup"

// boltStore implements Store backed by BoltDB. Bolt's single-writer update
// transactions make Reserve an atomic check-and-set, so concurrent workers
// racing on one fingerprint get exactly one winner.
type boltStore struct {
	db           *bolt.DB
	retryCeiling int
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(dedupBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{
		db:           db,
		retryCeiling: opts.RetryCeiling,
	}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Lookup returns the record for fingerprint, if any.
func (b *boltStore) Lookup(fingerprint string) (domain.DedupRecord, bool, error) {
	var (
		rec   domain.DedupRecord
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dedupBucket))
		if bucket == nil {
			return fmt.Errorf("dedup bucket missing")
		}
		value := bucket.Get([]byte(fingerprint))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode record %s: %w", fingerprint, err)
		}
		found = true
		return nil
	})
	return rec, found, err
}

// Reserve atomically claims the fingerprint for one publish attempt.
func (b *boltStore) Reserve(fingerprint string) (ReserveOutcome, error) {
	outcome := Reserved
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dedupBucket))
		if bucket == nil {
			return fmt.Errorf("dedup bucket missing")
		}

		key := []byte(fingerprint)
		value := bucket.Get(key)
		if value == nil {
			rec := domain.DedupRecord{
				Fingerprint: fingerprint,
				State:       domain.StatePending,
				LastUpdated: time.Now().UTC(),
			}
			outcome = Reserved
			return putRecord(bucket, key, rec)
		}

		var rec domain.DedupRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode record %s: %w", fingerprint, err)
		}

		switch rec.State {
		case domain.StatePublished:
			outcome = DuplicatePublished
			return nil
		case domain.StatePending:
			outcome = DuplicatePending
			return nil
		case domain.StateFailed:
			if rec.AttemptCount >= b.retryCeiling {
				outcome = Exhausted
				return nil
			}
			rec.State = domain.StatePending
			rec.LastUpdated = time.Now().UTC()
			outcome = Reserved
			return putRecord(bucket, key, rec)
		default:
			return fmt.Errorf("record %s has unknown state %q", fingerprint, rec.State)
		}
	})
	if err != nil {
		return Reserved, err
	}
	return outcome, nil
}

// Commit resolves a pending claim to published or failed. A record already
// published stays published regardless of the reported outcome.
func (b *boltStore) Commit(fingerprint string, oc Outcome) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dedupBucket))
		if bucket == nil {
			return fmt.Errorf("dedup bucket missing")
		}

		key := []byte(fingerprint)
		value := bucket.Get(key)
		if value == nil {
			return fmt.Errorf("commit for unreserved fingerprint %s", fingerprint)
		}

		var rec domain.DedupRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode record %s: %w", fingerprint, err)
		}
		if rec.State == domain.StatePublished {
			return nil
		}

		if oc.Published {
			rec.State = domain.StatePublished
			rec.RemoteID = oc.RemoteID
		} else {
			rec.State = domain.StateFailed
			rec.AttemptCount++
		}
		rec.LastUpdated = time.Now().UTC()
		return putRecord(bucket, key, rec)
	})
}

// RecoverStale demotes pending records left behind by a crash. Called once
// at startup, before any run holds claims.
func (b *boltStore) RecoverStale() (int, error) {
	recovered := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(dedupBucket))
		if bucket == nil {
			return fmt.Errorf("dedup bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var rec domain.DedupRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %s: %w", string(k), err)
			}
			if rec.State != domain.StatePending {
				continue
			}
			rec.State = domain.StateFailed
			rec.AttemptCount++
			rec.LastUpdated = time.Now().UTC()

			encoded, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", string(k), err)
			}
			if err := bucket.Put(k, encoded); err != nil {
				return err
			}
			recovered++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return recovered, nil
}

func putRecord(bucket *bolt.Bucket, key []byte, rec domain.DedupRecord) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.Fingerprint, err)
	}
	return bucket.Put(key, encoded)
}
