// Package statedb owns the shared bbolt database backing all mutable engine
// state. Each repository works inside its own bucket; bbolt transactions
// provide the serialized read-modify-write discipline the engine requires.
package statedb

import (
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	// BucketTargets holds block targets keyed by creation sequence.
	BucketTargets = []byte("targets")
	// BucketGrants holds unlock grants keyed by identifier.
	BucketGrants = []byte("grants")
	// BucketUsage holds daily dwell seconds keyed by dateKey/identifier.
	BucketUsage = []byte("usage")
	// BucketCounters holds daily blocked-attempt counts keyed by dateKey.
	BucketCounters = []byte("counters")
)

// Open opens (or creates) the state database at path and ensures all
// engine buckets exist.
func Open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{BucketTargets, BucketGrants, BucketUsage, BucketCounters} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
