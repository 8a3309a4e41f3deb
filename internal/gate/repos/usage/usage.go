// Package usage is the bbolt-backed store for daily telemetry: foreground
// dwell seconds per identifier and the blocked-attempt counter, both keyed
// by local calendar day. Values only accumulate; buckets roll over by
// moving to a new date key.
package usage

import (
	"bytes"
	"encoding/binary"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/focusgate/internal/gate/domain"
	"github.com/haukened/focusgate/internal/gate/repos/statedb"
)

// Store provides serialized access to daily usage and counters.
type Store struct {
	db *bbolt.DB
}

// New returns a Store backed by the shared state database.
func New(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// AddSeconds accumulates dwell seconds for identifier on the given day.
func (s *Store) AddSeconds(day domain.DateKey, identifier string, seconds int) error {
	if seconds <= 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(statedb.BucketUsage)
		key := usageKey(day, identifier)
		total := decodeInt(b.Get(key)) + int64(seconds)
		return b.Put(key, encodeInt(total))
	})
}

// Day returns the accumulated dwell records for the given day, ordered by
// identifier.
func (s *Store) Day(day domain.DateKey) ([]domain.DailyUsage, error) {
	var out []domain.DailyUsage
	prefix := usageKey(day, "")
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(statedb.BucketUsage).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			out = append(out, domain.DailyUsage{
				DateKey:      day,
				Identifier:   string(k[len(prefix):]),
				SecondsSpent: int(decodeInt(v)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IncrementBlocked bumps the blocked-attempt counter for the given day and
// returns the new count.
func (s *Store) IncrementBlocked(day domain.DateKey) (int, error) {
	var count int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(statedb.BucketCounters)
		count = decodeInt(b.Get([]byte(day))) + 1
		return b.Put([]byte(day), encodeInt(count))
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// BlockedCount returns the blocked-attempt counter for the given day.
func (s *Store) BlockedCount(day domain.DateKey) (domain.BlockingCounter, error) {
	var count int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = decodeInt(tx.Bucket(statedb.BucketCounters).Get([]byte(day)))
		return nil
	})
	if err != nil {
		return domain.BlockingCounter{}, err
	}
	return domain.BlockingCounter{DateKey: day, CountBlocked: int(count)}, nil
}

// ResetBlocked zeroes the blocked-attempt counter for the given day.
// Called by the midnight rollover.
func (s *Store) ResetBlocked(day domain.DateKey) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(statedb.BucketCounters).Delete([]byte(day))
	})
}

func usageKey(day domain.DateKey, identifier string) []byte {
	return []byte(string(day) + "/" + identifier)
}

func encodeInt(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

func decodeInt(v []byte) int64 {
	if len(v) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}
