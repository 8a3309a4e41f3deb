// Package ledger is the bbolt-backed Unlock Ledger: the source of truth for
// which identifiers are temporarily passable and until when. Grants are
// last-write-wins; entries are removed on expiry, either eagerly by the
// scheduler or lazily when the rule compiler reads the active set.
package ledger

import (
	"encoding/json"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/focusgate/internal/gate/domain"
	"github.com/haukened/focusgate/internal/gate/repos/statedb"
)

// Ledger provides serialized access to unlock grants.
type Ledger struct {
	db *bbolt.DB
}

// New returns a Ledger backed by the shared state database.
func New(db *bbolt.DB) *Ledger {
	return &Ledger{db: db}
}

// Grant records a temporary unlock for identifier expiring durationSeconds
// after now, overwriting any existing grant (no stacking). Returns
// ErrInvalidDuration when durationSeconds is not positive.
func (l *Ledger) Grant(identifier string, durationSeconds int, now time.Time) (domain.UnlockGrant, error) {
	grant, err := domain.NewUnlockGrant(identifier, durationSeconds, now)
	if err != nil {
		return domain.UnlockGrant{}, err
	}
	err = l.db.Update(func(tx *bbolt.Tx) error {
		buf, err := json.Marshal(grant)
		if err != nil {
			return err
		}
		return tx.Bucket(statedb.BucketGrants).Put([]byte(identifier), buf)
	})
	if err != nil {
		return domain.UnlockGrant{}, err
	}
	return grant, nil
}

// Get returns the recorded grant for identifier, expired or not.
func (l *Ledger) Get(identifier string) (domain.UnlockGrant, bool, error) {
	var grant domain.UnlockGrant
	var found bool
	err := l.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(statedb.BucketGrants).Get([]byte(identifier))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &grant); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return domain.UnlockGrant{}, false, err
	}
	return grant, found, nil
}

// IsActive reports whether an unexpired grant covers identifier at now.
func (l *Ledger) IsActive(identifier string, now time.Time) (bool, error) {
	grant, found, err := l.Get(identifier)
	if err != nil || !found {
		return false, err
	}
	return grant.Active(now), nil
}

// Expire removes the grant for identifier. Removing a missing grant is a
// no-op, which makes stale expiry timers harmless.
func (l *Ledger) Expire(identifier string) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(statedb.BucketGrants).Delete([]byte(identifier))
	})
}

// Active returns all grants still active at now and lazily deletes the
// ones that have already expired.
func (l *Ledger) Active(now time.Time) ([]domain.UnlockGrant, error) {
	var active []domain.UnlockGrant
	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(statedb.BucketGrants)

		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var grant domain.UnlockGrant
			if err := json.Unmarshal(v, &grant); err != nil {
				return err
			}
			if grant.Active(now) {
				active = append(active, grant)
				return nil
			}
			key := make([]byte, len(k))
			copy(key, k)
			stale = append(stale, key)
			return nil
		}); err != nil {
			return err
		}

		for _, key := range stale {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

// Clear removes every grant. Used by the daily rollover: temporary unlocks
// do not survive a day boundary.
func (l *Ledger) Clear() error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket(statedb.BucketGrants).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}
