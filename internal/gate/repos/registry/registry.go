// Package registry is the bbolt-backed Target Registry: the set of block
// targets and their per-target unlock policy. Targets are keyed by their
// creation sequence number so iteration order is creation order, which
// keeps downstream rule ID assignment deterministic.
package registry

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/focusgate/internal/gate/common/utils"
	"github.com/haukened/focusgate/internal/gate/domain"
	"github.com/haukened/focusgate/internal/gate/repos/statedb"
)

// Registry provides synchronous access to the target set. Callers must
// follow mutations with a rule recompute before enforcement reflects them.
type Registry struct {
	db *bbolt.DB
}

// New returns a Registry backed by the shared state database.
func New(db *bbolt.DB) *Registry {
	return &Registry{db: db}
}

// Add normalizes the identifier, rejects duplicates among enabled targets,
// and stores a new enabled target with the given mode and parameters.
func (r *Registry) Add(identifier string, mode domain.Mode, waitSeconds int, kind domain.ChallengeKind, approverContact string) (domain.BlockTarget, error) {
	normalized, err := utils.NormalizeIdentifier(identifier)
	if err != nil {
		return domain.BlockTarget{}, err
	}

	var target domain.BlockTarget
	err = r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(statedb.BucketTargets)

		dup, err := enabledIdentifierExists(b, normalized, nil)
		if err != nil {
			return err
		}
		if dup {
			return domain.ErrDuplicateTarget
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		target, err = domain.NewBlockTarget(strconv.FormatUint(seq, 10), normalized, mode, waitSeconds, kind, approverContact)
		if err != nil {
			return err
		}
		return putTarget(b, seq, target)
	})
	if err != nil {
		return domain.BlockTarget{}, err
	}
	return target, nil
}

// Toggle flips the enabled flag of the target with the given ID. Enabling a
// target whose identifier is already enabled elsewhere fails the same way
// Add does, keeping identifiers unique across enabled targets.
func (r *Registry) Toggle(id string) (domain.BlockTarget, error) {
	var target domain.BlockTarget
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(statedb.BucketTargets)
		key, t, err := getTarget(b, id)
		if err != nil {
			return err
		}
		if !t.Enabled {
			dup, err := enabledIdentifierExists(b, t.Identifier, key)
			if err != nil {
				return err
			}
			if dup {
				return domain.ErrDuplicateTarget
			}
		}
		t.Enabled = !t.Enabled
		target = t
		return b.Put(key, mustMarshal(t))
	})
	if err != nil {
		return domain.BlockTarget{}, err
	}
	return target, nil
}

// Update replaces the target's mode and mode parameters in one step so a
// partial mode/param mismatch is never stored.
func (r *Registry) Update(id string, mode domain.Mode, waitSeconds int, kind domain.ChallengeKind, approverContact string) (domain.BlockTarget, error) {
	var target domain.BlockTarget
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(statedb.BucketTargets)
		key, t, err := getTarget(b, id)
		if err != nil {
			return err
		}
		next, err := domain.NewBlockTarget(t.ID, t.Identifier, mode, waitSeconds, kind, approverContact)
		if err != nil {
			return err
		}
		next.Enabled = t.Enabled
		target = next
		return b.Put(key, mustMarshal(next))
	})
	if err != nil {
		return domain.BlockTarget{}, err
	}
	return target, nil
}

// Remove deletes the target. Callers must also purge any unlock grant for
// its identifier and trigger a recompute.
func (r *Registry) Remove(id string) (domain.BlockTarget, error) {
	var target domain.BlockTarget
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(statedb.BucketTargets)
		key, t, err := getTarget(b, id)
		if err != nil {
			return err
		}
		target = t
		return b.Delete(key)
	})
	if err != nil {
		return domain.BlockTarget{}, err
	}
	return target, nil
}

// All returns every target in creation order.
func (r *Registry) All() ([]domain.BlockTarget, error) {
	var targets []domain.BlockTarget
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(statedb.BucketTargets).ForEach(func(_, v []byte) error {
			var t domain.BlockTarget
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			targets = append(targets, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

// EnabledTargets returns enabled targets in creation order.
func (r *Registry) EnabledTargets() ([]domain.BlockTarget, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, t := range all {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled, nil
}

// FindEnabled returns the enabled target for a normalized identifier, or
// ErrUnknownTarget when no enabled target matches.
func (r *Registry) FindEnabled(identifier string) (domain.BlockTarget, error) {
	targets, err := r.EnabledTargets()
	if err != nil {
		return domain.BlockTarget{}, err
	}
	for _, t := range targets {
		if t.Identifier == identifier {
			return t, nil
		}
	}
	return domain.BlockTarget{}, domain.ErrUnknownTarget
}

func keyForID(id string) ([]byte, error) {
	seq, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed target id %q: %w", id, err)
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key, nil
}

func getTarget(b *bbolt.Bucket, id string) ([]byte, domain.BlockTarget, error) {
	key, err := keyForID(id)
	if err != nil {
		return nil, domain.BlockTarget{}, err
	}
	v := b.Get(key)
	if v == nil {
		return nil, domain.BlockTarget{}, fmt.Errorf("no target with id %q", id)
	}
	var t domain.BlockTarget
	if err := json.Unmarshal(v, &t); err != nil {
		return nil, domain.BlockTarget{}, err
	}
	return key, t, nil
}

func putTarget(b *bbolt.Bucket, seq uint64, t domain.BlockTarget) error {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return b.Put(key, mustMarshal(t))
}

// enabledIdentifierExists reports whether any enabled target other than the
// one at skipKey carries the identifier.
func enabledIdentifierExists(b *bbolt.Bucket, identifier string, skipKey []byte) (bool, error) {
	var found bool
	err := b.ForEach(func(k, v []byte) error {
		if skipKey != nil && string(k) == string(skipKey) {
			return nil
		}
		var t domain.BlockTarget
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		if t.Enabled && t.Identifier == identifier {
			found = true
		}
		return nil
	})
	return found, err
}

func mustMarshal(t domain.BlockTarget) []byte {
	buf, err := json.Marshal(t)
	if err != nil {
		// BlockTarget contains only marshalable fields.
		panic(err)
	}
	return buf
}
