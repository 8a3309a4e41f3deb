// Package scheduler owns the engine's time-based transitions: re-locking
// targets when their grant expires, and the daily rollover at local
// midnight. Every callback re-validates persisted state before acting, so
// a stale timer firing after a newer grant is a no-op.
package scheduler

import (
	"sync"
	"time"

	"github.com/haukened/focusgate/internal/gate/common/clock"
	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/domain"
)

// GrantStore is the slice of the unlock ledger the scheduler needs.
type GrantStore interface {
	Get(identifier string) (domain.UnlockGrant, bool, error)
	Expire(identifier string) error
	Active(now time.Time) ([]domain.UnlockGrant, error)
	Clear() error
}

// Counters resets the daily blocked-attempt counter.
type Counters interface {
	ResetBlocked(day domain.DateKey) error
}

// Recomputer requests an asynchronous rule recompute.
type Recomputer interface {
	Trigger()
}

// Scheduler arms expiry callbacks and the daily rollover.
type Scheduler struct {
	grants    GrantStore
	counters  Counters
	recompute Recomputer
	timers    Timers
	clock     clock.Clock
	logger    log.Logger

	mu       sync.Mutex
	pending  map[string]func()
	rollover func()
	stopped  bool
}

// Options collects the Scheduler's collaborators.
type Options struct {
	Grants    GrantStore
	Counters  Counters
	Recompute Recomputer
	Timers    Timers
	Clock     clock.Clock
	Logger    log.Logger
}

// New constructs a Scheduler.
func New(opts Options) *Scheduler {
	return &Scheduler{
		grants:    opts.Grants,
		counters:  opts.Counters,
		recompute: opts.Recompute,
		timers:    opts.Timers,
		clock:     opts.Clock,
		logger:    opts.Logger,
		pending:   make(map[string]func()),
	}
}

// ArmExpiry ensures exactly one pending expiry callback exists for the
// grant on identifier, replacing any earlier one. The callback fires at
// expiresAt (immediately when already past).
func (s *Scheduler) ArmExpiry(identifier string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if cancel, ok := s.pending[identifier]; ok {
		cancel()
	}

	d := expiresAt.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	s.pending[identifier] = s.timers.AfterFunc(d, func() {
		s.fireExpiry(identifier)
	})
}

// fireExpiry re-validates the ledger before acting: the recorded grant may
// have been overwritten by a newer one after this timer was armed.
func (s *Scheduler) fireExpiry(identifier string) {
	s.mu.Lock()
	delete(s.pending, identifier)
	s.mu.Unlock()

	grant, found, err := s.grants.Get(identifier)
	if err != nil {
		// The compiler prunes expired grants lazily, so a failed read here
		// just delays the re-lock until the next recompute.
		s.logger.Warn(map[string]any{"identifier": identifier, "error": err}, "Expiry check failed")
		s.recompute.Trigger()
		return
	}
	if !found {
		return
	}

	now := s.clock.Now()
	if grant.Active(now) {
		// A newer grant superseded the one this timer was armed for.
		s.ArmExpiry(identifier, grant.ExpiryTime())
		return
	}

	if err := s.grants.Expire(identifier); err != nil {
		s.logger.Warn(map[string]any{"identifier": identifier, "error": err}, "Grant expiry write failed")
	}
	s.recompute.Trigger()
	s.logger.Info(map[string]any{"identifier": identifier}, "Temporary unlock expired, re-locking")
}

// Restore re-establishes scheduler state after a process restart: grants
// whose expiry already passed are dropped immediately, timers are re-armed
// for the rest, and a recompute is triggered either way. Idempotent.
func (s *Scheduler) Restore() error {
	active, err := s.grants.Active(s.clock.Now())
	if err != nil {
		return err
	}
	for _, grant := range active {
		s.ArmExpiry(grant.Identifier, grant.ExpiryTime())
	}
	s.recompute.Trigger()
	s.logger.Info(map[string]any{"grants": len(active)}, "Expiry timers restored")
	return nil
}

// StartRollover schedules the daily rollover for the next local midnight;
// each firing schedules the one after.
func (s *Scheduler) StartRollover() {
	s.scheduleRollover()
}

func (s *Scheduler) scheduleRollover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	now := s.clock.Now()
	next := nextMidnight(now)
	s.rollover = s.timers.AfterFunc(next.Sub(now), s.fireRollover)
}

func (s *Scheduler) fireRollover() {
	now := s.clock.Now()
	day := domain.DateKeyFor(now)

	if err := s.counters.ResetBlocked(day); err != nil {
		s.logger.Warn(map[string]any{"day": day, "error": err}, "Counter reset failed")
	}
	if err := s.grants.Clear(); err != nil {
		s.logger.Warn(map[string]any{"error": err}, "Grant clear failed at rollover")
	}

	// Pending expiry timers now point at cleared grants; they re-validate
	// on fire, but there is no reason to keep them.
	s.mu.Lock()
	for identifier, cancel := range s.pending {
		cancel()
		delete(s.pending, identifier)
	}
	s.mu.Unlock()

	s.recompute.Trigger()
	s.logger.Info(map[string]any{"day": day}, "Daily rollover completed")

	s.scheduleRollover()
}

// Stop cancels every pending callback.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for identifier, cancel := range s.pending {
		cancel()
		delete(s.pending, identifier)
	}
	if s.rollover != nil {
		s.rollover()
		s.rollover = nil
	}
}

// nextMidnight returns the first local midnight strictly after now.
func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
