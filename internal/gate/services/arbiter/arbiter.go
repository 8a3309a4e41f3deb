// Package arbiter decides which unlock protocol governs an intercepted
// target and runs the per-interception session state machines. Sessions
// live in a bounded LRU table; abandoned sessions are evicted without any
// effect on the ledger.
package arbiter

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/focusgate/internal/gate/common/clock"
	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/domain"
)

// Arbiter validates unlock protocol completion and writes grants.
type Arbiter struct {
	lookup       TargetLookup
	granter      Granter
	relocker     Relocker
	recompute    Recomputer
	clock        clock.Clock
	logger       log.Logger
	graceSeconds int

	mu       sync.Mutex
	sessions *lru.Cache[string, *session]
}

// Options collects the Arbiter's collaborators.
type Options struct {
	Lookup    TargetLookup
	Granter   Granter
	Relocker  Relocker
	Recompute Recomputer
	Clock     clock.Clock
	Logger    log.Logger
	// GraceSeconds is the fixed policy constant for how long a successful
	// unlock keeps the target passable.
	GraceSeconds int
	// SessionCacheSize bounds the session table.
	SessionCacheSize int
}

// New constructs an Arbiter.
func New(opts Options) (*Arbiter, error) {
	sessions, err := lru.New[string, *session](opts.SessionCacheSize)
	if err != nil {
		return nil, err
	}
	return &Arbiter{
		lookup:       opts.Lookup,
		granter:      opts.Granter,
		relocker:     opts.Relocker,
		recompute:    opts.Recompute,
		clock:        opts.Clock,
		logger:       opts.Logger,
		graceSeconds: opts.GraceSeconds,
		sessions:     sessions,
	}, nil
}

// Describe returns the protocol descriptor for an intercepted identifier,
// or ErrUnknownTarget when no enabled target matches. Callers treat the
// latter as allow-and-log, never as a hard failure.
func (a *Arbiter) Describe(identifier string) (domain.RedirectDescriptor, error) {
	target, err := a.lookup.FindEnabled(identifier)
	if err != nil {
		return domain.RedirectDescriptor{}, err
	}
	return target.Redirect(), nil
}

// Start opens a fresh session for an intercepted identifier: a new timer,
// challenge instance, or approver code, regardless of any earlier
// abandoned session for the same identifier.
func (a *Arbiter) Start(identifier string) (SessionView, error) {
	target, err := a.lookup.FindEnabled(identifier)
	if err != nil {
		return SessionView{}, err
	}

	s := newSession(target)
	a.mu.Lock()
	a.sessions.Add(s.id, s)
	a.mu.Unlock()

	a.logger.Debug(map[string]any{
		"session":    s.id,
		"identifier": target.Identifier,
		"mode":       target.Mode.String(),
	}, "Unlock session started")
	return s.view(), nil
}

// Tick advances a timer session by one second.
func (a *Arbiter) Tick(sessionID string) (SessionView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrUnknownSession
	}
	s.tick()
	return s.view(), nil
}

// Submit verifies a challenge answer or approver code. The returned bool
// reports whether the submission was accepted.
func (a *Arbiter) Submit(sessionID, answer string) (SessionView, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, false, domain.ErrUnknownSession
	}
	solved := s.submit(answer)
	return s.view(), solved, nil
}

// Complete finishes a session that reached a terminal state: it writes
// exactly one grace-period grant, arms the re-lock, triggers a recompute,
// and discards the session. Completing a non-terminal session fails with
// ErrSessionNotReady.
func (a *Arbiter) Complete(sessionID string) (domain.UnlockGrant, error) {
	a.mu.Lock()
	s, ok := a.sessions.Get(sessionID)
	if ok && s.state.terminal() {
		a.sessions.Remove(sessionID)
	}
	a.mu.Unlock()

	if !ok {
		return domain.UnlockGrant{}, domain.ErrUnknownSession
	}
	if !s.state.terminal() {
		return domain.UnlockGrant{}, domain.ErrSessionNotReady
	}

	grant, err := a.granter.Grant(s.target.Identifier, a.graceSeconds, a.clock.Now())
	if err != nil {
		return domain.UnlockGrant{}, err
	}
	a.relocker.ArmExpiry(grant.Identifier, grant.ExpiryTime())
	a.recompute.Trigger()

	a.logger.Info(map[string]any{
		"identifier": grant.Identifier,
		"expires_at": grant.ExpiresAt,
		"mode":       s.target.Mode.String(),
	}, "Target temporarily unlocked")
	return grant, nil
}
