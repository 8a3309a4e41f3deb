package engine

import (
	"time"

	"github.com/haukened/focusgate/internal/gate/domain"
	"github.com/haukened/focusgate/internal/gate/services/arbiter"
)

// TargetStore is the slice of the target registry the engine drives.
type TargetStore interface {
	Add(identifier string, mode domain.Mode, waitSeconds int, kind domain.ChallengeKind, approverContact string) (domain.BlockTarget, error)
	Toggle(id string) (domain.BlockTarget, error)
	Update(id string, mode domain.Mode, waitSeconds int, kind domain.ChallengeKind, approverContact string) (domain.BlockTarget, error)
	Remove(id string) (domain.BlockTarget, error)
	All() ([]domain.BlockTarget, error)
}

// GrantLedger is the slice of the unlock ledger the engine drives.
type GrantLedger interface {
	Grant(identifier string, durationSeconds int, now time.Time) (domain.UnlockGrant, error)
	Expire(identifier string) error
	Active(now time.Time) ([]domain.UnlockGrant, error)
}

// UsageStore reads and bumps daily telemetry.
type UsageStore interface {
	Day(day domain.DateKey) ([]domain.DailyUsage, error)
	IncrementBlocked(day domain.DateKey) (int, error)
	BlockedCount(day domain.DateKey) (domain.BlockingCounter, error)
}

// Sessions runs the unlock protocol state machines.
type Sessions interface {
	Describe(identifier string) (domain.RedirectDescriptor, error)
	Start(identifier string) (arbiter.SessionView, error)
	Tick(sessionID string) (arbiter.SessionView, error)
	Submit(sessionID, answer string) (arbiter.SessionView, bool, error)
	Complete(sessionID string) (domain.UnlockGrant, error)
}

// Foreground receives foreground-context transitions.
type Foreground interface {
	OnForegroundChange(raw string, now time.Time)
}

// Relocker arms the automatic re-lock for a grant.
type Relocker interface {
	ArmExpiry(identifier string, expiresAt time.Time)
}

// Recomputer requests an asynchronous rule recompute.
type Recomputer interface {
	Trigger()
}

// RuleMatcher answers whether a normalized host is currently blocked.
type RuleMatcher interface {
	Match(host string) (domain.CompiledRule, bool)
}
