package arbiter

import (
	"time"

	"github.com/haukened/focusgate/internal/gate/domain"
)

// TargetLookup resolves a normalized identifier to its enabled target.
type TargetLookup interface {
	FindEnabled(identifier string) (domain.BlockTarget, error)
}

// Granter records a temporary unlock in the ledger.
type Granter interface {
	Grant(identifier string, durationSeconds int, now time.Time) (domain.UnlockGrant, error)
}

// Relocker arms the automatic re-lock for a freshly written grant.
type Relocker interface {
	ArmExpiry(identifier string, expiresAt time.Time)
}

// Recomputer requests an asynchronous rule recompute.
type Recomputer interface {
	Trigger()
}
