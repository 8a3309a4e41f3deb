package compiler

import (
	"time"

	"github.com/haukened/focusgate/internal/gate/domain"
)

// TargetSource supplies enabled targets in creation order.
type TargetSource interface {
	EnabledTargets() ([]domain.BlockTarget, error)
}

// GrantSource supplies the grants still active at now. Implementations may
// lazily drop entries that have already expired.
type GrantSource interface {
	Active(now time.Time) ([]domain.UnlockGrant, error)
}

// RulePusher is the platform blocking primitive. ReplaceRules must apply
// the new rule set atomically; RuleIDs reports the currently applied IDs
// for use as the removal set of the next replace.
type RulePusher interface {
	ReplaceRules(removeIDs []int, add []domain.CompiledRule) error
	RuleIDs() []int
}
