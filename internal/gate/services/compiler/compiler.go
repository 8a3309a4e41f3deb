// Package compiler derives the enforceable rule set from the target
// registry and the unlock ledger, and is the sole writer of the platform's
// enforced rules. Recomputes are serialized through a single worker;
// rapid repeated triggers coalesce, and the final applied state always
// matches the final input state.
package compiler

import (
	"context"
	"time"

	"github.com/haukened/focusgate/internal/gate/common/clock"
	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/domain"
)

// Compiler recomputes and pushes the enforced rule set.
type Compiler struct {
	targets TargetSource
	grants  GrantSource
	pusher  RulePusher
	clock   clock.Clock
	logger  log.Logger
	backoff time.Duration

	trigger chan struct{}
}

// Options collects the Compiler's collaborators.
type Options struct {
	Targets TargetSource
	Grants  GrantSource
	Pusher  RulePusher
	Clock   clock.Clock
	Logger  log.Logger
	// Backoff is the delay before retrying a failed rule push.
	Backoff time.Duration
}

// New constructs a Compiler.
func New(opts Options) *Compiler {
	return &Compiler{
		targets: opts.Targets,
		grants:  opts.Grants,
		pusher:  opts.Pusher,
		clock:   opts.Clock,
		logger:  opts.Logger,
		backoff: opts.Backoff,
		trigger: make(chan struct{}, 1),
	}
}

// Compile is the pure derivation: one rule per enabled target not covered
// by an active grant, with dense 1-based rule IDs in registry order. Given
// the same inputs it always produces the same rule set.
func Compile(targets []domain.BlockTarget, activeGrants []domain.UnlockGrant) []domain.CompiledRule {
	unlocked := make(map[string]struct{}, len(activeGrants))
	for _, g := range activeGrants {
		unlocked[g.Identifier] = struct{}{}
	}

	var rules []domain.CompiledRule
	ruleID := 1
	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		if _, ok := unlocked[t.Identifier]; ok {
			continue
		}
		rules = append(rules, domain.CompiledRule{
			RuleID:     ruleID,
			Identifier: t.Identifier,
			Redirect:   t.Redirect(),
		})
		ruleID++
	}
	return rules
}

// Recompute reads the full registry and ledger state and replaces the
// enforced rule set in one atomic push. Safe to call repeatedly; two calls
// with no intervening state change produce identical rule sets.
func (c *Compiler) Recompute() error {
	now := c.clock.Now()

	targets, err := c.targets.EnabledTargets()
	if err != nil {
		return err
	}
	grants, err := c.grants.Active(now)
	if err != nil {
		return err
	}

	rules := Compile(targets, grants)
	if err := c.pusher.ReplaceRules(c.pusher.RuleIDs(), rules); err != nil {
		return err
	}

	c.logger.Debug(map[string]any{
		"targets": len(targets),
		"grants":  len(grants),
		"rules":   len(rules),
	}, "Rule set recomputed")
	return nil
}

// Trigger requests an asynchronous recompute. Non-blocking; bursts of
// triggers coalesce into one pending recompute.
func (c *Compiler) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run owns the recompute worker until ctx is cancelled. A failed push is
// retried after the configured backoff until it succeeds or a newer
// trigger supersedes it.
func (c *Compiler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.trigger:
			if err := c.Recompute(); err != nil {
				c.logger.Error(map[string]any{"error": err}, "Rule recompute failed, scheduling retry")
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.backoff):
					c.Trigger()
				}
			}
		}
	}
}
