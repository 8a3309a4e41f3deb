// Package engine is the command surface over the blocking engine. It owns
// no state of its own: every command funnels into the registry, ledger,
// usage store, arbiter, or tracker, and every mutation is followed by an
// asynchronous rule recompute. Callers must not assume enforcement is
// instantaneous.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haukened/focusgate/internal/gate/common/clock"
	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/common/utils"
	"github.com/haukened/focusgate/internal/gate/domain"
	"github.com/haukened/focusgate/internal/gate/services/arbiter"
)

// Snapshot is the full engine state returned by GetState.
type Snapshot struct {
	Day     domain.DateKey         `json:"day"`
	Targets []domain.BlockTarget   `json:"targets"`
	Usage   []domain.DailyUsage    `json:"usage"`
	Grants  []domain.UnlockGrant   `json:"grants"`
	Blocked domain.BlockingCounter `json:"blocked"`
}

// TargetList is returned by target mutations that report the updated set.
type TargetList struct {
	Targets []domain.BlockTarget `json:"targets"`
}

// Ack is the empty acknowledgement payload.
type Ack struct{}

// CounterValue reports the blocked-attempt counter after an increment.
type CounterValue struct {
	CountBlocked int `json:"count_blocked"`
}

// Verdict answers a CheckBlocked command. Rule is nil when not blocked.
type Verdict struct {
	Blocked bool                 `json:"blocked"`
	Rule    *domain.CompiledRule `json:"rule,omitempty"`
}

// SessionResult answers session commands. Allowed is set when the
// interception had no matching enabled target and the caller should
// fail open.
type SessionResult struct {
	Allowed bool                 `json:"allowed,omitempty"`
	Session *arbiter.SessionView `json:"session,omitempty"`
	Solved  bool                 `json:"solved,omitempty"`
}

// Engine dispatches commands to the blocking engine's components.
type Engine struct {
	targets   TargetStore
	ledger    GrantLedger
	usage     UsageStore
	sessions  Sessions
	tracker   Foreground
	relocker  Relocker
	recompute Recomputer
	matcher   RuleMatcher
	clock     clock.Clock
	logger    log.Logger
}

// Options collects the Engine's collaborators.
type Options struct {
	Targets   TargetStore
	Ledger    GrantLedger
	Usage     UsageStore
	Sessions  Sessions
	Tracker   Foreground
	Relocker  Relocker
	Recompute Recomputer
	Matcher   RuleMatcher
	Clock     clock.Clock
	Logger    log.Logger
}

// New constructs an Engine.
func New(opts Options) *Engine {
	return &Engine{
		targets:   opts.Targets,
		ledger:    opts.Ledger,
		usage:     opts.Usage,
		sessions:  opts.Sessions,
		tracker:   opts.Tracker,
		relocker:  opts.Relocker,
		recompute: opts.Recompute,
		matcher:   opts.Matcher,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
}

// Dispatch executes one command and returns its payload. The switch is
// exhaustive over the closed Command set.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case GetState:
		return e.snapshot()
	case AddTarget:
		return e.addTarget(c)
	case UpdateTarget:
		return e.updateTarget(c)
	case ToggleTarget:
		return e.toggleTarget(c)
	case RemoveTarget:
		return e.removeTarget(c)
	case UnlockTarget:
		return e.unlockTarget(c)
	case IncrementBlocked:
		count, err := e.usage.IncrementBlocked(domain.DateKeyFor(e.clock.Now()))
		if err != nil {
			return nil, err
		}
		return CounterValue{CountBlocked: count}, nil
	case ForegroundChanged:
		now := e.clock.Now()
		if c.TimestampMs > 0 {
			now = time.UnixMilli(c.TimestampMs)
		}
		e.tracker.OnForegroundChange(c.Raw, now)
		return Ack{}, nil
	case CheckBlocked:
		return e.checkBlocked(c)
	case DescribeTarget:
		return e.describeTarget(c)
	case StartSession:
		return e.startSession(c)
	case TickSession:
		view, err := e.sessions.Tick(c.SessionID)
		if err != nil {
			return nil, err
		}
		return SessionResult{Session: &view}, nil
	case SubmitAnswer:
		view, solved, err := e.sessions.Submit(c.SessionID, c.Answer)
		if err != nil {
			return nil, err
		}
		return SessionResult{Session: &view, Solved: solved}, nil
	case CompleteUnlock:
		if _, err := e.sessions.Complete(c.SessionID); err != nil {
			return nil, err
		}
		return Ack{}, nil
	default:
		// Command is a closed set; this is unreachable for well-formed callers.
		return nil, fmt.Errorf("unhandled command type %T", cmd)
	}
}

func (e *Engine) snapshot() (Snapshot, error) {
	now := e.clock.Now()
	day := domain.DateKeyFor(now)

	targets, err := e.targets.All()
	if err != nil {
		return Snapshot{}, err
	}
	usage, err := e.usage.Day(day)
	if err != nil {
		return Snapshot{}, err
	}
	grants, err := e.ledger.Active(now)
	if err != nil {
		return Snapshot{}, err
	}
	blocked, err := e.usage.BlockedCount(day)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Day:     day,
		Targets: targets,
		Usage:   usage,
		Grants:  grants,
		Blocked: blocked,
	}, nil
}

func (e *Engine) addTarget(c AddTarget) (TargetList, error) {
	target, err := e.targets.Add(c.Identifier, c.Mode, c.WaitSeconds, c.ChallengeKind, c.ApproverContact)
	if err != nil {
		return TargetList{}, err
	}
	e.recompute.Trigger()
	e.logger.Info(map[string]any{
		"id":         target.ID,
		"identifier": target.Identifier,
		"mode":       target.Mode.String(),
	}, "Target added")
	return e.targetList()
}

func (e *Engine) updateTarget(c UpdateTarget) (TargetList, error) {
	target, err := e.targets.Update(c.ID, c.Mode, c.WaitSeconds, c.ChallengeKind, c.ApproverContact)
	if err != nil {
		return TargetList{}, err
	}
	e.recompute.Trigger()
	e.logger.Info(map[string]any{
		"id":   target.ID,
		"mode": target.Mode.String(),
	}, "Target policy updated")
	return e.targetList()
}

func (e *Engine) toggleTarget(c ToggleTarget) (Ack, error) {
	target, err := e.targets.Toggle(c.ID)
	if err != nil {
		return Ack{}, err
	}
	e.recompute.Trigger()
	e.logger.Info(map[string]any{
		"id":      target.ID,
		"enabled": target.Enabled,
	}, "Target toggled")
	return Ack{}, nil
}

func (e *Engine) removeTarget(c RemoveTarget) (Ack, error) {
	target, err := e.targets.Remove(c.ID)
	if err != nil {
		return Ack{}, err
	}
	// Removal must also purge any grant for the identifier so the compiled
	// rule and the ledger entry disappear together.
	if err := e.ledger.Expire(target.Identifier); err != nil {
		return Ack{}, err
	}
	e.recompute.Trigger()
	e.logger.Info(map[string]any{
		"id":         target.ID,
		"identifier": target.Identifier,
	}, "Target removed")
	return Ack{}, nil
}

func (e *Engine) unlockTarget(c UnlockTarget) (Ack, error) {
	identifier, err := utils.NormalizeIdentifier(c.Identifier)
	if err != nil {
		return Ack{}, err
	}
	grant, err := e.ledger.Grant(identifier, c.DurationSeconds, e.clock.Now())
	if err != nil {
		return Ack{}, err
	}
	e.relocker.ArmExpiry(grant.Identifier, grant.ExpiryTime())
	e.recompute.Trigger()
	return Ack{}, nil
}

func (e *Engine) checkBlocked(c CheckBlocked) (Verdict, error) {
	host, err := utils.NormalizeIdentifier(c.Raw)
	if err != nil {
		// Unparseable inputs are never blocked.
		return Verdict{}, nil
	}
	rule, ok := e.matcher.Match(host)
	if !ok {
		return Verdict{}, nil
	}
	return Verdict{Blocked: true, Rule: &rule}, nil
}

func (e *Engine) describeTarget(c DescribeTarget) (domain.RedirectDescriptor, error) {
	identifier, err := utils.NormalizeIdentifier(c.Identifier)
	if err != nil {
		return domain.RedirectDescriptor{}, err
	}
	return e.sessions.Describe(identifier)
}

func (e *Engine) startSession(c StartSession) (SessionResult, error) {
	identifier, err := utils.NormalizeIdentifier(c.Identifier)
	if err != nil {
		return SessionResult{Allowed: true}, nil
	}
	view, err := e.sessions.Start(identifier)
	if errors.Is(err, domain.ErrUnknownTarget) {
		// Defensive fail-open: blocking a request with no matching policy
		// would strand the user.
		e.logger.Warn(map[string]any{"identifier": identifier}, "Interception without enabled target, allowing")
		return SessionResult{Allowed: true}, nil
	}
	if err != nil {
		return SessionResult{}, err
	}
	return SessionResult{Session: &view}, nil
}

func (e *Engine) targetList() (TargetList, error) {
	targets, err := e.targets.All()
	if err != nil {
		return TargetList{}, err
	}
	return TargetList{Targets: targets}, nil
}
