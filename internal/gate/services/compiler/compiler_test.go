package compiler

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/haukened/focusgate/internal/gate/common/clock"
	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/domain"
)

func target(id, identifier string, enabled bool) domain.BlockTarget {
	return domain.BlockTarget{
		ID:          id,
		Identifier:  identifier,
		Enabled:     enabled,
		Mode:        domain.ModeTimer,
		WaitSeconds: 30,
	}
}

func TestCompile(t *testing.T) {
	targets := []domain.BlockTarget{
		target("1", "example.com", true),
		target("2", "reddit.com", true),
		target("3", "disabled.com", false),
		target("4", "news.ycombinator.com", true),
	}
	grants := []domain.UnlockGrant{{Identifier: "reddit.com", ExpiresAt: 1}}

	rules := Compile(targets, grants)

	// One rule per enabled, non-unlocked target; IDs dense and 1-based in
	// registry order.
	want := []string{"example.com", "news.ycombinator.com"}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, identifier := range want {
		if rules[i].RuleID != i+1 {
			t.Errorf("rule %d has ID %d", i, rules[i].RuleID)
		}
		if rules[i].Identifier != identifier {
			t.Errorf("rule %d identifier = %q, want %q", i, rules[i].Identifier, identifier)
		}
	}
}

func TestCompile_Deterministic(t *testing.T) {
	targets := []domain.BlockTarget{
		target("1", "a.com", true),
		target("2", "b.com", true),
	}
	first := Compile(targets, nil)
	second := Compile(targets, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different rule sets:\n%+v\n%+v", first, second)
	}
}

func TestCompile_Empty(t *testing.T) {
	if rules := Compile(nil, nil); len(rules) != 0 {
		t.Errorf("expected no rules, got %+v", rules)
	}
	targets := []domain.BlockTarget{target("1", "a.com", true)}
	grants := []domain.UnlockGrant{{Identifier: "a.com", ExpiresAt: 1}}
	if rules := Compile(targets, grants); len(rules) != 0 {
		t.Errorf("expected fully unlocked set to compile empty, got %+v", rules)
	}
}

type stubTargets struct {
	targets []domain.BlockTarget
	err     error
}

func (s *stubTargets) EnabledTargets() ([]domain.BlockTarget, error) { return s.targets, s.err }

type stubGrants struct {
	grants []domain.UnlockGrant
}

func (s *stubGrants) Active(time.Time) ([]domain.UnlockGrant, error) { return s.grants, nil }

type stubPusher struct {
	applied  []domain.CompiledRule
	replaces int
	err      error
}

func (s *stubPusher) ReplaceRules(_ []int, add []domain.CompiledRule) error {
	if s.err != nil {
		return s.err
	}
	s.replaces++
	s.applied = add
	return nil
}

func (s *stubPusher) RuleIDs() []int {
	ids := make([]int, len(s.applied))
	for i, r := range s.applied {
		ids[i] = r.RuleID
	}
	return ids
}

func TestCompiler_Recompute(t *testing.T) {
	pusher := &stubPusher{}
	c := New(Options{
		Targets: &stubTargets{targets: []domain.BlockTarget{target("1", "example.com", true)}},
		Grants:  &stubGrants{},
		Pusher:  pusher,
		Clock:   &clock.MockClock{CurrentTime: time.Now()},
		Logger:  log.NewNoopLogger(),
		Backoff: time.Millisecond,
	})

	if err := c.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if len(pusher.applied) != 1 || pusher.applied[0].Identifier != "example.com" {
		t.Fatalf("unexpected applied rules: %+v", pusher.applied)
	}

	// Idempotent: no state change, same output.
	before := pusher.applied
	if err := c.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if !reflect.DeepEqual(before, pusher.applied) {
		t.Errorf("second recompute changed the rule set")
	}
}

func TestCompiler_Recompute_SourceError(t *testing.T) {
	wantErr := errors.New("boom")
	pusher := &stubPusher{}
	c := New(Options{
		Targets: &stubTargets{err: wantErr},
		Grants:  &stubGrants{},
		Pusher:  pusher,
		Clock:   &clock.MockClock{CurrentTime: time.Now()},
		Logger:  log.NewNoopLogger(),
		Backoff: time.Millisecond,
	})

	if err := c.Recompute(); !errors.Is(err, wantErr) {
		t.Fatalf("expected source error, got %v", err)
	}
	if pusher.replaces != 0 {
		t.Error("failed read must not push rules")
	}
}

func TestCompiler_Trigger_Coalesces(t *testing.T) {
	c := New(Options{Logger: log.NewNoopLogger()})

	// Burst of triggers must never block and leaves one pending.
	for i := 0; i < 10; i++ {
		c.Trigger()
	}
	if len(c.trigger) != 1 {
		t.Errorf("expected one coalesced trigger, got %d", len(c.trigger))
	}
}
