package rules

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/haukened/focusgate/internal/gate/domain"
)

func rule(id int, identifier string, mode domain.Mode) domain.CompiledRule {
	return domain.CompiledRule{
		RuleID:     id,
		Identifier: identifier,
		Redirect: domain.RedirectDescriptor{
			Identifier:  identifier,
			Mode:        mode,
			WaitSeconds: 30,
		},
	}
}

func TestRuleset_ReplaceRules(t *testing.T) {
	r := NewRuleset()

	first := []domain.CompiledRule{
		rule(1, "example.com", domain.ModeTimer),
		rule(2, "reddit.com", domain.ModeTimer),
	}
	if err := r.ReplaceRules(nil, first); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}
	if ids := r.RuleIDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("RuleIDs = %v", ids)
	}

	// The next replace supersedes the previous snapshot entirely.
	second := []domain.CompiledRule{rule(1, "reddit.com", domain.ModeTimer)}
	if err := r.ReplaceRules(r.RuleIDs(), second); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}
	if _, ok := r.Match("example.com"); ok {
		t.Error("removed rule still matches")
	}
	if _, ok := r.Match("reddit.com"); !ok {
		t.Error("surviving rule does not match")
	}
	if got := r.Rules(); len(got) != 1 || got[0].RuleID != 1 {
		t.Errorf("Rules = %+v", got)
	}
}

func TestRuleset_Match_Subdomains(t *testing.T) {
	r := NewRuleset()
	if err := r.ReplaceRules(nil, []domain.CompiledRule{rule(1, "reddit.com", domain.ModeTimer)}); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}

	tests := []struct {
		host string
		want bool
	}{
		{host: "reddit.com", want: true},
		{host: "old.reddit.com", want: true},
		{host: "a.b.old.reddit.com", want: true},
		{host: "notreddit.com", want: false},
		{host: "example.com", want: false},
		// A rule never reaches across registrable domains.
		{host: "reddit.com.evil.com", want: false},
	}
	for _, tt := range tests {
		if _, ok := r.Match(tt.host); ok != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.host, ok, tt.want)
		}
	}
}

func TestRuleset_Match_SubdomainRule(t *testing.T) {
	r := NewRuleset()
	if err := r.ReplaceRules(nil, []domain.CompiledRule{rule(1, "news.ycombinator.com", domain.ModeTimer)}); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}

	if _, ok := r.Match("news.ycombinator.com"); !ok {
		t.Error("exact subdomain rule does not match itself")
	}
	// A rule on a subdomain must not cover the apex.
	if _, ok := r.Match("ycombinator.com"); ok {
		t.Error("subdomain rule leaked to the apex")
	}
}

func TestRuleset_Empty(t *testing.T) {
	r := NewRuleset()
	if _, ok := r.Match("example.com"); ok {
		t.Error("empty ruleset matched a host")
	}
	if ids := r.RuleIDs(); len(ids) != 0 {
		t.Errorf("RuleIDs on empty set = %v", ids)
	}
}

func TestFilePusher_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	p := NewFilePusher(path)

	snapshot := []domain.CompiledRule{
		rule(1, "example.com", domain.ModeTimer),
		rule(2, "reddit.com", domain.ModeChallenge),
	}
	if err := p.ReplaceRules(nil, snapshot); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var doc struct {
		Rules []domain.CompiledRule `json:"rules"`
	}
	if err := json.Unmarshal(buf, &doc); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if len(doc.Rules) != 2 || doc.Rules[0].Identifier != "example.com" {
		t.Errorf("unexpected export: %+v", doc.Rules)
	}

	// The in-memory snapshot answers lookups too.
	if _, ok := p.Match("old.reddit.com"); !ok {
		t.Error("pusher snapshot does not match")
	}

	// Replacing with an empty set empties the export.
	if err := p.ReplaceRules(p.RuleIDs(), nil); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}
	buf, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if err := json.Unmarshal(buf, &doc); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if len(doc.Rules) != 0 {
		t.Errorf("expected empty export, got %+v", doc.Rules)
	}
}
