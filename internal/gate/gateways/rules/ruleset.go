// Package rules implements the platform blocking primitive: an atomically
// replaceable snapshot of compiled rules, with a host-consumable JSON
// export. Lookups take a bloom -> exact -> suffix pipeline so the hot
// per-navigation path can early-allow hosts that are definitely not blocked.
package rules

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/focusgate/internal/gate/common/utils"
	"github.com/haukened/focusgate/internal/gate/domain"
)

// bloomFPRate is the target false-positive rate for the snapshot filter.
const bloomFPRate = 0.01

// Ruleset holds the currently enforced rule snapshot. The rule compiler is
// its only writer; ReplaceRules swaps the whole snapshot in one step so a
// partially applied rule set is never observable.
type Ruleset struct {
	mu           sync.RWMutex
	rules        []domain.CompiledRule
	byIdentifier map[string]domain.CompiledRule
	filter       *bloom.BloomFilter
}

// NewRuleset returns an empty Ruleset.
func NewRuleset() *Ruleset {
	return &Ruleset{
		byIdentifier: make(map[string]domain.CompiledRule),
		filter:       bloom.NewWithEstimates(1, bloomFPRate),
	}
}

// ReplaceRules atomically replaces the enforced rule set. removeIDs names
// the previously applied rules; with a full snapshot swap they are implied,
// but the signature matches the platform primitive's transactional
// remove-all-then-add-all contract.
func (r *Ruleset) ReplaceRules(removeIDs []int, add []domain.CompiledRule) error {
	byIdentifier := make(map[string]domain.CompiledRule, len(add))
	n := uint(len(add))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, bloomFPRate)
	for _, rule := range add {
		byIdentifier[rule.Identifier] = rule
		filter.Add([]byte(rule.Identifier))
	}

	rules := make([]domain.CompiledRule, len(add))
	copy(rules, add)

	r.mu.Lock()
	r.rules = rules
	r.byIdentifier = byIdentifier
	r.filter = filter
	r.mu.Unlock()
	return nil
}

// Rules returns a copy of the applied rule set in rule ID order.
func (r *Ruleset) Rules() []domain.CompiledRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.CompiledRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// RuleIDs returns the IDs of the applied rules, for use as the removal set
// of the next replace.
func (r *Ruleset) RuleIDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, len(r.rules))
	for i, rule := range r.rules {
		ids[i] = rule.RuleID
	}
	return ids
}

// Match reports whether a normalized host is covered by an applied rule.
// A rule for an apex identifier also covers its subdomains, so a rule for
// "reddit.com" matches "old.reddit.com". The walk trims one label at a
// time and never descends past the registrable domain.
func (r *Ruleset) Match(host string) (domain.CompiledRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apex := utils.RegistrableDomain(host)
	candidate := host
	for {
		// Bloom filter early-allows candidates that are definitely absent.
		if r.filter.Test([]byte(candidate)) {
			if rule, ok := r.byIdentifier[candidate]; ok {
				return rule, true
			}
		}
		if candidate == apex {
			break
		}
		idx := strings.IndexByte(candidate, '.')
		if idx < 0 {
			break
		}
		candidate = candidate[idx+1:]
	}
	return domain.CompiledRule{}, false
}
