package domain

import (
	"fmt"
	"strings"
)

// BlockTarget represents one domain or app identifier subject to blocking
// policy, together with the unlock protocol that governs it.
//
// Notes:
// - Identifier is expected to be normalized (lowercase, no scheme, no
//   "www." prefix, no path); normalization is handled elsewhere.
// - Exactly one mode is in effect, and only that mode's parameter fields
//   may be populated.
type BlockTarget struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Enabled    bool   `json:"enabled"`
	Mode       Mode   `json:"mode"`

	// WaitSeconds is the countdown length for ModeTimer.
	WaitSeconds int `json:"wait_seconds,omitempty"`
	// ChallengeKind selects the challenge family for ModeChallenge.
	ChallengeKind ChallengeKind `json:"challenge_kind,omitempty"`
	// ApproverContact identifies the remote approver for ModeRemoteApprover.
	ApproverContact string `json:"approver_contact,omitempty"`
}

// NewBlockTarget constructs a BlockTarget and validates its fields.
func NewBlockTarget(id, identifier string, mode Mode, waitSeconds int, kind ChallengeKind, approverContact string) (BlockTarget, error) {
	t := BlockTarget{
		ID:              strings.TrimSpace(id),
		Identifier:      strings.TrimSpace(identifier),
		Enabled:         true,
		Mode:            mode,
		WaitSeconds:     waitSeconds,
		ChallengeKind:   kind,
		ApproverContact: strings.TrimSpace(approverContact),
	}
	if err := t.Validate(); err != nil {
		return BlockTarget{}, err
	}
	return t, nil
}

// Validate checks the BlockTarget for required fields and the
// one-mode-one-param-set invariant.
func (t BlockTarget) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("target id must not be empty")
	}
	if t.Identifier == "" {
		return fmt.Errorf("target identifier must not be empty")
	}
	switch t.Mode {
	case ModeTimer:
		if t.WaitSeconds <= 0 {
			return fmt.Errorf("timer mode requires waitSeconds > 0, got %d", t.WaitSeconds)
		}
		if t.ApproverContact != "" {
			return fmt.Errorf("timer mode must not set approverContact")
		}
	case ModeChallenge:
		switch t.ChallengeKind {
		case ChallengeArithmetic, ChallengeTranscription:
			// ok
		default:
			return fmt.Errorf("unsupported ChallengeKind: %d", t.ChallengeKind)
		}
		if t.WaitSeconds != 0 {
			return fmt.Errorf("challenge mode must not set waitSeconds")
		}
		if t.ApproverContact != "" {
			return fmt.Errorf("challenge mode must not set approverContact")
		}
	case ModeRemoteApprover:
		if t.ApproverContact == "" {
			return fmt.Errorf("approver mode requires approverContact")
		}
		if t.WaitSeconds != 0 {
			return fmt.Errorf("approver mode must not set waitSeconds")
		}
	default:
		return fmt.Errorf("unsupported Mode: %d", t.Mode)
	}
	return nil
}

// Redirect builds the descriptor handed to the interception page so it can
// start the correct unlock protocol without a second lookup.
func (t BlockTarget) Redirect() RedirectDescriptor {
	return RedirectDescriptor{
		Identifier:      t.Identifier,
		Mode:            t.Mode,
		WaitSeconds:     t.WaitSeconds,
		ChallengeKind:   t.ChallengeKind,
		ApproverContact: t.ApproverContact,
	}
}
