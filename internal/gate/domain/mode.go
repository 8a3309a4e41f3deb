package domain

import (
	"fmt"
	"strings"
)

// Mode defines which unlock protocol governs a blocked target.
//
// timer     - the user waits out a fixed countdown
// challenge - the user solves a generated challenge
// approver  - the user enters a code read back by a remote approver
type Mode uint8

const (
	// ModeTimer requires waiting out a countdown before unlocking.
	ModeTimer Mode = iota
	// ModeChallenge requires solving a generated challenge.
	ModeChallenge
	// ModeRemoteApprover requires a 6-digit code from a remote approver.
	ModeRemoteApprover
)

// String returns a stable string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeTimer:
		return "timer"
	case ModeChallenge:
		return "challenge"
	case ModeRemoteApprover:
		return "approver"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// ParseMode converts a string into a Mode.
// Accepts: "timer", "challenge", "approver" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timer":
		return ModeTimer, nil
	case "challenge":
		return ModeChallenge, nil
	case "approver":
		return ModeRemoteApprover, nil
	default:
		return 0, fmt.Errorf("unsupported Mode: %q", s)
	}
}

// ChallengeKind selects which challenge family ModeChallenge generates.
type ChallengeKind uint8

const (
	// ChallengeArithmetic presents a multi-step integer arithmetic problem.
	ChallengeArithmetic ChallengeKind = iota
	// ChallengeTranscription presents a phrase the user must type back.
	ChallengeTranscription
)

// String returns a stable string representation of the challenge kind.
func (k ChallengeKind) String() string {
	switch k {
	case ChallengeArithmetic:
		return "arithmetic"
	case ChallengeTranscription:
		return "transcription"
	default:
		return fmt.Sprintf("ChallengeKind(%d)", k)
	}
}

// ParseChallengeKind converts a string into a ChallengeKind.
// Accepts: "arithmetic", "transcription" (case-insensitive).
func ParseChallengeKind(s string) (ChallengeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arithmetic":
		return ChallengeArithmetic, nil
	case "transcription":
		return ChallengeTranscription, nil
	default:
		return 0, fmt.Errorf("unsupported ChallengeKind: %q", s)
	}
}
