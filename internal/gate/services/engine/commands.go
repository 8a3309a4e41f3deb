package engine

import "github.com/haukened/focusgate/internal/gate/domain"

// Command is the closed set of operations the UI layer can request. Each
// variant is a concrete struct, so adding a command is a compile-time
// checked change to the Dispatch switch rather than a string comparison.
type Command interface {
	isCommand()
}

// GetState requests the full engine snapshot.
type GetState struct{}

// AddTarget adds a new enabled block target.
type AddTarget struct {
	Identifier      string
	Mode            domain.Mode
	WaitSeconds     int
	ChallengeKind   domain.ChallengeKind
	ApproverContact string
}

// UpdateTarget replaces a target's mode and parameters atomically.
type UpdateTarget struct {
	ID              string
	Mode            domain.Mode
	WaitSeconds     int
	ChallengeKind   domain.ChallengeKind
	ApproverContact string
}

// ToggleTarget flips a target's enabled flag.
type ToggleTarget struct {
	ID string
}

// RemoveTarget deletes a target and purges its unlock grant.
type RemoveTarget struct {
	ID string
}

// UnlockTarget writes a temporary unlock grant and arms the re-lock.
type UnlockTarget struct {
	Identifier      string
	DurationSeconds int
}

// IncrementBlocked bumps today's blocked-attempt counter.
type IncrementBlocked struct{}

// ForegroundChanged reports a foreground-context transition. Raw may be a
// URL, host, or app identifier; empty clears the foreground state.
type ForegroundChanged struct {
	Raw         string
	TimestampMs int64
}

// CheckBlocked asks whether a URL or host is currently blocked.
type CheckBlocked struct {
	Raw string
}

// DescribeTarget asks which unlock protocol governs an identifier without
// opening a session.
type DescribeTarget struct {
	Identifier string
}

// StartSession opens an unlock session for an intercepted identifier.
type StartSession struct {
	Identifier string
}

// TickSession advances a timer session by one second.
type TickSession struct {
	SessionID string
}

// SubmitAnswer submits a challenge answer or approver code.
type SubmitAnswer struct {
	SessionID string
	Answer    string
}

// CompleteUnlock finishes a terminal session and unlocks its target.
type CompleteUnlock struct {
	SessionID string
}

func (GetState) isCommand()          {}
func (AddTarget) isCommand()         {}
func (UpdateTarget) isCommand()      {}
func (ToggleTarget) isCommand()      {}
func (RemoveTarget) isCommand()      {}
func (UnlockTarget) isCommand()      {}
func (IncrementBlocked) isCommand()  {}
func (ForegroundChanged) isCommand() {}
func (CheckBlocked) isCommand()      {}
func (DescribeTarget) isCommand()    {}
func (StartSession) isCommand()      {}
func (TickSession) isCommand()       {}
func (SubmitAnswer) isCommand()      {}
func (CompleteUnlock) isCommand()    {}
