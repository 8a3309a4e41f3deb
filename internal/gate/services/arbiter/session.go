package arbiter

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/haukened/focusgate/internal/gate/domain"
)

// SessionState identifies where an unlock session is in its protocol.
type SessionState uint8

const (
	// StateWaiting: timer countdown still running.
	StateWaiting SessionState = iota
	// StateElapsed: timer countdown finished; unlock may complete.
	StateElapsed
	// StatePresented: a challenge instance is awaiting an answer.
	StatePresented
	// StateCodeIssued: an approver code is awaiting entry.
	StateCodeIssued
	// StateSolved: challenge solved or code verified; unlock may complete.
	StateSolved
)

// String returns a stable string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateElapsed:
		return "elapsed"
	case StatePresented:
		return "presented"
	case StateCodeIssued:
		return "code_issued"
	case StateSolved:
		return "solved"
	default:
		return fmt.Sprintf("SessionState(%d)", s)
	}
}

// terminal reports whether completion is valid from this state.
func (s SessionState) terminal() bool {
	return s == StateElapsed || s == StateSolved
}

// session is one interception session. Sessions live only in the arbiter's
// in-memory table; an abandoned session leaves no trace in the ledger, and
// re-intercepting the same identifier starts a fresh session.
type session struct {
	id        string
	target    domain.BlockTarget
	state     SessionState
	remaining int       // timer mode
	challenge challenge // challenge mode
	code      string    // approver mode
}

// newSession builds the initial session state for the target's mode.
func newSession(target domain.BlockTarget) *session {
	s := &session{id: newSessionID(), target: target}
	switch target.Mode {
	case domain.ModeTimer:
		s.state = StateWaiting
		s.remaining = target.WaitSeconds
	case domain.ModeChallenge:
		s.state = StatePresented
		s.challenge = generateChallenge(target.ChallengeKind)
	case domain.ModeRemoteApprover:
		s.state = StateCodeIssued
		s.code = newApproverCode()
	}
	return s
}

func generateChallenge(kind domain.ChallengeKind) challenge {
	if kind == domain.ChallengeTranscription {
		return newTranscriptionChallenge()
	}
	return newArithmeticChallenge()
}

// tick advances a timer session by one second. No back-transition: once
// elapsed, further ticks are no-ops.
func (s *session) tick() {
	if s.state != StateWaiting {
		return
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.state = StateElapsed
	}
}

// submit verifies an answer or code. A rejected challenge regenerates a
// fresh instance and returns to presented; a rejected approver code keeps
// the same code, so repeated failure never locks the user out permanently.
func (s *session) submit(answer string) bool {
	switch s.state {
	case StatePresented:
		if s.challenge.check(answer) {
			s.state = StateSolved
			return true
		}
		s.challenge = generateChallenge(s.target.ChallengeKind)
		return false
	case StateCodeIssued:
		if stripSpace(answer) == s.code {
			s.state = StateSolved
			return true
		}
		return false
	default:
		return false
	}
}

func stripSpace(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

func newSessionID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// SessionView is the caller-facing snapshot of a session.
type SessionView struct {
	ID         string                    `json:"id"`
	Identifier string                    `json:"identifier"`
	Mode       domain.Mode               `json:"mode"`
	State      SessionState              `json:"state"`
	Remaining  int                       `json:"remaining,omitempty"`
	Question   string                    `json:"question,omitempty"`
	Code       string                    `json:"code,omitempty"`
	Redirect   domain.RedirectDescriptor `json:"redirect"`
}

func (s *session) view() SessionView {
	return SessionView{
		ID:         s.id,
		Identifier: s.target.Identifier,
		Mode:       s.target.Mode,
		State:      s.state,
		Remaining:  s.remaining,
		Question:   s.challenge.question,
		Code:       s.code,
		Redirect:   s.target.Redirect(),
	}
}
