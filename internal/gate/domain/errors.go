package domain

import "errors"

var (
	// ErrDuplicateTarget is returned when adding an identifier that is
	// already present among enabled targets. Disabled duplicates are inert
	// and therefore permitted.
	ErrDuplicateTarget = errors.New("target identifier already enabled")

	// ErrInvalidDuration is returned when an unlock grant is requested with
	// a non-positive duration.
	ErrInvalidDuration = errors.New("unlock duration must be positive")

	// ErrUnknownTarget is returned when an interception references an
	// identifier with no matching enabled target. Callers treat this as
	// allow-and-log, never as a user-facing failure.
	ErrUnknownTarget = errors.New("no enabled target for identifier")

	// ErrUnknownSession is returned when a session ID has expired from the
	// session table or never existed.
	ErrUnknownSession = errors.New("unknown unlock session")

	// ErrSessionNotReady is returned when completion is attempted before
	// the session reached a terminal state.
	ErrSessionNotReady = errors.New("unlock session not in a terminal state")
)
