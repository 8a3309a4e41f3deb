package domain

import (
	"fmt"
	"time"
)

// UnlockGrant is a time-boxed exemption from blocking for one identifier.
// At most one grant exists per identifier; later grants overwrite earlier
// ones. A missing grant is equivalent to "no temporary unlock".
type UnlockGrant struct {
	Identifier string `json:"identifier"`
	// ExpiresAt is the expiry instant in epoch milliseconds.
	ExpiresAt int64 `json:"expires_at_ms"`
}

// NewUnlockGrant constructs a grant expiring durationSeconds after now.
// Returns ErrInvalidDuration when durationSeconds is not positive.
func NewUnlockGrant(identifier string, durationSeconds int, now time.Time) (UnlockGrant, error) {
	if identifier == "" {
		return UnlockGrant{}, fmt.Errorf("grant identifier must not be empty")
	}
	if durationSeconds <= 0 {
		return UnlockGrant{}, ErrInvalidDuration
	}
	return UnlockGrant{
		Identifier: identifier,
		ExpiresAt:  now.UnixMilli() + int64(durationSeconds)*1000,
	}, nil
}

// Active reports whether the grant still covers its identifier at now.
func (g UnlockGrant) Active(now time.Time) bool {
	return now.UnixMilli() < g.ExpiresAt
}

// ExpiryTime returns the expiry instant as a time.Time.
func (g UnlockGrant) ExpiryTime() time.Time {
	return time.UnixMilli(g.ExpiresAt)
}
