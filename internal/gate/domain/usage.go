package domain

import "time"

// DateKey is a local calendar day in YYYY-MM-DD form, the bucket key for
// all daily telemetry.
type DateKey string

// DateKeyFor returns the DateKey for the local calendar day containing t.
func DateKeyFor(t time.Time) DateKey {
	return DateKey(t.Format("2006-01-02"))
}

// DailyUsage records accumulated foreground dwell time for one identifier
// on one local calendar day. SecondsSpent only grows; buckets reset by
// rolling to a new DateKey, never by decrementing.
type DailyUsage struct {
	DateKey      DateKey `json:"date_key"`
	Identifier   string  `json:"identifier"`
	SecondsSpent int     `json:"seconds_spent"`
}

// BlockingCounter counts intercepted blocked-access attempts for one local
// calendar day. Reset to zero at the midnight rollover.
type BlockingCounter struct {
	DateKey      DateKey `json:"date_key"`
	CountBlocked int     `json:"count_blocked"`
}
