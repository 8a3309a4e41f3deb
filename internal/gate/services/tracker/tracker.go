// Package tracker is the usage accumulator: it observes foreground-context
// changes and aggregates dwell time per site per local day. Each change
// flushes exactly the interval since the previous change, so intervals are
// never double-counted.
package tracker

import (
	"math"
	"sync"
	"time"

	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/common/utils"
	"github.com/haukened/focusgate/internal/gate/domain"
)

// maxIntervalSeconds discards implausibly long intervals as measurement
// noise (device asleep, clock jump).
const maxIntervalSeconds = 3600

// UsageSink receives flushed dwell intervals.
type UsageSink interface {
	AddSeconds(day domain.DateKey, identifier string, seconds int) error
}

// Tracker records which identifier is foreground and since when.
type Tracker struct {
	sink   UsageSink
	logger log.Logger

	mu        sync.Mutex
	current   string
	startedAt time.Time
}

// New constructs a Tracker.
func New(sink UsageSink, logger log.Logger) *Tracker {
	return &Tracker{sink: sink, logger: logger}
}

// OnForegroundChange flushes the interval spent on the previous foreground
// identifier and re-points to the new one. raw may be a URL, a bare host,
// or an app identifier; an empty or unparseable value clears the
// foreground state. Sink errors are logged and swallowed so a transient
// persistence failure only skips one interval.
func (t *Tracker) OnForegroundChange(raw string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != "" && !t.startedAt.IsZero() {
		elapsed := int(math.Round(now.Sub(t.startedAt).Seconds()))
		if elapsed > 0 && elapsed < maxIntervalSeconds {
			day := domain.DateKeyFor(now)
			if err := t.sink.AddSeconds(day, t.current, elapsed); err != nil {
				t.logger.Warn(map[string]any{
					"identifier": t.current,
					"seconds":    elapsed,
					"error":      err,
				}, "Dropping usage interval, sink write failed")
			}
		}
	}

	normalized, err := utils.NormalizeIdentifier(raw)
	if err != nil {
		t.current = ""
		t.startedAt = time.Time{}
		return
	}
	// Group dwell time by registrable domain so subdomains of one site
	// accumulate into the same bucket as their blocking target.
	t.current = utils.RegistrableDomain(normalized)
	t.startedAt = now
}

// Current returns the identifier presently considered foreground. Empty
// when nothing trackable is foreground.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
