package matcher

import "time"

// Option configures a Matcher.
type Option func(*Matcher)

// WithClock replaces the clock used to stamp execution batches.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		m.now = now
	}
}
