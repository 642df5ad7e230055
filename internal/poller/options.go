package poller

import (
	"context"
	"io"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/mirror"
	"codeberg.org/mutker/dhtlogger/internal/telemetry"
)

type Option func(*Loop)

// WithJournal records every iteration in the telemetry journal.
func WithJournal(c telemetry.Collector) Option {
	return func(l *Loop) {
		l.journal = c
	}
}

// WithMirrors publishes complete readings to secondary destinations.
func WithMirrors(set *mirror.Set) Option {
	return func(l *Loop) {
		l.mirrors = set
	}
}

// WithCloser appends a cleanup step that runs after the collaborators.
func WithCloser(name string, fn func() error) Option {
	return func(l *Loop) {
		l.extra = append(l.extra, Closer{Name: name, Close: fn})
	}
}

func WithOutput(w io.Writer) Option {
	return func(l *Loop) {
		l.report = NewReport(w)
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// WithSleep replaces the interval wait. sleep must return early with the
// context error when ctx is cancelled.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Loop) {
		l.sleep = sleep
	}
}
