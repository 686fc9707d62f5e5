package ledger

import "time"

type options struct {
	now       func() time.Time
	onCorrupt CorruptionReporter
}

type Option func(*options)

// WithClock replaces time.Now for createdAt/updatedAt stamping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithCorruptionReporter is called for every record read whose stored
// transaction blob could not be parsed.
func WithCorruptionReporter(report CorruptionReporter) Option {
	return func(o *options) {
		o.onCorrupt = report
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:       time.Now,
		onCorrupt: func(string) {},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stampUpdate keeps updatedAt monotonic relative to createdAt even when the
// clock steps backwards.
func stampUpdate(now, createdAt time.Time) time.Time {
	if now.Before(createdAt) {
		return createdAt
	}
	return now
}
