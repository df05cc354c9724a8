package halloc

import "log/slog"

// DefaultSizeHint is the ledger pre-sizing used by New when no size hint is
// given.
const DefaultSizeHint = 8

type options struct {
	sizeHint int
	logger   *slog.Logger
}

// Option configures Memory construction.
type Option func(*options)

func defaultOptions() options {
	return options{
		sizeHint: DefaultSizeHint,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// WithSizeHint pre-sizes the ledger for an expected number of concurrent
// allocations. It is a non-binding bookkeeping hint and never limits
// capacity; values <= 0 are ignored.
func WithSizeHint(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sizeHint = n
		}
	}
}

// WithLogger sets the logger used on the degraded paths: destructor
// failures, frees after Close, and leaks reported by Close. The default
// logger discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
