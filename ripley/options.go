package ripley

import "log/slog"

type options struct {
	progress bool
	logger   *slog.Logger
}

type Option interface {
	apply(*options)
}

func loadOptions(opts ...Option) options {
	o := options{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

type progressOption bool

func (p progressOption) apply(o *options) {
	o.progress = bool(p)
}

// WithProgress shows a terminal progress bar over the pair search.
func WithProgress(enabled bool) Option {
	return progressOption(enabled)
}

type loggerOption struct{ log *slog.Logger }

func (l loggerOption) apply(o *options) {
	o.logger = l.log
}

func WithLogger(log *slog.Logger) Option {
	return loggerOption{log: log}
}
