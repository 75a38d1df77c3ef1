package pipeline

import (
	"log/slog"

	"github.com/royalcat/pointpattern/internal/stats"
)

type options struct {
	logger *slog.Logger
	stats  *stats.Collector
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
	o.logger = o.logger.With("component", "pipeline")
	return o
}

type loggerOption struct{ log *slog.Logger }

func (l loggerOption) apply(o *options) {
	o.logger = l.log
}

func WithLogger(log *slog.Logger) Option {
	return loggerOption{log: log}
}

type statsOption struct{ c *stats.Collector }

func (s statsOption) apply(o *options) {
	o.stats = s.c
}

// WithStats samples runtime stats after every stage.
func WithStats(c *stats.Collector) Option {
	return statsOption{c: c}
}
