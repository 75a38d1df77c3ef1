package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/royalcat/pointpattern/internal/stats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/royalcat/pointpattern/pipeline"

type runner struct {
	cfg       Config
	log       *slog.Logger
	stats     *stats.Collector
	durations metric.Float64Histogram
}

func newRunner(cfg Config, o options) (*runner, error) {
	durations, err := otel.Meter(instrumentationName).Float64Histogram("pipeline.stage.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Wall time of one pipeline stage"),
	)
	if err != nil {
		return nil, err
	}
	return &runner{
		cfg:       cfg,
		log:       o.logger,
		stats:     o.stats,
		durations: durations,
	}, nil
}

// stage runs fn inside a span and records its duration under name.
func (r *runner) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("output", r.cfg.OutputDir)),
	)
	defer span.End()

	r.log.InfoContext(ctx, "stage started", "stage", name)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	r.durations.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("stage", name)))
	r.stats.Mark(name)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s stage: %w", name, err)
	}
	r.log.InfoContext(ctx, "stage finished", "stage", name, "elapsed", elapsed)
	return nil
}
