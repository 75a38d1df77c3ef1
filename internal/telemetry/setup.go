package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/sync/errgroup"
)

type Client struct {
	log *slog.Logger

	tracerProvider *trace.TracerProvider
	metricProvider *metric.MeterProvider
	loggerProvider *log.LoggerProvider
}

// SetupLogging routes the default slog logger through logrus.
func SetupLogging(level slog.Level) {
	logrus.SetLevel(logrus.TraceLevel)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	slog.SetDefault(slog.New(logrusHandler(level)))
}

func logrusHandler(level slog.Level) slog.Handler {
	return sloglogrus.Option{Level: level, Logger: logrus.StandardLogger()}.NewLogrusHandler()
}

func (client *Client) Flush(ctx context.Context) error {
	if client == nil {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)

	if client.metricProvider != nil {
		g.Go(func() error {
			return client.metricProvider.ForceFlush(ctx)
		})
	}
	if client.loggerProvider != nil {
		g.Go(func() error {
			return client.loggerProvider.ForceFlush(ctx)
		})
	}
	if client.tracerProvider != nil {
		g.Go(func() error {
			return client.tracerProvider.ForceFlush(ctx)
		})
	}

	return g.Wait()
}

func (client *Client) Shutdown(ctx context.Context) {
	if client == nil {
		return
	}
	if client.metricProvider != nil {
		err := client.metricProvider.Shutdown(ctx)
		if err != nil {
			client.log.ErrorContext(ctx, "error shutting down metric provider", "error", err.Error())
		}
	}
	if client.tracerProvider != nil {
		err := client.tracerProvider.Shutdown(ctx)
		if err != nil {
			client.log.ErrorContext(ctx, "error shutting down tracer provider", "error", err.Error())
		}
	}
	if client.loggerProvider != nil {
		err := client.loggerProvider.Shutdown(ctx)
		if err != nil {
			client.log.ErrorContext(ctx, "error shutting down logger provider", "error", err.Error())
		}
	}
}

// envKeys select exporters through autoexport when no endpoint flag is given.
var envKeys = []string{
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_TRACES_EXPORTER",
	"OTEL_METRICS_EXPORTER",
	"OTEL_LOGS_EXPORTER",
}

func envConfigured() bool {
	return lo.SomeBy(envKeys, func(key string) bool {
		return os.Getenv(key) != ""
	})
}

type exporters struct {
	metrics metric.Reader
	spans   trace.SpanExporter
	logs    log.Exporter
}

func otlpExporters(ctx context.Context, endpoint string) (exporters, error) {
	meticExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled: false,
		}),
	)
	if err != nil {
		return exporters{}, err
	}
	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
			Enabled: false,
		}),
	)
	if err != nil {
		return exporters{}, err
	}
	logExporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(endpoint),
		otlploghttp.WithRetry(otlploghttp.RetryConfig{
			Enabled: false,
		}),
	)
	if err != nil {
		return exporters{}, err
	}
	return exporters{
		metrics: metric.NewPeriodicReader(meticExporter),
		spans:   traceExporter,
		logs:    logExporter,
	}, nil
}

// envExporters reads OTEL_*_EXPORTER and OTEL_EXPORTER_OTLP_* variables.
// Signals set to "none" are left nil.
func envExporters(ctx context.Context) (exporters, error) {
	metricReader, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return exporters{}, fmt.Errorf("failed to initialize metric exporter: %w", err)
	}
	spanExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return exporters{}, fmt.Errorf("failed to initialize trace exporter: %w", err)
	}
	logsExporter, err := autoexport.NewLogExporter(ctx)
	if err != nil {
		return exporters{}, fmt.Errorf("failed to initialize log exporter: %w", err)
	}

	var e exporters
	if !autoexport.IsNoneMetricReader(metricReader) {
		e.metrics = metricReader
	}
	if !autoexport.IsNoneSpanExporter(spanExporter) {
		e.spans = spanExporter
	}
	if !autoexport.IsNoneLogExporter(logsExporter) {
		e.logs = logsExporter
	}
	return e, nil
}

// Setup exports metrics, traces and logs over OTLP/HTTP to endpoint. Without an
// endpoint the exporters come from the OTEL_* environment; when neither is set
// telemetry is disabled and Setup returns a nil client.
func Setup(ctx context.Context, appName, endpoint string, level slog.Level) (*Client, error) {
	if endpoint == "" && !envConfigured() {
		return nil, nil
	}

	client := &Client{
		log: slog.With("component", "telemetry"),
	}
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(cause error) {
		client.log.ErrorContext(ctx, "otel error", "error", cause.Error())
	}))

	r, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(appName),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
	if err != nil {
		return nil, err
	}

	var exp exporters
	if endpoint != "" {
		exp, err = otlpExporters(ctx, endpoint)
	} else {
		exp, err = envExporters(ctx)
	}
	if err != nil {
		return nil, err
	}

	if exp.metrics != nil {
		client.metricProvider = metric.NewMeterProvider(
			metric.WithResource(r),
			metric.WithReader(exp.metrics),
		)
		otel.SetMeterProvider(client.metricProvider)
		client.log.InfoContext(ctx, "metrics provider initialized")
	}

	if exp.spans != nil {
		client.tracerProvider = trace.NewTracerProvider(
			trace.WithResource(r),
			trace.WithBatcher(exp.spans, trace.WithExportTimeout(time.Second)),
		)
		otel.SetTracerProvider(client.tracerProvider)
		client.log.InfoContext(ctx, "tracing provider initialized")
	}

	if exp.logs != nil {
		client.loggerProvider = log.NewLoggerProvider(
			log.WithResource(r),
			log.WithProcessor(log.NewBatchProcessor(exp.logs, log.WithExportInterval(time.Second))),
		)

		slog.SetDefault(slog.New(slogmulti.Fanout(
			otelslog.NewHandler(appName, otelslog.WithLoggerProvider(client.loggerProvider)),
			logrusHandler(level),
		)))
		client.log.InfoContext(ctx, "logger provider initialized")

		// recreate telemetry logger
		client.log = slog.With("component", "telemetry")
	}

	runtime.SetMutexProfileFraction(5)
	runtime.SetBlockProfileRate(5)

	return client, nil
}
