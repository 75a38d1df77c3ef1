package telemetry

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupDisabled(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	client, err := Setup(context.Background(), "pointpattern", "", slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if client != nil {
		t.Fatalf("empty endpoint must disable telemetry")
	}
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush on disabled client failed: %v", err)
	}
	client.Shutdown(context.Background())
}

func TestSetupFromEnvironment(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "console")
	t.Setenv("OTEL_METRICS_EXPORTER", "none")
	t.Setenv("OTEL_LOGS_EXPORTER", "none")

	client, err := Setup(context.Background(), "pointpattern", "", slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if client == nil {
		t.Fatalf("OTEL_* variables must enable telemetry")
	}
	if client.tracerProvider == nil {
		t.Fatalf("console trace exporter was not installed")
	}
	if client.metricProvider != nil || client.loggerProvider != nil {
		t.Fatalf("signals set to none must stay disabled")
	}
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	client.Shutdown(context.Background())
}

func TestLogrusHandlerLevel(t *testing.T) {
	h := logrusHandler(slog.LevelWarn)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error must pass at warn level")
	}
}
