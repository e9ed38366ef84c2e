package observability_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/leadpilot/pilot/internal/observability"
)

type testPropagator struct{}

func (testPropagator) Inject(context.Context, propagation.TextMapCarrier) {}

func (testPropagator) Extract(ctx context.Context, _ propagation.TextMapCarrier) context.Context {
	return ctx
}

func (testPropagator) Fields() []string { return nil }

type testErrorHandler struct{}

func (testErrorHandler) Handle(error) {}

// installGlobals swaps the otel globals for recognisable sentinels and
// restores the originals when the test ends.
func installGlobals(t *testing.T) *sdktrace.TracerProvider {
	t.Helper()

	origTP := otel.GetTracerProvider()
	origPropagator := otel.GetTextMapPropagator()
	origErrorHandler := otel.GetErrorHandler()

	sentinel := sdktrace.NewTracerProvider()

	t.Cleanup(func() {
		_ = sentinel.Shutdown(context.Background())

		otel.SetTracerProvider(origTP)
		otel.SetTextMapPropagator(origPropagator)
		otel.SetErrorHandler(origErrorHandler)
	})

	otel.SetTracerProvider(sentinel)
	otel.SetTextMapPropagator(testPropagator{})
	otel.SetErrorHandler(testErrorHandler{})

	return sentinel
}

func requireGlobals(t *testing.T, sentinel *sdktrace.TracerProvider) {
	t.Helper()

	if otel.GetTracerProvider() != sentinel {
		t.Error("tracer provider was not restored")
	}

	if _, ok := otel.GetTextMapPropagator().(testPropagator); !ok {
		t.Error("propagator was not restored")
	}

	if _, ok := otel.GetErrorHandler().(testErrorHandler); !ok {
		t.Error("error handler was not restored")
	}
}

func TestSetupTelemetry_DisabledLeavesGlobals(t *testing.T) {
	for name, cfg := range map[string]*observability.TelemetryConfig{
		"nil":      nil,
		"disabled": {Enabled: false, ServiceName: "pilot-test"},
	} {
		t.Run(name, func(t *testing.T) {
			sentinel := installGlobals(t)

			shutdown, err := observability.SetupTelemetry(t.Context(), cfg)
			if err != nil {
				t.Fatalf("SetupTelemetry() error = %v", err)
			}

			requireGlobals(t, sentinel)

			if err := shutdown(t.Context()); err != nil {
				t.Fatalf("shutdown error = %v", err)
			}
		})
	}
}

func TestSetupTelemetry_EnabledInstallsAndRestores(t *testing.T) {
	sentinel := installGlobals(t)

	shutdown, err := observability.SetupTelemetry(t.Context(), &observability.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "localhost:4318",
		ServiceName: "pilot-test",
		Version:     "0.3.0",
		Commit:      "abc123",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("SetupTelemetry() error = %v", err)
	}

	tp := otel.GetTracerProvider()
	if _, isNoop := tp.(*noop.TracerProvider); isNoop || tp == sentinel {
		t.Fatalf("expected a fresh sdk provider, got %T", tp)
	}

	if err := shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}

	requireGlobals(t, sentinel)
}

func TestSetupTelemetry_CanceledShutdownStillRestores(t *testing.T) {
	sentinel := installGlobals(t)

	shutdown, err := observability.SetupTelemetry(t.Context(), &observability.TelemetryConfig{Enabled: true})
	if err != nil {
		t.Fatalf("SetupTelemetry() error = %v", err)
	}

	canceled, cancel := context.WithCancel(t.Context())
	cancel()

	_ = shutdown(canceled)

	requireGlobals(t, sentinel)
}

func TestIsTelemetryEnabled(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     bool
	}{
		{"unset", "", false},
		{"true", "true", true},
		{"upper case", "TRUE", true},
		{"one", "1", true},
		{"yes", "yes", true},
		{"false", "false", false},
		{"padded", "  yes  ", true},
		{"other", "on", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_ENABLED", tt.envValue)

			got := observability.IsTelemetryEnabled()
			if got != tt.want {
				t.Errorf("IsTelemetryEnabled() = %v, want %v (env=%q)", got, tt.want, tt.envValue)
			}
		})
	}
}

func TestTelemetryConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "pilot-ci")
	t.Setenv("OTEL_ENVIRONMENT", "staging")

	cfg := observability.TelemetryConfigFromEnv("1.2.0", "abc123")

	if !cfg.Enabled || cfg.ServiceName != "pilot-ci" || cfg.Environment != "staging" {
		t.Fatalf("TelemetryConfigFromEnv() = %+v", cfg)
	}

	if cfg.Version != "1.2.0" || cfg.Commit != "abc123" {
		t.Fatalf("build metadata not carried: %+v", cfg)
	}
}

func TestEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	tracer := tp.Tracer("pilot.test")

	_, ok := tracer.Start(t.Context(), "ok")
	observability.EndSpan(ok, nil)

	_, failed := tracer.Start(t.Context(), "failed")
	observability.EndSpan(failed, errors.New("backend unreachable"))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}

	if got := spans[0].Status().Code; got != codes.Ok {
		t.Errorf("ok span status = %v, want Ok", got)
	}

	if got := spans[1].Status(); got.Code != codes.Error || got.Description != "backend unreachable" {
		t.Errorf("failed span status = %+v", got)
	}

	if len(spans[1].Events()) != 1 {
		t.Errorf("failed span should carry one error event, got %d", len(spans[1].Events()))
	}
}
