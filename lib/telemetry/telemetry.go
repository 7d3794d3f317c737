package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"misattend/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const ConfigFile = "telemetry.json5"

// Tracer returns a named tracer from the global provider, it is safe to call before Setup.
func Tracer(name string) oteltrace.Tracer {
	return otel.Tracer(name)
}

// Exporter is one otlp destination, an empty endpoint leaves the signal disabled.
type Exporter struct {
	Endpoint string `json:"endpoint"`
	// Protocol is "http" (default) or "grpc".
	Protocol string            `json:"protocol"`
	Headers  map[string]string `json:"headers"`
}

func (e Exporter) grpc() bool {
	return e.Protocol == "grpc"
}

func (e Exporter) validate(signal string) error {
	switch e.Protocol {
	case "", "http", "grpc":
		return nil
	}
	return fmt.Errorf("telemetry: %s exporter has unknown protocol %q", signal, e.Protocol)
}

type Config struct {
	Traces  Exporter `json:"traces"`
	Metrics Exporter `json:"metrics"`
	// MetricIntervalSeconds defaults to 15.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

// Telemetry flushes whatever Setup installed.
type Telemetry struct {
	shutdown []func(context.Context) error
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}

var (
	testSetupMu   sync.Mutex
	testSetupDone = map[string]bool{}
)

// SetupForTesting sets up telemetry once per service name. A missing telemetry.json5
// leaves the no-op providers in place.
func SetupForTesting(t testing.TB, serviceName string) func() {
	testSetupMu.Lock()
	defer testSetupMu.Unlock()
	if testSetupDone[serviceName] {
		return func() {}
	}
	testSetupDone[serviceName] = true

	InitSlog(testing.Verbose())

	ctx := context.Background()
	tel, err := SetupFromEnv(ctx, serviceName)
	if errors.Is(err, os.ErrNotExist) {
		return func() {}
	}
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := tel.Shutdown(ctx)
		if err != nil {
			t.Fatal(err)
		}
	}
}

// SetupFromEnv reads the nearest telemetry.json5 walking up from the cwd,
// os.ErrNotExist is returned when there is none.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config](ConfigFile)
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}

// Setup installs the global trace and meter providers for every configured signal.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	err := errors.Join(config.Traces.validate("traces"), config.Metrics.validate("metrics"))
	if err != nil {
		return Telemetry{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return Telemetry{}, err
	}

	var tel Telemetry
	if config.Traces.Endpoint != "" {
		exporter, err := newSpanExporter(ctx, config.Traces)
		if err != nil {
			return Telemetry{}, fmt.Errorf("trace exporter: %w", err)
		}
		provider := trace.NewTracerProvider(trace.WithBatcher(exporter), trace.WithResource(r))
		otel.SetTracerProvider(provider)
		tel.shutdown = append(tel.shutdown, provider.Shutdown)
		slog.Info("exporting traces", "endpoint", config.Traces.Endpoint, "grpc", config.Traces.grpc())
	}

	if config.Metrics.Endpoint != "" {
		exporter, err := newMetricExporter(ctx, config.Metrics)
		if err != nil {
			return Telemetry{}, errors.Join(fmt.Errorf("metric exporter: %w", err), tel.Shutdown(ctx))
		}
		interval := time.Duration(config.MetricIntervalSeconds) * time.Second
		if interval <= 0 {
			interval = 15 * time.Second
		}
		provider := metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
			metric.WithResource(r),
		)
		otel.SetMeterProvider(provider)
		tel.shutdown = append(tel.shutdown, provider.Shutdown)
		slog.Info("exporting metrics", "endpoint", config.Metrics.Endpoint, "grpc", config.Metrics.grpc())
	}

	return tel, nil
}

func newSpanExporter(ctx context.Context, e Exporter) (trace.SpanExporter, error) {
	if e.grpc() {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(e.Endpoint), otlptracegrpc.WithHeaders(e.Headers))
	}
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(e.Endpoint), otlptracehttp.WithHeaders(e.Headers))
}

func newMetricExporter(ctx context.Context, e Exporter) (metric.Exporter, error) {
	if e.grpc() {
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(e.Endpoint), otlpmetricgrpc.WithHeaders(e.Headers))
	}
	return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(e.Endpoint), otlpmetrichttp.WithHeaders(e.Headers))
}
