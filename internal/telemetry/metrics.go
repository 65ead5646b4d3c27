package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/wolfeidau/temple"

// Metrics holds the instruments recorded by the bundler and dev server.
type Metrics struct {
	BuildsTotal      metric.Int64Counter
	BuildErrorsTotal metric.Int64Counter
	BuildDuration    metric.Float64Histogram
	OutputBytes      metric.Int64Histogram

	ReloadsTotal  metric.Int64Counter
	ReloadClients metric.Int64UpDownCounter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the process-wide instruments. They bind to the global
// meter provider, so creating them before Init is fine.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// Tracer returns the tracer used for build spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"temple.builds.total",
		metric.WithDescription("Total number of builds"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"temple.builds.errors.total",
		metric.WithDescription("Total number of failed builds"),
		metric.WithUnit("{build}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"temple.builds.duration",
		metric.WithDescription("Duration of builds"),
		metric.WithUnit("ms"),
	)

	m.OutputBytes, _ = meter.Int64Histogram(
		"temple.builds.output.bytes",
		metric.WithDescription("Size of the bundles written by a build"),
		metric.WithUnit("By"),
	)

	m.ReloadsTotal, _ = meter.Int64Counter(
		"temple.devserver.reloads.total",
		metric.WithDescription("Total number of reload events sent"),
		metric.WithUnit("{event}"),
	)

	m.ReloadClients, _ = meter.Int64UpDownCounter(
		"temple.devserver.clients.active",
		metric.WithDescription("Number of connected live-reload clients"),
		metric.WithUnit("{client}"),
	)

	return m
}
