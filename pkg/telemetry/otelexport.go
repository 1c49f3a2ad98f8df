package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OTelExporter subscribes to a Bus and records run/step events as
// OpenTelemetry metrics, exported through the Prometheus exporter's
// pull model (no push endpoint or collector agent required).
type OTelExporter struct {
	provider *sdkmetric.MeterProvider

	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	stepsTotal   metric.Int64Counter
	stepDuration metric.Float64Histogram
}

// NewOTelExporter builds an exporter with its own Prometheus-backed
// MeterProvider, scoped to serviceName/version.
func NewOTelExporter(serviceName, version string) (*OTelExporter, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("telemetry: building prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	meter := provider.Meter("waitcore")

	runsTotal, err := meter.Int64Counter(
		"waitcore_runs_total",
		metric.WithDescription("Total number of workflow runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram(
		"waitcore_run_duration_seconds",
		metric.WithDescription("Workflow run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	stepsTotal, err := meter.Int64Counter(
		"waitcore_steps_total",
		metric.WithDescription("Total number of workflow steps executed"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, err
	}
	stepDuration, err := meter.Float64Histogram(
		"waitcore_step_duration_seconds",
		metric.WithDescription("Step execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &OTelExporter{
		provider:     provider,
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		stepsTotal:   stepsTotal,
		stepDuration: stepDuration,
	}, nil
}

// Attach registers the exporter's handlers on bus, so every future
// EmitRun/EmitStep call also updates the OpenTelemetry instruments.
func (e *OTelExporter) Attach(bus *Bus) {
	bus.OnRun(e.recordRun)
	bus.OnStep(e.recordSteps)
}

func (e *OTelExporter) recordRun(ev RunEvent) {
	if ev.FinishedAt == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("workflow", ev.WorkflowID),
		attribute.String("status", ev.Status),
	}
	ctx := context.Background()
	e.runsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if ev.DurationMs != nil {
		e.runDuration.Record(ctx, float64(*ev.DurationMs)/1000, metric.WithAttributes(attrs...))
	}
}

func (e *OTelExporter) recordSteps(batch []StepEvent) {
	ctx := context.Background()
	for _, ev := range batch {
		if ev.Status != StepSuccess && ev.Status != StepFailure && ev.Status != StepSkipped {
			continue
		}
		attrs := []attribute.KeyValue{
			attribute.String("workflow", ev.WorkflowID),
			attribute.String("step", ev.StepID),
			attribute.String("status", string(ev.Status)),
		}
		e.stepsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		if ev.DurationMs != nil {
			e.stepDuration.Record(ctx, float64(*ev.DurationMs)/1000, metric.WithAttributes(attrs...))
		}
	}
}

// Handler returns an http.Handler serving the merged Prometheus
// registry's /metrics exposition, for wiring into any mux.
func (e *OTelExporter) Handler() http.Handler {
	return promhttp.Handler()
}

// Shutdown releases the underlying MeterProvider's resources.
func (e *OTelExporter) Shutdown(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
