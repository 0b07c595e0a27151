package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/packetflow/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric attribute keys.
const (
	AttrStage  = "stage"
	AttrKind   = "link.kind"
	AttrBranch = "branch"
	AttrStatus = "status"
)

// StageMetrics is an Observer that records stage activity as OpenTelemetry
// instruments.
type StageMetrics struct {
	received     metric.Int64Counter
	emitted      metric.Int64Counter
	dropped      metric.Int64Counter
	stageErrors  metric.Int64Counter
	activeStages metric.Int64UpDownCounter
	runDuration  metric.Float64Histogram

	startedAt sync.Map // stage -> time.Time
}

// NewStageMetrics creates metric instruments on the given meter.
func NewStageMetrics(meter metric.Meter) (*StageMetrics, error) {
	received, err := meter.Int64Counter("packetflow.items.received",
		metric.WithDescription("Items taken from a stage's ingress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating items.received counter: %w", err)
	}

	emitted, err := meter.Int64Counter("packetflow.items.emitted",
		metric.WithDescription("Items sent to a stage's egress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating items.emitted counter: %w", err)
	}

	dropped, err := meter.Int64Counter("packetflow.items.dropped",
		metric.WithDescription("Items dropped by an element or dispatcher"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating items.dropped counter: %w", err)
	}

	stageErrors, err := meter.Int64Counter("packetflow.stage.errors",
		metric.WithDescription("Stages that terminated with an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.errors counter: %w", err)
	}

	activeStages, err := meter.Int64UpDownCounter("packetflow.stages.active",
		metric.WithDescription("Number of currently running stage tasks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stages.active gauge: %w", err)
	}

	runDuration, err := meter.Float64Histogram("packetflow.stage.duration",
		metric.WithDescription("Wall time of stage tasks in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.duration histogram: %w", err)
	}

	return &StageMetrics{
		received:     received,
		emitted:      emitted,
		dropped:      dropped,
		stageErrors:  stageErrors,
		activeStages: activeStages,
		runDuration:  runDuration,
	}, nil
}

func (m *StageMetrics) StageStarted(ctx context.Context, stage, kind string) {
	m.startedAt.Store(stage, time.Now())
	m.activeStages.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrKind, kind)))
}

func (m *StageMetrics) StageFinished(ctx context.Context, stage, kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.stageErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String(AttrStage, stage),
			attribute.String(AttrKind, kind),
		))
	}
	m.activeStages.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrKind, kind)))
	if v, ok := m.startedAt.LoadAndDelete(stage); ok {
		m.runDuration.Record(ctx, time.Since(v.(time.Time)).Seconds(), metric.WithAttributes(
			attribute.String(AttrStage, stage),
			attribute.String(AttrKind, kind),
			attribute.String(AttrStatus, status),
		))
	}
}

func (m *StageMetrics) ItemReceived(ctx context.Context, stage string) {
	m.received.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, stage)))
}

func (m *StageMetrics) ItemEmitted(ctx context.Context, stage string, branch int) {
	m.emitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.Int(AttrBranch, branch),
	))
}

func (m *StageMetrics) ItemDropped(ctx context.Context, stage string) {
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, stage)))
}
