package bootstrap

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"

	"github.com/kbukum/packetflow/component"
	"github.com/kbukum/packetflow/config"
	"github.com/kbukum/packetflow/observability"
)

// Telemetry is a component owning the OTLP meter and tracer providers.
// Its stage metrics are created against the global meter on construction
// and start exporting once Start installs the providers, so the observer
// can be handed to graph assembly before the component starts.
type Telemetry struct {
	cfg     config.Telemetry
	service config.ServiceConfig
	metrics *observability.StageMetrics

	mp *sdkmetric.MeterProvider
	tp *sdktrace.TracerProvider
}

// NewTelemetry creates the telemetry component.
func NewTelemetry(cfg config.Telemetry, service config.ServiceConfig) (*Telemetry, error) {
	metrics, err := observability.NewStageMetrics(observability.Meter(service.Name))
	if err != nil {
		return nil, fmt.Errorf("stage metrics: %w", err)
	}
	return &Telemetry{cfg: cfg, service: service, metrics: metrics}, nil
}

// Observer returns the metrics observer for graph assembly.
func (t *Telemetry) Observer() observability.Observer { return t.metrics }

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Start installs the global meter and tracer providers.
func (t *Telemetry) Start(ctx context.Context) error {
	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
		ServiceName:    t.service.Name,
		ServiceVersion: t.service.Version,
		Environment:    t.service.Environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		Interval:       t.cfg.Interval,
	})
	if err != nil {
		return err
	}
	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    t.service.Name,
		ServiceVersion: t.service.Version,
		Environment:    t.service.Environment,
		Endpoint:       t.cfg.Endpoint,
		Insecure:       t.cfg.Insecure,
		SampleRate:     t.cfg.SampleRate,
	})
	if err != nil {
		return multierr.Append(err, mp.Shutdown(ctx))
	}
	t.mp, t.tp = mp, tp
	return nil
}

// Stop flushes and shuts down both providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs error
	if t.tp != nil {
		errs = multierr.Append(errs, t.tp.Shutdown(ctx))
		t.tp = nil
	}
	if t.mp != nil {
		errs = multierr.Append(errs, t.mp.Shutdown(ctx))
		t.mp = nil
	}
	return errs
}

// Health reports healthy while the providers are installed.
func (t *Telemetry) Health(context.Context) component.Health {
	if t.mp == nil || t.tp == nil {
		return component.Health{Name: t.Name(), Status: component.StatusDegraded, Message: "not started"}
	}
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}
