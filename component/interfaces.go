package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of the service: a running pipeline,
// the status endpoint, a telemetry provider.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start starts the component. It must not block for the component's lifetime.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Func adapts start and stop functions into a Component that is healthy
// while started.
type Func struct {
	ComponentName string
	OnStart       func(ctx context.Context) error
	OnStop        func(ctx context.Context) error

	started bool
}

func (f *Func) Name() string { return f.ComponentName }

func (f *Func) Start(ctx context.Context) error {
	if f.OnStart != nil {
		if err := f.OnStart(ctx); err != nil {
			return err
		}
	}
	f.started = true
	return nil
}

func (f *Func) Stop(ctx context.Context) error {
	f.started = false
	if f.OnStop != nil {
		return f.OnStop(ctx)
	}
	return nil
}

func (f *Func) Health(context.Context) Health {
	if !f.started {
		return Health{Name: f.ComponentName, Status: StatusUnhealthy, Message: "not started"}
	}
	return Health{Name: f.ComponentName, Status: StatusHealthy}
}
