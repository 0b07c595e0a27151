package observability

import (
	"context"
	"fmt"
	"sort"
)

// HealthStatus is the state reported by /healthz, ordered up < degraded < down.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUp:
		return 0
	case HealthStatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worse returns the more severe of a and b. Unknown values count as down.
func Worse(a, b HealthStatus) HealthStatus {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// Health is one entry of a health report: a component or the stage set.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth is the aggregate report; its status is the worst entry's.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker reports the health of whatever it watches.
type HealthChecker interface {
	CheckHealth(ctx context.Context) []Health
}

// NewServiceHealth starts an empty report that is up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent appends h and folds its status into the aggregate.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)
	sh.Status = Worse(sh.Status, h.Status)
}

// Collect runs every checker and adds their entries in order.
func (sh *ServiceHealth) Collect(ctx context.Context, checkers ...HealthChecker) {
	for _, c := range checkers {
		for _, h := range c.CheckHealth(ctx) {
			sh.AddComponent(h)
		}
	}
}

// CheckHealth reports a single "stages" entry that is down when any stage
// finished with an error. Details map each failed stage to its error.
func (s *Stats) CheckHealth(context.Context) []Health {
	snaps := s.Snapshot()
	h := Health{Name: "stages", Status: HealthStatusUp}

	var failed []string
	running := 0
	for _, snap := range snaps {
		if snap.Running {
			running++
		}
		if snap.Error == "" {
			continue
		}
		if h.Details == nil {
			h.Details = make(map[string]string)
		}
		h.Details[snap.Stage] = snap.Error
		failed = append(failed, snap.Stage)
	}
	sort.Strings(failed)

	if len(failed) > 0 {
		h.Status = HealthStatusDown
		h.Message = fmt.Sprintf("%d of %d stages failed: %v", len(failed), len(snaps), failed)
		return []Health{h}
	}
	h.Message = fmt.Sprintf("%d of %d stages running", running, len(snaps))
	return []Health{h}
}
