package telemetry

import "sync"

// HealthTracker aggregates per-component readiness into one report.
type HealthTracker struct {
	mu         sync.Mutex
	components map[string]bool
}

type HealthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{components: make(map[string]bool)}
}

// SetReady marks a component healthy or unhealthy.
func (t *HealthTracker) SetReady(component string, ready bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.components[component] = ready
}

// Report returns the aggregate status: "ok" only when every registered
// component is ready.
func (t *HealthTracker) Report() HealthReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := HealthReport{Status: "ok"}
	if len(t.components) == 0 {
		return report
	}

	report.Components = make(map[string]string, len(t.components))
	for name, ready := range t.components {
		state := "ok"
		if !ready {
			state = "unavailable"
			report.Status = "degraded"
		}
		report.Components[name] = state
	}
	return report
}
