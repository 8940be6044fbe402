package component

import "context"

// HealthStatus is the state a component reports. The zero value is not a
// valid status.
type HealthStatus string

// Statuses ordered from best to worst.
const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worst returns the worse of s and other. An unknown status counts as
// unhealthy.
func (s HealthStatus) Worst(other HealthStatus) HealthStatus {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// Health is one component's answer to a health probe.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Overall folds a set of health reports into a single status. An empty
// set is healthy.
func Overall(hs []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range hs {
		status = status.Worst(h.Status)
	}
	return status
}

// Component is infrastructure started before a run and stopped after
// it, such as the storage backend or the status server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description summarizes a component's configuration for startup logs.
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable components are logged with their Description when started.
type Describable interface {
	Describe() Description
}
