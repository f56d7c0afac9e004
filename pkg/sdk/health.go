package dbconsole

import (
	"context"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status        string            // "ok", "degraded", "error"
	Checks        map[string]string // component → "ok"/"error"
	EngineMessage string
}

// Health checks the engine and, when Redis is used, the saved query store.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:        string(report.Status),
		Checks:        checks,
		EngineMessage: report.EngineMessage,
	}
}
