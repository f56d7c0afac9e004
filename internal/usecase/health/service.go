package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	// EngineMessage is the engine's own status text, when it answered.
	EngineMessage string
}

// Service coordinates health checks.
type Service struct {
	engine EngineChecker
	store  StorePinger
}

// New creates a Service. store can be nil.
func New(engine EngineChecker, store StorePinger) *Service {
	return &Service{engine: engine, store: store}
}

// Check runs health checks against all components.
// The report is Unhealthy only when every component fails.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var msg string

	h, err := s.engine.Health(ctx)
	switch {
	case err != nil:
		checks["engine"] = CheckError
	case h.Status != string(Healthy):
		checks["engine"] = CheckError
		msg = h.Message
	default:
		checks["engine"] = CheckOK
		msg = h.Message
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = CheckError
		} else {
			checks["store"] = CheckOK
		}
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks, EngineMessage: msg}
}
