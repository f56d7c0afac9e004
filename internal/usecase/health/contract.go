package health

import (
	"context"

	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
)

// StorePinger checks console state store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EngineChecker reads the database engine's health report.
type EngineChecker interface {
	Health(ctx context.Context) (envelope.Health, error)
}
