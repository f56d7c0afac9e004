package spatial

import (
	"context"

	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	"github.com/kailas-cloud/dbconsole/internal/querybuilder"
)

// Engine sends query strings to the database engine.
type Engine interface {
	Query(ctx context.Context, query string) (envelope.Envelope, error)
}

// QueryBuilder renders spatial containment queries.
type QueryBuilder interface {
	Within(table string, r querybuilder.Region) (string, error)
}
