package index

import (
	"context"

	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	domindex "github.com/kailas-cloud/dbconsole/internal/domain/index"
)

// Engine runs scans and index builds on the database engine.
type Engine interface {
	Query(ctx context.Context, query string) (envelope.Envelope, error)
	CreateIndex(ctx context.Context, table string, kind domindex.Kind) (envelope.Envelope, error)
}

// QueryBuilder renders index-forced scans.
type QueryBuilder interface {
	IndexScan(table string, kind domindex.Kind) (string, error)
}
