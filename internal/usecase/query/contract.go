package query

import (
	"context"
	"time"

	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	"github.com/kailas-cloud/dbconsole/internal/domain/history"
)

// Engine sends query strings to the database engine.
type Engine interface {
	Query(ctx context.Context, query string) (envelope.Envelope, error)
}

// SavedStore keeps the single saved query.
type SavedStore interface {
	Save(ctx context.Context, query string, at time.Time) error
	Get(ctx context.Context) (history.Saved, error)
}
