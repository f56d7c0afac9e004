// Package savedquery persists the query a user saved from the console.
package savedquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dbconsole/internal/db"
	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/history"
)

// DefaultKeyPrefix namespaces console keys.
const DefaultKeyPrefix = "dbconsole:"

const savedQueryKey = "saved_query"

// store is the consumer interface for saved queries (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo reads and writes the saved query.
type Repo struct {
	store  store
	key    string
	total  *prometheus.CounterVec
	logger *zap.Logger
}

// New creates a repository. total is a counter vec with label "result"
// ("hit"/"miss"), passed explicitly; nil disables counting.
func New(s store, keyPrefix string, total *prometheus.CounterVec, logger *zap.Logger) *Repo {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, key: keyPrefix + savedQueryKey, total: total, logger: logger}
}

// Save replaces the saved query.
func (r *Repo) Save(ctx context.Context, query string, at time.Time) error {
	data, err := json.Marshal(history.Saved{Query: query, SavedAt: at.UTC()})
	if err != nil {
		return fmt.Errorf("marshal saved query: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save query: %w", err)
	}
	return nil
}

// Get returns the saved query or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context) (history.Saved, error) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			r.inc("miss")
			return history.Saved{}, fmt.Errorf("saved query: %w", domain.ErrNotFound)
		}
		return history.Saved{}, fmt.Errorf("get saved query: %w", err)
	}

	var s history.Saved
	if err := json.Unmarshal(data, &s); err != nil {
		// Older values are the bare query text.
		r.logger.Debug("saved query is not a JSON record", zap.String("key", r.key), zap.Error(err))
		s = history.Saved{Query: string(data)}
	}
	r.inc("hit")
	return s, nil
}

func (r *Repo) inc(result string) {
	if r.total != nil {
		r.total.WithLabelValues(result).Inc()
	}
}
