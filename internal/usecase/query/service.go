// Package query implements the free-form query console.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dbconsole/internal/adapter"
	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/history"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
)

// DefaultTables lists the tables offered by the console when none are configured.
var DefaultTables = []string{"usuarios", "productos", "ventas", "ubicaciones"}

var samples = []string{
	"SELECT * FROM usuarios WHERE edad > 25",
	"SELECT ciudad, COUNT(*) as total FROM usuarios GROUP BY ciudad",
	"SELECT * FROM usuarios WHERE latitud BETWEEN -15 AND -10",
	"SELECT nombre, edad FROM usuarios ORDER BY edad DESC LIMIT 5",
}

// Execution is one completed query.
type Execution struct {
	Seq             uint64
	Query           string
	Result          table.Result
	ExecutionTimeMs int64
	Entry           history.Entry
	// Stale is set when a newer query was issued before this one finished;
	// its result is not the one the console shows.
	Stale bool
}

// Config holds query console settings.
type Config struct {
	HistoryCapacity int
	Tables          []string
	Logger          *zap.Logger
	Clock           func() time.Time
}

// Service runs queries and keeps the console's history and latest result.
type Service struct {
	engine  Engine
	saved   SavedStore
	history *history.Store
	tables  []string
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	seq    uint64
	latest *Execution
}

// New creates a query console. saved may be nil.
func New(engine Engine, saved SavedStore, cfg Config) *Service {
	tables := cfg.Tables
	if len(tables) == 0 {
		tables = DefaultTables
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		engine:  engine,
		saved:   saved,
		history: history.NewStore(cfg.HistoryCapacity),
		tables:  append([]string(nil), tables...),
		logger:  logger,
		now:     now,
	}
}

// Execute sends text to the engine and adapts the tabular result.
// Every attempt that reaches the engine is recorded, failures included.
func (s *Service) Execute(ctx context.Context, text string) (Execution, error) {
	q := strings.TrimSpace(text)
	if q == "" {
		return Execution{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidParameter)
	}

	s.mu.Lock()
	s.seq++
	n := s.seq
	s.mu.Unlock()

	start := s.now()
	env, err := s.engine.Query(ctx, q)
	var res table.Result
	if err == nil {
		res, err = adapter.Tabular(env)
	}
	took := s.now().Sub(start)

	status := history.Success
	if err != nil {
		status = history.Error
	}
	entry := history.NewEntry(q, start, took, status)
	s.history.Record(entry)

	if err != nil {
		s.logger.Info("query failed", zap.String("query", q), zap.Error(err))
		return Execution{}, fmt.Errorf("execute query: %w", err)
	}

	exec := Execution{
		Seq:             n,
		Query:           q,
		Result:          res,
		ExecutionTimeMs: entry.ExecutionTimeMs,
		Entry:           entry,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n != s.seq {
		exec.Stale = true
		s.logger.Debug("query result superseded", zap.Uint64("seq", n), zap.Uint64("latest", s.seq))
		return exec, nil
	}
	s.latest = &exec
	return exec, nil
}

// Latest returns the most recent applied result.
func (s *Service) Latest() (Execution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Execution{}, false
	}
	return *s.latest, true
}

// ExportCSV renders the latest result as CSV.
func (s *Service) ExportCSV() ([]byte, error) {
	exec, ok := s.Latest()
	if !ok {
		return nil, fmt.Errorf("no result to export: %w", domain.ErrNotFound)
	}
	return exec.Result.CSV()
}

// History returns up to limit entries, most recent first. limit <= 0 returns all.
func (s *Service) History(limit int) []history.Entry {
	all := s.history.All()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Samples returns example queries.
func (s *Service) Samples() []string {
	return append([]string(nil), samples...)
}

// Tables returns the table names offered to the user.
func (s *Service) Tables() []string {
	return append([]string(nil), s.tables...)
}

// Save keeps text as the saved query.
func (s *Service) Save(ctx context.Context, text string) (history.Saved, error) {
	q := strings.TrimSpace(text)
	if q == "" {
		return history.Saved{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidParameter)
	}
	if s.saved == nil {
		return history.Saved{}, fmt.Errorf("saved queries are disabled: %w", domain.ErrNotFound)
	}
	at := s.now()
	if err := s.saved.Save(ctx, q, at); err != nil {
		return history.Saved{}, fmt.Errorf("save query: %w", err)
	}
	return history.Saved{Query: q, SavedAt: at.UTC()}, nil
}

// Saved returns the saved query or ErrNotFound.
func (s *Service) Saved(ctx context.Context) (history.Saved, error) {
	if s.saved == nil {
		return history.Saved{}, fmt.Errorf("saved queries are disabled: %w", domain.ErrNotFound)
	}
	saved, err := s.saved.Get(ctx)
	if err != nil {
		return history.Saved{}, fmt.Errorf("load saved query: %w", err)
	}
	return saved, nil
}
