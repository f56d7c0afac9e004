// Package index implements the index explorer: catalog, scans, index builds and the tree view.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dbconsole/internal/adapter"
	"github.com/kailas-cloud/dbconsole/internal/domain"
	domindex "github.com/kailas-cloud/dbconsole/internal/domain/index"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
	"github.com/kailas-cloud/dbconsole/internal/domain/tree"
	"github.com/kailas-cloud/dbconsole/internal/querybuilder"
)

// DefaultTable is scanned when a request names no table.
const DefaultTable = "Restaurantes"

// ScanResult is the engine's answer to an index-forced scan.
type ScanResult struct {
	Query string
	Kind  domindex.Kind
	// Raw is the result exactly as the engine sent it.
	Raw json.RawMessage
	// Table is set when Raw has a tabular shape.
	Table *table.Result
}

// Service is the index explorer.
type Service struct {
	engine  Engine
	builder QueryBuilder
	table   string
	logger  *zap.Logger

	root tree.Node
	view *tree.ViewState
}

// New creates an index explorer over table (DefaultTable when empty).
func New(engine Engine, builder QueryBuilder, table string, logger *zap.Logger) *Service {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:  engine,
		builder: builder,
		table:   table,
		logger:  logger,
		root:    tree.SampleBPlusTree(),
		view:    tree.NewViewState(tree.RootID),
	}
}

// Table returns the table used when a request names none.
func (s *Service) Table() string { return s.table }

// Catalog lists every index structure in display order.
func (s *Service) Catalog() []domindex.Descriptor {
	return domindex.All()
}

// Describe returns the descriptor of kind.
func (s *Service) Describe(kind domindex.Kind) (domindex.Descriptor, error) {
	d, ok := domindex.Lookup(kind)
	if !ok {
		return domindex.Descriptor{}, fmt.Errorf("index kind %q: %w", kind, domain.ErrNotFound)
	}
	return d, nil
}

// Scan runs `SELECT * FROM table USING kind`.
func (s *Service) Scan(ctx context.Context, tableName string, kind domindex.Kind) (ScanResult, error) {
	if tableName == "" {
		tableName = s.table
	}
	q, err := s.builder.IndexScan(tableName, kind)
	if err != nil {
		return ScanResult{}, fmt.Errorf("build scan: %w", err)
	}

	env, err := s.engine.Query(ctx, q)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan %s: %w", kind, err)
	}

	res := ScanResult{Query: q, Kind: kind, Raw: env.Result}
	tab, err := adapter.Tabular(env)
	switch {
	case err == nil:
		res.Table = &tab
	case errors.Is(err, domain.ErrMalformedResponse) && env.OK:
		s.logger.Debug("scan result is not tabular", zap.String("kind", string(kind)), zap.Error(err))
	default:
		return ScanResult{}, fmt.Errorf("scan %s: %w", kind, err)
	}
	return res, nil
}

// Create asks the engine to build an index and returns its confirmation message.
func (s *Service) Create(ctx context.Context, tableName string, kind domindex.Kind) (string, error) {
	if tableName == "" {
		tableName = s.table
	}
	if err := querybuilder.ValidateTable(tableName); err != nil {
		return "", err
	}
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: unknown index kind %q", domain.ErrInvalidParameter, kind)
	}

	env, err := s.engine.CreateIndex(ctx, tableName, kind)
	if err != nil {
		return "", fmt.Errorf("create %s index: %w", kind, err)
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			return "", fmt.Errorf("create %s index: %w", kind, domain.ErrMalformedResponse)
		}
		return "", domain.NewRemoteError(msg)
	}

	s.logger.Info("index created", zap.String("kind", string(kind)), zap.String("table", tableName))
	if env.Message != "" {
		return env.Message, nil
	}
	return fmt.Sprintf("%s index created on %s", kind, tableName), nil
}

// Tree returns the visible nodes of the sample B+ tree.
func (s *Service) Tree() []tree.VisibleNode {
	return s.view.Visible(&s.root)
}

// Toggle expands or collapses nodeID and returns the new visible nodes.
func (s *Service) Toggle(nodeID string) ([]tree.VisibleNode, error) {
	if _, ok := s.root.Find(nodeID); !ok {
		return nil, fmt.Errorf("tree node %q: %w", nodeID, domain.ErrNotFound)
	}
	s.view.Toggle(nodeID)
	return s.Tree(), nil
}
