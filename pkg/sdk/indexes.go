package dbconsole

import (
	"context"
	"strings"

	domindex "github.com/kailas-cloud/dbconsole/internal/domain/index"
)

// IndexService explores the engine's index structures.
type IndexService struct {
	svc indexUseCase
	obs *observer
}

// List returns every index structure in display order.
func (s *IndexService) List() []IndexInfo {
	catalog := s.svc.Catalog()
	out := make([]IndexInfo, len(catalog))
	for i, d := range catalog {
		out[i] = indexInfoFrom(d)
	}
	return out
}

// Get describes one index kind. Unknown kinds return ErrNotFound.
func (s *IndexService) Get(kind string) (IndexInfo, error) {
	d, err := s.svc.Describe(domindex.Kind(strings.ToLower(kind)))
	if err != nil {
		return IndexInfo{}, err
	}
	return indexInfoFrom(d), nil
}

// Scan runs `SELECT * FROM table USING kind`. An empty table uses the default.
func (s *IndexService) Scan(ctx context.Context, table, kind string) (res ScanResult, err error) {
	op := s.obs.begin("index_scan")
	defer func() { op.end(err) }()

	k := domindex.Kind(strings.ToLower(kind))
	if _, err = s.svc.Describe(k); err != nil {
		return ScanResult{}, err
	}

	sr, err := s.svc.Scan(ctx, table, k)
	if err != nil {
		return ScanResult{}, err
	}
	res = ScanResult{Query: sr.Query, Kind: string(sr.Kind), Raw: sr.Raw}
	if sr.Table != nil {
		t := tableFrom(*sr.Table)
		res.Table = &t
	}
	return res, nil
}

// Create asks the engine to build an index and returns its confirmation message.
func (s *IndexService) Create(ctx context.Context, table, kind string) (msg string, err error) {
	op := s.obs.begin("index_create")
	defer func() { op.end(err) }()

	return s.svc.Create(ctx, table, domindex.Kind(strings.ToLower(kind)))
}

// Tree returns the visible nodes of the illustrative B+ tree.
func (s *IndexService) Tree() []TreeNode {
	return nodesFrom(s.svc.Tree())
}

// Toggle expands or collapses a tree node. Unknown ids return ErrNotFound.
func (s *IndexService) Toggle(nodeID string) ([]TreeNode, error) {
	nodes, err := s.svc.Toggle(nodeID)
	if err != nil {
		return nil, err
	}
	return nodesFrom(nodes), nil
}
