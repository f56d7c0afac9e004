package dbconsole

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/dbconsole/internal/db"
	"github.com/kailas-cloud/dbconsole/internal/db/memory"
	dbRedis "github.com/kailas-cloud/dbconsole/internal/db/redis"
	"github.com/kailas-cloud/dbconsole/internal/domain/area"
	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	"github.com/kailas-cloud/dbconsole/internal/domain/history"
	domindex "github.com/kailas-cloud/dbconsole/internal/domain/index"
	"github.com/kailas-cloud/dbconsole/internal/domain/point"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
	"github.com/kailas-cloud/dbconsole/internal/domain/tree"
	"github.com/kailas-cloud/dbconsole/internal/querybuilder"
	"github.com/kailas-cloud/dbconsole/internal/repository/savedquery"
	"github.com/kailas-cloud/dbconsole/internal/transport/engine"
	healthuc "github.com/kailas-cloud/dbconsole/internal/usecase/health"
	indexuc "github.com/kailas-cloud/dbconsole/internal/usecase/index"
	queryuc "github.com/kailas-cloud/dbconsole/internal/usecase/query"
	spatialuc "github.com/kailas-cloud/dbconsole/internal/usecase/spatial"
	uploaduc "github.com/kailas-cloud/dbconsole/internal/usecase/upload"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces so services can be replaced in tests.
type queryUseCase interface {
	Execute(ctx context.Context, text string) (queryuc.Execution, error)
	History(limit int) []history.Entry
	ExportCSV() ([]byte, error)
	Save(ctx context.Context, text string) (history.Saved, error)
	Saved(ctx context.Context) (history.Saved, error)
}

type spatialUseCase interface {
	Search(ctx context.Context, a area.Area) (spatialuc.Outcome, error)
	Snapshot() spatialuc.Snapshot
	History() []history.Entry
	ExportGeoJSON() ([]byte, error)
}

type indexUseCase interface {
	Catalog() []domindex.Descriptor
	Describe(kind domindex.Kind) (domindex.Descriptor, error)
	Scan(ctx context.Context, tableName string, kind domindex.Kind) (indexuc.ScanResult, error)
	Create(ctx context.Context, tableName string, kind domindex.Kind) (string, error)
	Tree() []tree.VisibleNode
	Toggle(nodeID string) ([]tree.VisibleNode, error)
}

type uploadUseCase interface {
	Upload(ctx context.Context, fileName, tableName string, size int64, r io.Reader) (envelope.Upload, error)
	Preview(r io.Reader, n int) (table.Result, int, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the dbconsole SDK entry point.
type Client struct {
	store      db.Store
	querySvc   queryUseCase
	spatialSvc spatialUseCase
	indexSvc   indexUseCase
	uploadSvc  uploadUseCase
	healthSvc  healthUseCase
	limits     area.Limits
	obs        *observer
}

// New creates a Client. When WithRedis is given the provided context bounds
// the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.engineURL == "" {
		return nil, errors.New("dbconsole: engine address required (use WithEngine)")
	}

	dialect, err := querybuilder.ParseDialect(cfg.dialect)
	if err != nil {
		return nil, fmt.Errorf("dbconsole: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return wireClient(store, cfg, querybuilder.New(dialect), obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	if len(cfg.redisAddrs) == 0 {
		return memory.NewStore(), nil
	}

	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("dbconsole: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("dbconsole: redis not ready: %w", err)
	}
	return s, nil
}

func wireClient(store db.Store, cfg *clientConfig, builder *querybuilder.Builder, obs *observer) *Client {
	eng := engine.NewClient(&engine.Config{
		BaseURL:        cfg.engineURL,
		Timeout:        cfg.timeout,
		RateLimitRPS:   cfg.rateRPS,
		RateLimitBurst: cfg.rateBurst,
		HTTPClient:     cfg.httpClient,
	})

	limits := area.DefaultLimits()
	if cfg.minRadiusKm > 0 {
		limits.MinRadiusKm = cfg.minRadiusKm
	}
	if cfg.maxRadiusKm > 0 {
		limits.MaxRadiusKm = cfg.maxRadiusKm
	}

	var seed []point.Point
	if cfg.seed {
		seed = point.Seed()
	}

	// Metrics of the saved query repo are exported by the server, not the SDK.
	saved := savedquery.New(store, cfg.keyPrefix, nil, nil)

	// Only a Redis store can fail, so the memory store is not health-checked.
	var pinger healthuc.StorePinger
	if len(cfg.redisAddrs) > 0 {
		pinger = store
	}

	return &Client{
		store: store,
		querySvc: queryuc.New(eng, saved, queryuc.Config{
			HistoryCapacity: cfg.historyCapacity,
		}),
		spatialSvc: spatialuc.New(eng, builder, spatialuc.Config{
			Table:           cfg.spatialTable,
			HistoryCapacity: cfg.historyCapacity,
			Seed:            seed,
		}),
		indexSvc:  indexuc.New(eng, builder, cfg.indexTable, nil),
		uploadSvc: uploaduc.New(eng, nil),
		healthSvc: healthuc.New(eng, pinger),
		limits:    limits,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Query sends text to the engine and returns the adapted table.
// Every attempt that reaches the engine is recorded in the history.
func (c *Client) Query(ctx context.Context, text string) (res QueryResult, err error) {
	op := c.obs.begin("query")
	defer func() { op.end(err) }()

	exec, err := c.querySvc.Execute(ctx, text)
	if err != nil {
		return QueryResult{}, err
	}
	op.stale = exec.Stale
	return QueryResult{
		Query:           exec.Query,
		Table:           tableFrom(exec.Result),
		ExecutionTimeMs: exec.ExecutionTimeMs,
		Stale:           exec.Stale,
	}, nil
}

// QueryHistory returns up to limit attempts, most recent first. limit <= 0 returns all.
func (c *Client) QueryHistory(limit int) []HistoryEntry {
	return entriesFrom(c.querySvc.History(limit))
}

// ExportCSV renders the latest query result as CSV.
// Returns ErrNotFound when no query has succeeded yet.
func (c *Client) ExportCSV() ([]byte, error) {
	return c.querySvc.ExportCSV()
}

// SaveQuery keeps text as the saved query, replacing any previous one.
func (c *Client) SaveQuery(ctx context.Context, text string) (saved SavedQuery, err error) {
	op := c.obs.begin("save_query")
	defer func() { op.end(err) }()

	s, err := c.querySvc.Save(ctx, text)
	if err != nil {
		return SavedQuery{}, err
	}
	return SavedQuery{Query: s.Query, SavedAt: s.SavedAt}, nil
}

// SavedQuery returns the saved query or ErrNotFound.
func (c *Client) SavedQuery(ctx context.Context) (SavedQuery, error) {
	s, err := c.querySvc.Saved(ctx)
	if err != nil {
		return SavedQuery{}, err
	}
	return SavedQuery{Query: s.Query, SavedAt: s.SavedAt}, nil
}

// Spatial returns the spatial search service.
func (c *Client) Spatial() *SpatialService {
	return &SpatialService{svc: c.spatialSvc, limits: c.limits, obs: c.obs}
}

// Indexes returns the index explorer.
func (c *Client) Indexes() *IndexService {
	return &IndexService{svc: c.indexSvc, obs: c.obs}
}

// Upload loads a CSV file into table. size is used when the engine does not
// report a file size. Non-CSV files fail with ErrUnsupportedFile.
func (c *Client) Upload(
	ctx context.Context, fileName, tableName string, size int64, r io.Reader,
) (res UploadResult, err error) {
	op := c.obs.begin("upload")
	defer func() { op.end(err) }()

	up, err := c.uploadSvc.Upload(ctx, fileName, tableName, size, r)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{
		FileName:    up.FileName,
		TableName:   up.TableName,
		FileSize:    up.FileSize,
		RecordCount: up.RecordCount,
		Inserted:    up.Inserted,
		Failed:      up.Failed,
		Preview:     Table{Headers: up.Headers, Rows: up.Rows},
		Message:     up.Message,
	}, nil
}

// PreviewCSV parses a CSV locally and returns its first rows with the total row count.
func (c *Client) PreviewCSV(r io.Reader) (Table, int, error) {
	res, total, err := c.uploadSvc.Preview(r, uploaduc.PreviewRows)
	if err != nil {
		return Table{}, 0, err
	}
	return tableFrom(res), total, nil
}
