package dbconsole

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	engineURL  string
	timeout    time.Duration
	httpClient *http.Client
	rateRPS    float64
	rateBurst  int
	dialect    string

	spatialTable    string
	indexTable      string
	seed            bool
	minRadiusKm     float64
	maxRadiusKm     float64
	historyCapacity int

	redisAddrs    []string
	redisPassword string
	keyPrefix     string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEngine sets the base URL of the database engine. Required.
func WithEngine(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.engineURL = baseURL
	})
}

// WithTimeout bounds every engine request. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPClient replaces the HTTP client used to reach the engine.
// The client's own timeout applies; WithTimeout is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRateLimit throttles engine requests to rps with the given burst.
// Default: unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateRPS = rps
		c.rateBurst = burst
	})
}

// WithDialect selects how spatial containment is rendered:
// "st_within" (default) or "using_index".
func WithDialect(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dialect = name
	})
}

// WithSpatialTable sets the table spatial searches run against.
// Default: ubicaciones.
func WithSpatialTable(table string) Option {
	return optionFunc(func(c *clientConfig) {
		c.spatialTable = table
	})
}

// WithIndexTable sets the table index scans use when none is given.
// Default: Restaurantes.
func WithIndexTable(table string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexTable = table
	})
}

// WithDemoSeed shows the demo points of central Lima before the first search.
func WithDemoSeed() Option {
	return optionFunc(func(c *clientConfig) {
		c.seed = true
	})
}

// WithRadiusLimits bounds the search radius in kilometers. Default: 1..50.
func WithRadiusLimits(minKm, maxKm float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minRadiusKm = minKm
		c.maxRadiusKm = maxKm
	})
}

// WithHistoryCapacity sets how many attempts the query and spatial
// histories keep. Default: 10.
func WithHistoryCapacity(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.historyCapacity = n
	})
}

// WithRedis keeps the saved query in a Redis instance instead of memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithKeyPrefix namespaces the keys written to Redis. Default: "dbconsole:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
