package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the dbconsole configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Engine  EngineConfig  `yaml:"engine"`
	Search  SearchConfig  `yaml:"search"`
	Query   QueryConfig   `yaml:"query"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int64 `yaml:"max_upload_mb"`
}

// EngineConfig holds the remote database engine connection.
type EngineConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	Dialect        string  `yaml:"dialect"` // st_within (default) | using_index
}

// SearchConfig holds spatial search settings.
type SearchConfig struct {
	Table           string  `yaml:"table"`
	MinRadiusKm     float64 `yaml:"min_radius_km"`
	MaxRadiusKm     float64 `yaml:"max_radius_km"`
	HistoryCapacity int     `yaml:"history_capacity"`
	SeedDemo        bool    `yaml:"seed_demo"` // show demo points before the first search
}

// QueryConfig holds query console settings.
type QueryConfig struct {
	HistoryCapacity int      `yaml:"history_capacity"`
	Tables          []string `yaml:"tables"`
	IndexTable      string   `yaml:"index_table"`
}

// RedisConfig holds the saved query store. Empty addrs keeps state in memory.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded into the environment first.
func Load(env string) (Config, error) {
	_ = godotenv.Load(".env")

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML with ${VAR} substitution, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.Engine.TimeoutSec <= 0 {
		c.Engine.TimeoutSec = 30
	}
	if c.Engine.RateLimitBurst <= 0 {
		c.Engine.RateLimitBurst = 5
	}
	if c.Engine.Dialect == "" {
		c.Engine.Dialect = "st_within"
	}
	if c.Search.Table == "" {
		c.Search.Table = "ubicaciones"
	}
	if c.Search.MinRadiusKm <= 0 {
		c.Search.MinRadiusKm = 1
	}
	if c.Search.MaxRadiusKm <= 0 {
		c.Search.MaxRadiusKm = 50
	}
	if c.Search.HistoryCapacity <= 0 {
		c.Search.HistoryCapacity = 10
	}
	if c.Query.HistoryCapacity <= 0 {
		c.Query.HistoryCapacity = 10
	}
	if len(c.Query.Tables) == 0 {
		c.Query.Tables = []string{"usuarios", "productos", "ventas", "ubicaciones"}
	}
	if c.Query.IndexTable == "" {
		c.Query.IndexTable = "Restaurantes"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "dbconsole:"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	u, err := url.Parse(c.Engine.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("engine.base_url must be an absolute http(s) URL, got %q", c.Engine.BaseURL)
	}
	if c.Engine.RateLimitRPS < 0 {
		return fmt.Errorf("engine.rate_limit_rps must not be negative, got %g", c.Engine.RateLimitRPS)
	}
	switch c.Engine.Dialect {
	case "st_within", "using_index":
		// ok
	default:
		return fmt.Errorf("engine.dialect must be \"st_within\" or \"using_index\", got %q", c.Engine.Dialect)
	}
	if c.Search.MinRadiusKm > c.Search.MaxRadiusKm {
		return fmt.Errorf("search.min_radius_km (%g) must not exceed search.max_radius_km (%g)",
			c.Search.MinRadiusKm, c.Search.MaxRadiusKm)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
