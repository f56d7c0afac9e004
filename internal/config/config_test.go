package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Engine: EngineConfig{BaseURL: "http://localhost:8000"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Engine.Dialect != "st_within" {
		t.Errorf("dialect = %q", cfg.Engine.Dialect)
	}
	if cfg.Search.Table != "ubicaciones" || cfg.Search.MinRadiusKm != 1 || cfg.Search.MaxRadiusKm != 50 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Query.HistoryCapacity != 10 || len(cfg.Query.Tables) != 4 {
		t.Errorf("query = %+v", cfg.Query)
	}
	if cfg.Redis.KeyPrefix != "dbconsole:" {
		t.Errorf("key prefix = %q", cfg.Redis.KeyPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"missing base url", func(c *Config) { c.Engine.BaseURL = "" }, "engine.base_url is required"},
		{"relative base url", func(c *Config) { c.Engine.BaseURL = "localhost:8000" }, "absolute http(s) URL"},
		{"negative rps", func(c *Config) { c.Engine.RateLimitRPS = -1 }, "rate_limit_rps"},
		{"dialect", func(c *Config) { c.Engine.Dialect = "sql92" }, "engine.dialect"},
		{"radius bounds", func(c *Config) { c.Search.MinRadiusKm = 60 }, "min_radius_km"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("DBCONSOLE_TEST_ENGINE", "http://engine:8000")

	data := []byte(`
http:
  port: ${DBCONSOLE_TEST_PORT:-9090}
engine:
  base_url: ${DBCONSOLE_TEST_ENGINE}
  dialect: using_index
redis:
  addrs: []
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want default 9090", cfg.HTTP.Port)
	}
	if cfg.Engine.BaseURL != "http://engine:8000" {
		t.Errorf("base url = %q", cfg.Engine.BaseURL)
	}
	if cfg.Engine.Dialect != "using_index" {
		t.Errorf("dialect = %q", cfg.Engine.Dialect)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("load local: %v", err)
	}
	if cfg.HTTP.Port == 0 || cfg.Engine.BaseURL == "" {
		t.Errorf("cfg = %+v", cfg)
	}
}
