package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skobkin/msgsync/internal/domain"
)

func TestAppConfigFillMissingDefaults(t *testing.T) {
	cfg := AppConfig{}
	cfg.FillMissingDefaults()

	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("expected default log format text, got %q", cfg.Logging.Format)
	}
	if cfg.Controller.RepliesPageSize != domain.DefaultRepliesPageSize {
		t.Fatalf("expected default page size %d, got %d", domain.DefaultRepliesPageSize, cfg.Controller.RepliesPageSize)
	}
	if cfg.Controller.ListOrdering != "top_to_bottom" {
		t.Fatalf("expected default ordering top_to_bottom, got %q", cfg.Controller.ListOrdering)
	}
	if cfg.Metrics.ListenAddr != DefaultMetricsListenAddr {
		t.Fatalf("expected default metrics addr %q, got %q", DefaultMetricsListenAddr, cfg.Metrics.ListenAddr)
	}
	if cfg.Remote.AuthorID != "local" {
		t.Fatalf("expected default author local, got %q", cfg.Remote.AuthorID)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadPartialFileKeepsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
  "controller": {
    "list_ordering": "bottom_to_top"
  },
  "metrics": {
    "enabled": true
  }
}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ordering, err := cfg.Ordering()
	if err != nil {
		t.Fatalf("parse ordering: %v", err)
	}
	if ordering != domain.BottomToTop {
		t.Fatalf("expected bottom_to_top, got %s", ordering)
	}
	if cfg.Controller.RepliesPageSize != domain.DefaultRepliesPageSize {
		t.Fatalf("expected default page size, got %d", cfg.Controller.RepliesPageSize)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.ListenAddr != DefaultMetricsListenAddr {
		t.Fatalf("expected metrics enabled on default addr, got %+v", cfg.Metrics)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"logging":`), 0o600); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestAppConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*AppConfig) {}},
		{name: "json logs", mutate: func(c *AppConfig) { c.Logging.Format = "json" }},
		{name: "unknown format", mutate: func(c *AppConfig) { c.Logging.Format = "xml" }, wantErr: "log format"},
		{name: "zero page size", mutate: func(c *AppConfig) { c.Controller.RepliesPageSize = 0 }, wantErr: "page size"},
		{name: "unknown ordering", mutate: func(c *AppConfig) { c.Controller.ListOrdering = "sideways" }, wantErr: "list ordering"},
		{name: "bad metrics addr", mutate: func(c *AppConfig) {
			c.Metrics.Enabled = true
			c.Metrics.ListenAddr = "nope"
		}, wantErr: "metrics listen addr"},
		{name: "bad addr ignored when disabled", mutate: func(c *AppConfig) { c.Metrics.ListenAddr = "nope" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Storage.DBFile = "/tmp/cache.db"
	cfg.Controller.RepliesPageSize = 10

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("expected %+v, got %+v", cfg, loaded)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed, stat err: %v", err)
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Controller.RepliesPageSize = -1

	if err := Save(filepath.Join(t.TempDir(), "config.json"), cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}
