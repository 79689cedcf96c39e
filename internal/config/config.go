package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/skobkin/msgsync/internal/domain"
)

const DefaultMetricsListenAddr = "127.0.0.1:9464"

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	Format    string `json:"format"`
	LogToFile bool   `json:"log_to_file"`
}

// StorageConfig points at the local message cache. An empty DBFile uses the app data dir.
type StorageConfig struct {
	DBFile string `json:"db_file"`
}

// RemoteConfig describes the authority mirrored by the gateway.
type RemoteConfig struct {
	UpstreamDBFile string `json:"upstream_db_file"`
	AuthorID       string `json:"author_id"`
}

// ControllerConfig holds defaults applied to every message controller.
type ControllerConfig struct {
	RepliesPageSize int    `json:"replies_page_size"`
	ListOrdering    string `json:"list_ordering"`
}

type MetricsConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen_addr"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Logging    LoggingConfig    `json:"logging"`
	Storage    StorageConfig    `json:"storage"`
	Remote     RemoteConfig     `json:"remote"`
	Controller ControllerConfig `json:"controller"`
	Metrics    MetricsConfig    `json:"metrics"`
}

func Default() AppConfig {
	return AppConfig{
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			LogToFile: false,
		},
		Remote: RemoteConfig{
			AuthorID: "local",
		},
		Controller: ControllerConfig{
			RepliesPageSize: domain.DefaultRepliesPageSize,
			ListOrdering:    domain.TopToBottom.String(),
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: DefaultMetricsListenAddr,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime or passed explicitly by the operator.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if strings.TrimSpace(c.Remote.AuthorID) == "" {
		c.Remote.AuthorID = "local"
	}
	if c.Controller.RepliesPageSize <= 0 {
		c.Controller.RepliesPageSize = domain.DefaultRepliesPageSize
	}
	if c.Controller.ListOrdering == "" {
		c.Controller.ListOrdering = domain.TopToBottom.String()
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = DefaultMetricsListenAddr
	}
}

// Ordering returns the parsed controller list ordering.
func (c AppConfig) Ordering() (domain.ListOrdering, error) {
	return domain.ParseListOrdering(c.Controller.ListOrdering)
}

func (c AppConfig) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}
	if c.Controller.RepliesPageSize <= 0 {
		return errors.New("replies page size must be positive")
	}
	if _, err := c.Ordering(); err != nil {
		return err
	}
	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.ListenAddr); err != nil {
			return fmt.Errorf("invalid metrics listen addr: %w", err)
		}
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
