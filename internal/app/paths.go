package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths stores resolved runtime file locations.
type Paths struct {
	RootDir        string
	ConfigFile     string
	DBFile         string
	UpstreamDBFile string
	LogFile        string
}

// ResolvePaths uses dataDir when set and the per-user config dir otherwise.
// The root directory is created if missing.
func ResolvePaths(dataDir string) (Paths, error) {
	root := strings.TrimSpace(dataDir)
	if root == "" {
		cfgRoot, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve config dir: %w", err)
		}
		root = filepath.Join(cfgRoot, Name)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return Paths{}, fmt.Errorf("create app data dir: %w", err)
	}

	return Paths{
		RootDir:        root,
		ConfigFile:     filepath.Join(root, ConfigFilename),
		DBFile:         filepath.Join(root, DBFilename),
		UpstreamDBFile: filepath.Join(root, UpstreamDBFilename),
		LogFile:        filepath.Join(root, LogFilename),
	}, nil
}

// withOverrides applies the storage locations set in config.
func (p Paths) withOverrides(dbFile, upstreamDBFile string) Paths {
	if v := strings.TrimSpace(dbFile); v != "" {
		p.DBFile = v
	}
	if v := strings.TrimSpace(upstreamDBFile); v != "" {
		p.UpstreamDBFile = v
	}

	return p
}
