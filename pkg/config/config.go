// Package config loads the accviz configuration file.
//
// Configuration lives in a TOML file, by default at
// $XDG_CONFIG_HOME/accviz/config.toml. Every value has a sensible default;
// CLI flags override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full application configuration.
type Config struct {
	// Unit is the scale constant in diameter = unit / simGlobal.
	Unit float64 `toml:"unit"`

	// Linkage is the agglomerative linkage method (average, single, complete).
	Linkage string `toml:"linkage"`

	// Style is the render style (simple, dark).
	Style string `toml:"style"`

	// Spokes draws origin-to-entity lines in SVG output.
	Spokes bool `toml:"spokes"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Disabled turns caching off entirely.
	Disabled bool `toml:"disabled"`

	// Dir is the file cache directory. Empty means the user cache dir.
	Dir string `toml:"dir"`

	// Redis is a Redis address (host:port). When set, Redis is used
	// instead of the file cache.
	Redis string `toml:"redis"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`

	// MongoURI enables the Mongo-backed run archive when set.
	// Empty means runs are archived in memory.
	MongoURI string `toml:"mongo_uri"`

	// MongoDatabase is the archive database name.
	MongoDatabase string `toml:"mongo_database"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Unit:    1.0,
		Linkage: "average",
		Style:   "simple",
		Server: ServerConfig{
			Addr:          ":8080",
			MongoDatabase: "accviz",
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "accviz", "config.toml"), nil
}

// DefaultCacheDir returns the standard file cache location.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "accviz"), nil
}

// Load reads the config file at path, layered over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
