// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents repository configuration stored in .metafill/config.json.
type Config struct {
	InventoryURL string `json:"inventory_url,omitempty"` // Remote inventory server; empty uses the local store
	Mailto       string `json:"mailto,omitempty"`        // Contact address sent to the public APIs
	CacheSize    int    `json:"cache_size,omitempty"`    // Records kept in memory by serve
}

const (
	MetafillDir = ".metafill"
	ConfigFile  = "config.json"
	EntriesFile = "entries.jsonl"
	CacheDir    = "cache"
	DBFile      = "inventory.db"

	// DefaultCacheSize is used when cache_size is unset.
	DefaultCacheSize = 256
)

// ErrNotRepository is returned when no .metafill directory is found.
var ErrNotRepository = errors.New("not in a metafill repository (no .metafill directory found)")

// ValidKeys lists the keys accepted by Set.
var ValidKeys = []string{"inventory_url", "mailto", "cache_size"}

// MetafillPath returns the path to the .metafill directory from a root path.
func MetafillPath(root string) string {
	return filepath.Join(root, MetafillDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, MetafillDir, ConfigFile)
}

// EntriesPath returns the path to entries.jsonl from a root path.
func EntriesPath(root string) string {
	return filepath.Join(root, MetafillDir, EntriesFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, MetafillDir, CacheDir)
}

// DBPath returns the path to inventory.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, MetafillDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a metafill repository.
func IsRepository(root string) bool {
	info, err := os.Stat(MetafillPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a metafill repository.
// Returns the repository root path or ErrNotRepository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Init creates the .metafill layout under root with an empty entries file
// and a default config. It fails if the repository already exists.
func Init(root string) error {
	if IsRepository(root) {
		return fmt.Errorf("metafill repository already exists at %s", root)
	}
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", MetafillDir, err)
	}
	if err := os.WriteFile(EntriesPath(root), nil, 0644); err != nil {
		return fmt.Errorf("creating entries file: %w", err)
	}
	cfg := &Config{}
	return cfg.Save(root)
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Get returns the value of a config key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "inventory_url":
		return c.InventoryURL, nil
	case "mailto":
		return c.Mailto, nil
	case "cache_size":
		return strconv.Itoa(c.EffectiveCacheSize()), nil
	}
	return "", fmt.Errorf("unknown config key: %s (valid: %v)", key, ValidKeys)
}

// Set validates and sets a config key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "inventory_url":
		if err := ValidateInventoryURL(value); err != nil {
			return err
		}
		c.InventoryURL = value
	case "mailto":
		c.Mailto = value
	case "cache_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid cache_size: %q (want a non-negative integer)", value)
		}
		c.CacheSize = n
	default:
		return fmt.Errorf("unknown config key: %s (valid: %v)", key, ValidKeys)
	}
	return nil
}

// EffectiveCacheSize returns CacheSize or the default when unset.
func (c *Config) EffectiveCacheSize() int {
	if c.CacheSize <= 0 {
		return DefaultCacheSize
	}
	return c.CacheSize
}

// ValidateInventoryURL checks that the URL is empty or an absolute http(s) URL.
func ValidateInventoryURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid inventory_url: %q (want http(s)://host[/path])", raw)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
