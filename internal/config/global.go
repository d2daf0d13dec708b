package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/metafill/config.yml.
type GlobalConfig struct {
	NexusPath    string  `yaml:"nexus_path,omitempty"`
	GitHubToken  string  `yaml:"github_token,omitempty"`
	InventoryURL string  `yaml:"inventory_url,omitempty"`
	Mailto       string  `yaml:"mailto,omitempty"`
	UserAgent    string  `yaml:"user_agent,omitempty"`
	RateLimit    float64 `yaml:"rate_limit,omitempty"` // Requests per second
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "metafill"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvGitHubToken and EnvInventoryURL override the config files.
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvInventoryURL = "METAFILL_INVENTORY_URL"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/metafill/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("parsing global config: rate_limit must not be negative")
	}
	if err := ValidateInventoryURL(cfg.InventoryURL); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.NexusPath != "" {
		cfg.NexusPath = ExpandPath(cfg.NexusPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// loadOrEmpty returns the global config, or an empty one when it cannot be read.
func loadOrEmpty() *GlobalConfig {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return &GlobalConfig{}
	}
	return cfg
}

// GetGitHubToken returns the GitHub token: GITHUB_TOKEN when set, otherwise
// the global config value.
func GetGitHubToken() string {
	if v := strings.TrimSpace(os.Getenv(EnvGitHubToken)); v != "" {
		return v
	}
	return loadOrEmpty().GitHubToken
}

// GetInventoryURL returns the remote inventory URL: METAFILL_INVENTORY_URL,
// then the repository config, then the global config.
func GetInventoryURL(repo *Config) string {
	if v := strings.TrimSpace(os.Getenv(EnvInventoryURL)); v != "" {
		return v
	}
	if repo != nil && repo.InventoryURL != "" {
		return repo.InventoryURL
	}
	return loadOrEmpty().InventoryURL
}

// GetMailto returns the contact address from the repository config, falling
// back to the global config.
func GetMailto(repo *Config) string {
	if repo != nil && repo.Mailto != "" {
		return repo.Mailto
	}
	return loadOrEmpty().Mailto
}

// GetUserAgent returns the configured User-Agent, or "".
func GetUserAgent() string {
	return loadOrEmpty().UserAgent
}

// GetRateLimit returns the configured request rate, or 0 when unset.
func GetRateLimit() float64 {
	return loadOrEmpty().RateLimit
}

// GetNexusPath returns the configured nexus path from global config.
func GetNexusPath() string {
	return loadOrEmpty().NexusPath
}

// ErrNexusPathNotConfigured is returned when nexus_path is not set in config.
var ErrNexusPathNotConfigured = errors.New("nexus_path not configured")

// ErrNexusPathNotExist is returned when the configured nexus_path doesn't exist.
var ErrNexusPathNotExist = errors.New("nexus_path does not exist")

// ValidateNexusPath returns the nexus path from global config after validation.
// The nexus is the default repository used outside any .metafill tree.
func ValidateNexusPath() (string, error) {
	path := GetNexusPath()
	if path == "" {
		return "", ErrNexusPathNotConfigured
	}
	if !IsRepository(path) {
		return "", fmt.Errorf("%w: %s", ErrNexusPathNotExist, path)
	}
	return path, nil
}

// ResolveRepository finds the repository containing start, falling back to
// the configured nexus.
func ResolveRepository(start string) (string, error) {
	root, err := FindRepository(start)
	if err == nil {
		return root, nil
	}
	if nexus, nerr := ValidateNexusPath(); nerr == nil {
		return nexus, nil
	}
	return "", err
}

// HelpfulConfigMessage returns a helpful message when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No metafill repository found.

Run 'metafill init' in the directory that should hold the inventory, or
create %s to set a default:
  mkdir -p %s
  echo 'nexus_path: /path/to/your/inventory' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
