package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeGlobalConfig points XDG_CONFIG_HOME at a temp dir holding content.
func writeGlobalConfig(t *testing.T, content string) {
	t.Helper()
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	if content == "" {
		return
	}
	dir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/metafill/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "metafill", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	writeGlobalConfig(t, "")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if *cfg != (GlobalConfig{}) {
		t.Errorf("LoadGlobalConfig() = %+v, want empty", cfg)
	}
}

func TestLoadGlobalConfig(t *testing.T) {
	writeGlobalConfig(t, `
github_token: ghp_file
inventory_url: https://inventory.example.org
mailto: data@example.org
user_agent: my-agent/2.0
rate_limit: 2.5
nexus_path: ~/inventory
`)
	t.Setenv(EnvGitHubToken, "")
	t.Setenv(EnvInventoryURL, "")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.RateLimit)
	}
	if home, err := os.UserHomeDir(); err == nil {
		if want := filepath.Join(home, "inventory"); cfg.NexusPath != want {
			t.Errorf("NexusPath = %q, want %q", cfg.NexusPath, want)
		}
	}

	if got := GetGitHubToken(); got != "ghp_file" {
		t.Errorf("GetGitHubToken() = %q", got)
	}
	if got := GetUserAgent(); got != "my-agent/2.0" {
		t.Errorf("GetUserAgent() = %q", got)
	}
	if got := GetMailto(nil); got != "data@example.org" {
		t.Errorf("GetMailto(nil) = %q", got)
	}
	if got := GetMailto(&Config{Mailto: "repo@example.org"}); got != "repo@example.org" {
		t.Errorf("GetMailto(repo) = %q", got)
	}
}

func TestPrecedence(t *testing.T) {
	writeGlobalConfig(t, "github_token: ghp_file\ninventory_url: https://global.example.org\n")

	t.Setenv(EnvGitHubToken, "ghp_env")
	if got := GetGitHubToken(); got != "ghp_env" {
		t.Errorf("GetGitHubToken() = %q, want env value", got)
	}

	t.Setenv(EnvInventoryURL, "")
	if got := GetInventoryURL(nil); got != "https://global.example.org" {
		t.Errorf("GetInventoryURL(nil) = %q, want global", got)
	}
	repo := &Config{InventoryURL: "https://repo.example.org"}
	if got := GetInventoryURL(repo); got != "https://repo.example.org" {
		t.Errorf("GetInventoryURL(repo) = %q, want repo", got)
	}
	t.Setenv(EnvInventoryURL, "https://env.example.org")
	if got := GetInventoryURL(repo); got != "https://env.example.org" {
		t.Errorf("GetInventoryURL(repo) = %q, want env", got)
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "github_token: [unclosed",
		"negative rate": "rate_limit: -1",
		"bad inventory": "inventory_url: not a url",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			writeGlobalConfig(t, content)
			if _, err := LoadGlobalConfig(); err == nil {
				t.Error("LoadGlobalConfig() expected error")
			}
		})
	}
}

func TestResolveRepository(t *testing.T) {
	nexus := t.TempDir()
	if err := Init(nexus); err != nil {
		t.Fatal(err)
	}
	writeGlobalConfig(t, "nexus_path: "+nexus+"\n")

	outside := t.TempDir()
	got, err := ResolveRepository(outside)
	if err != nil {
		t.Fatalf("ResolveRepository() error = %v", err)
	}
	if got != nexus {
		t.Errorf("ResolveRepository() = %q, want nexus %q", got, nexus)
	}

	writeGlobalConfig(t, "")
	if _, err := ResolveRepository(outside); !errors.Is(err, ErrNotRepository) {
		t.Errorf("ResolveRepository() without nexus error = %v, want ErrNotRepository", err)
	}
	if _, err := ValidateNexusPath(); !errors.Is(err, ErrNexusPathNotConfigured) {
		t.Errorf("ValidateNexusPath() error = %v", err)
	}
}
