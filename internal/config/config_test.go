// This test file verifies the configuration loading logic using Viper.

package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults when no config file", func(t *testing.T) {
		// Ensure no config file exists for this test
		os.Remove("config.yml")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		if cfg.Port != 8080 {
			t.Errorf("Expected default port 8080, got %d", cfg.Port)
		}
		if cfg.Database.Path != "./gitpm.db" {
			t.Errorf("Expected default db path './gitpm.db', got '%s'", cfg.Database.Path)
		}
		if cfg.GitHub.ManifestPath != "package.json" {
			t.Errorf("Expected default manifest path 'package.json', got '%s'", cfg.GitHub.ManifestPath)
		}
		if cfg.Icons.MaxEntries != 512 {
			t.Errorf("Expected default icon cache size 512, got %d", cfg.Icons.MaxEntries)
		}
		if cfg.Icons.CacheDir == "" {
			t.Error("Expected a default icon cache directory")
		}
		if cfg.Installer.PollIntervalMs != 10 {
			t.Errorf("Expected default poll interval 10ms, got %d", cfg.Installer.PollIntervalMs)
		}
	})

	t.Run("Loads from config file", func(t *testing.T) {
		configContent := `
port: 9999
database:
  path: "/tmp/test.db"
github:
  api_url: "http://localhost:9000/"
icons:
  max_entries: 3
unknown_setting: "should be ignored"
`
		// Viper looks in the CWD, so t.TempDir() is not used here.
		configPath := "config.yml"
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config file: %v", err)
		}
		defer os.Remove(configPath)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		if cfg.Port != 9999 {
			t.Errorf("Expected port 9999, got %d", cfg.Port)
		}
		if cfg.Database.Path != "/tmp/test.db" {
			t.Errorf("Expected db path '/tmp/test.db', got '%s'", cfg.Database.Path)
		}
		if cfg.GitHub.APIURL != "http://localhost:9000/" {
			t.Errorf("Expected api url override, got '%s'", cfg.GitHub.APIURL)
		}
		if cfg.Icons.MaxEntries != 3 {
			t.Errorf("Expected icon cache size 3, got %d", cfg.Icons.MaxEntries)
		}
		if cfg.Catalog.AppendDelayMs != 50 {
			t.Errorf("Expected default append delay of 50, got %d", cfg.Catalog.AppendDelayMs)
		}
	})

	t.Run("Environment overrides", func(t *testing.T) {
		os.Remove("config.yml")
		t.Setenv("GITPM_PORT", "7070")
		t.Setenv("GITPM_CREDENTIALS_COMMAND", "/usr/local/bin/git")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}
		if cfg.Port != 7070 {
			t.Errorf("Expected port 7070 from env, got %d", cfg.Port)
		}
		if cfg.Credentials.Command != "/usr/local/bin/git" {
			t.Errorf("Expected credentials command from env, got '%s'", cfg.Credentials.Command)
		}
	})
}
