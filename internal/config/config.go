// This file defines the configuration structure for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	GitHub struct {
		APIURL       string `mapstructure:"api_url"`
		RawURL       string `mapstructure:"raw_url"`
		Host         string `mapstructure:"host"`
		ManifestPath string `mapstructure:"manifest_path"`
		// Token skips the credential helper when set.
		Token string `mapstructure:"token"`
	} `mapstructure:"github"`
	Credentials struct {
		Command string `mapstructure:"command"`
	} `mapstructure:"credentials"`
	Icons struct {
		CacheDir                string `mapstructure:"cache_dir"`
		MaxEntries              int    `mapstructure:"max_entries"`
		PlaceholderPath         string `mapstructure:"placeholder_path"`
		FallbackPlaceholderPath string `mapstructure:"fallback_placeholder_path"`
	} `mapstructure:"icons"`
	Catalog struct {
		AppendDelayMs   int `mapstructure:"append_delay_ms"`
		RefreshInterval int `mapstructure:"refresh_interval"` // minutes, 0 disables
	} `mapstructure:"catalog"`
	Index struct {
		RefreshInterval int `mapstructure:"refresh_interval"` // minutes, 0 disables
	} `mapstructure:"index"`
	Installer struct {
		PollIntervalMs int `mapstructure:"poll_interval_ms"`
	} `mapstructure:"installer"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	// GITPM_GITHUB_API_URL overrides `github.api_url`, and so on.
	v.SetEnvPrefix("GITPM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("database.path", "./gitpm.db")
	v.SetDefault("github.api_url", "https://api.github.com/")
	v.SetDefault("github.raw_url", "https://raw.githubusercontent.com/")
	v.SetDefault("github.host", "github.com")
	v.SetDefault("github.manifest_path", "package.json")
	v.SetDefault("github.token", "")
	v.SetDefault("credentials.command", "git")
	v.SetDefault("icons.cache_dir", DefaultIconCacheDir())
	v.SetDefault("icons.max_entries", 512)
	v.SetDefault("icons.placeholder_path", "./assets/placeholderIcon.png")
	v.SetDefault("icons.fallback_placeholder_path", "/usr/share/gitpm/placeholderIcon.png")
	v.SetDefault("catalog.append_delay_ms", 50)
	v.SetDefault("catalog.refresh_interval", 0)
	v.SetDefault("index.refresh_interval", 5)
	v.SetDefault("installer.poll_interval_ms", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultIconCacheDir returns the per-user cache location for repository icons.
func DefaultIconCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "gitpm", "icons")
		}
		return filepath.Join(home, ".cache", "gitpm", "icons")
	}
	return filepath.Join(cacheDir, "gitpm", "icons")
}
