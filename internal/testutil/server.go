// Shared test server setup, which simplifies all API tests.

package testutil

import (
	"testing"

	"github.com/vrsandeep/gitpm/internal/api"
	"github.com/vrsandeep/gitpm/internal/config"
	"github.com/vrsandeep/gitpm/internal/core"
)

// TestConfig returns a configuration pointing at the fake GitHub server
// (when given) with icons cached in a per-test directory.
func TestConfig(t *testing.T, fake *FakeGitHub) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.GitHub.ManifestPath = "package.json"
	cfg.Icons.CacheDir = t.TempDir()
	cfg.Icons.MaxEntries = 16
	cfg.Installer.PollIntervalMs = 1
	if fake != nil {
		cfg.GitHub.APIURL = fake.APIURL()
		cfg.GitHub.RawURL = fake.RawURL()
	}
	return cfg
}

// SetupTestApp builds a full core.App on an in-memory database. Passing a
// nil fake leaves the app without credentials, so the catalog is disabled.
func SetupTestApp(t *testing.T, fake *FakeGitHub) *core.App {
	t.Helper()
	db := SetupTestDB(t)

	token := ""
	if fake != nil {
		token = FakeToken
	}
	app, err := core.Build(TestConfig(t, fake), db, token, "test")
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T, fake *FakeGitHub) (*api.Server, *core.App) {
	t.Helper()
	app := SetupTestApp(t, fake)
	return api.NewServer(app), app
}
