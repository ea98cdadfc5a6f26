package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/gitpm/internal/core"
	"github.com/vrsandeep/gitpm/internal/models"
	"github.com/vrsandeep/gitpm/internal/testutil"
)

func TestBuildWithoutCredentials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	app, err := core.Build(testutil.TestConfig(t, nil), db, "", "dev")
	require.NoError(t, err)
	t.Cleanup(app.Close)

	assert.Equal(t, "dev", app.Version)
	assert.Nil(t, app.Catalog(), "no token disables the catalog")
	assert.Nil(t, app.GitHub())
	assert.NotNil(t, app.Icons())
	assert.NotNil(t, app.Installer())
	assert.NotNil(t, app.Index())
	assert.Len(t, app.JobManager().GetStatus(), 2)

	// Installed packages still work without credentials.
	req := app.Backend().Add("com.acme.core@2.0.0")
	<-req.Done()
	require.NoError(t, req.Err())
	require.NoError(t, app.Index().Refresh(context.Background()))
	assert.True(t, app.Index().Exists("com.acme.core", "2.0.0"))

	require.NoError(t, app.Installer().Remove(context.Background(), "com.acme.core"))
	assert.False(t, app.Index().Exists("com.acme.core", ""))
}

func TestBuildWithCredentials(t *testing.T) {
	fake := testutil.NewFakeGitHub(t, "octo")
	fake.AddRepo(&testutil.FakeRepo{
		Owner:    "octo",
		Name:     "tool",
		Releases: []testutil.FakeRelease{{ID: 1, Tag: "v1.0.0", Manifest: `{"name":"com.octo.tool","version":"1.0.0"}`}},
		LatestID: 1,
	})
	app := testutil.SetupTestApp(t, fake)
	require.NotNil(t, app.Catalog())
	require.NotNil(t, app.GitHub())

	assert.Equal(t, []models.Source{"octo"}, app.Catalog().LoadSources(context.Background()))
	app.Catalog().Select(context.Background(), "octo")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, app.Catalog().Wait(ctx))

	tool, ok := app.Catalog().Repository("tool")
	require.True(t, ok)
	assert.False(t, tool.IsInstalled)

	// Installing reloads the catalog so the installed flag follows.
	version, ok := tool.CurrentVersion()
	require.True(t, ok)
	require.NoError(t, app.Installer().Import(context.Background(), tool.CloneURL, version.Package))
	require.NoError(t, app.Catalog().Wait(ctx))

	tool, ok = app.Catalog().Repository("tool")
	require.True(t, ok)
	assert.True(t, tool.IsInstalled)
}
