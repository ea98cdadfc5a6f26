package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/gitpm/internal/models"
)

func version(tag string, latest, draft bool) models.VersionInfo {
	return models.VersionInfo{TagName: tag, IsLatest: latest, IsDraft: draft}
}

func TestRepositoryInfo_CurrentVersion(t *testing.T) {
	t.Run("No releases", func(t *testing.T) {
		repo := &models.RepositoryInfo{Name: "empty"}
		assert.False(t, repo.HasPackage())
		_, ok := repo.CurrentVersion()
		assert.False(t, ok)
	})

	t.Run("Prefers latest over a leading draft", func(t *testing.T) {
		repo := &models.RepositoryInfo{Versions: []models.VersionInfo{
			version("draft", false, true),
			version("latest", true, false),
			version("old", false, false),
		}}
		v, ok := repo.CurrentVersion()
		require.True(t, ok)
		assert.Equal(t, "latest", v.TagName)
	})

	t.Run("Only a draft", func(t *testing.T) {
		repo := &models.RepositoryInfo{Versions: []models.VersionInfo{version("draft", false, true)}}
		assert.True(t, repo.HasPackage())
		_, ok := repo.CurrentVersion()
		assert.False(t, ok)
	})

	t.Run("No latest flag falls back to first non-draft", func(t *testing.T) {
		repo := &models.RepositoryInfo{Versions: []models.VersionInfo{
			version("old1", false, false),
			version("old2", false, false),
		}}
		v, ok := repo.CurrentVersion()
		require.True(t, ok)
		assert.Equal(t, "old1", v.TagName)
	})

	t.Run("Latest draft is skipped", func(t *testing.T) {
		repo := &models.RepositoryInfo{Versions: []models.VersionInfo{
			version("draft-latest", true, true),
			version("stable", false, false),
		}}
		v, ok := repo.CurrentVersion()
		require.True(t, ok)
		assert.Equal(t, "stable", v.TagName)
	})
}

func TestRepositoryInfo_DisplayNameAndChangelog(t *testing.T) {
	repo := &models.RepositoryInfo{Owner: "acme", Name: "tool"}
	assert.Equal(t, "tool", repo.DisplayName())
	assert.Empty(t, repo.ChangelogURL())

	v := version("v1.0.0", true, false)
	v.Package.DisplayName = "Acme Tool"
	repo.Versions = []models.VersionInfo{v}
	assert.Equal(t, "Acme Tool", repo.DisplayName())
	assert.Equal(t, "https://github.com/acme/tool/releases", repo.ChangelogURL())
}

func TestRepositoryInfo_FindVersion(t *testing.T) {
	repo := models.RepositoryInfo{Name: "tool", Versions: []models.VersionInfo{
		{TagName: "v1.2.0", IsLatest: true, Package: models.PackageManifest{Name: "com.acme.tool", Version: "1.2.0"}},
		{TagName: "1.0.0", Package: models.PackageManifest{Name: "com.acme.tool", Version: "1.0.0"}},
	}}

	for _, want := range []string{"", "v1.2.0", "1.2.0"} {
		v, ok := repo.FindVersion(want)
		require.True(t, ok, want)
		assert.Equal(t, "v1.2.0", v.TagName, want)
	}

	v, ok := repo.FindVersion("1.0.0")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", v.TagName)

	_, ok = repo.FindVersion("2.0.0")
	assert.False(t, ok)

	empty := models.RepositoryInfo{Name: "website"}
	_, ok = empty.FindVersion("")
	assert.False(t, ok)
}
