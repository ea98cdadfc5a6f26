package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/gitpm/internal/models"
	"github.com/vrsandeep/gitpm/internal/testutil"
)

func listPackages(t *testing.T, router http.Handler) map[string]models.InstalledPackage {
	t.Helper()
	rr := doRequest(t, router, http.MethodGet, "/api/packages", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var records []models.InstalledPackage
	decode(t, rr, &records)
	byName := make(map[string]models.InstalledPackage, len(records))
	for _, r := range records {
		byName[r.Name] = r
	}
	return byName
}

func TestPackageHandlers(t *testing.T) {
	fake := newFakeGitHub(t)
	server, app := testutil.SetupTestServer(t, fake)
	router := server.Router()
	selectSource(t, router, app, "acme")

	assert.Empty(t, listPackages(t, router))

	t.Run("import validates the request", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/packages/import", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = doRequest(t, router, http.MethodPost, "/api/packages/import", map[string]string{"repository": "nope"})
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = doRequest(t, router, http.MethodPost, "/api/packages/import", map[string]string{"repository": "tool", "version": "9.9.9"})
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = doRequest(t, router, http.MethodPost, "/api/packages/import", map[string]string{"repository": "website"})
		assert.Equal(t, http.StatusNotFound, rr.Code, "a repository without releases has no current version")
	})

	t.Run("import current version", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/packages/import", map[string]string{"repository": "tool"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		waitForCatalog(t, app)

		installed := listPackages(t, router)
		require.Contains(t, installed, "com.acme.tool")
		assert.Equal(t, "1.2.0", installed["com.acme.tool"].Version)
		assert.Equal(t, "com.acme.tool@https://github.com/acme/tool.git#v1.2.0", installed["com.acme.tool"].ID)
		require.Contains(t, installed, "com.acme.core")
		assert.Equal(t, "2.0.0", installed["com.acme.core"].Version)

		tool, ok := app.Catalog().Repository("tool")
		require.True(t, ok)
		assert.True(t, tool.IsInstalled)
		assert.False(t, tool.UpdateAvailable)
	})

	t.Run("update to an older tag", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/packages/update", map[string]string{
			"name": "com.acme.tool", "repository": "tool", "version": "v1.0.0",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		waitForCatalog(t, app)

		installed := listPackages(t, router)
		assert.Equal(t, "1.0.0", installed["com.acme.tool"].Version)

		tool, ok := app.Catalog().Repository("tool")
		require.True(t, ok)
		assert.True(t, tool.UpdateAvailable)
	})

	t.Run("remove", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/packages/remove", map[string]string{"name": "com.acme.tool"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		waitForCatalog(t, app)
		assert.NotContains(t, listPackages(t, router), "com.acme.tool")

		rr = doRequest(t, router, http.MethodPost, "/api/packages/remove", map[string]string{"name": "com.acme.tool"})
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = doRequest(t, router, http.MethodPost, "/api/packages/remove", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("operations", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodGet, "/api/operations?limit=10", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var ops []models.Operation
		decode(t, rr, &ops)
		kinds := make([]string, 0, len(ops))
		for _, op := range ops {
			kinds = append(kinds, op.Kind)
		}
		assert.Contains(t, kinds, models.OperationImport)
		assert.Contains(t, kinds, models.OperationUpdate)
		assert.Contains(t, kinds, models.OperationRemove)

		rr = doRequest(t, router, http.MethodGet, "/api/operations?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
