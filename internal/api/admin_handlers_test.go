package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/gitpm/internal/jobs"
	"github.com/vrsandeep/gitpm/internal/testutil"
)

func TestAdminHandlers(t *testing.T) {
	server, app := testutil.SetupTestServer(t, nil)
	router := server.Router()

	t.Run("Get Version", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodGet, "/api/version", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]string
		decode(t, rr, &body)
		assert.Equal(t, "test", body["version"])
	})

	t.Run("Health", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodGet, "/api/health", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]any
		decode(t, rr, &body)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, false, body["catalog"])
	})

	t.Run("Metrics", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "go_goroutines")
	})

	t.Run("Run Job", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/jobs/run", map[string]string{"job_name": jobs.IndexRefreshJob})
		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

		require.Eventually(t, func() bool {
			for _, s := range app.JobManager().GetStatus() {
				if s.ID == jobs.IndexRefreshJob {
					return s.Status == "success"
				}
			}
			return false
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("Run Unknown Job", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/jobs/run", map[string]string{"job_name": "nope"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Invalid Job Payload", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodPost, "/api/jobs/run", "not an object")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Jobs Status", func(t *testing.T) {
		rr := doRequest(t, router, http.MethodGet, "/api/jobs/status", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var statuses []jobs.JobStatus
		decode(t, rr, &statuses)
		require.Len(t, statuses, 2)
		assert.Equal(t, jobs.CatalogSyncJob, statuses[0].ID)
		assert.Equal(t, jobs.IndexRefreshJob, statuses[1].ID)
	})

	t.Run("Catalog routes need credentials", func(t *testing.T) {
		for _, path := range []string{"/api/sources", "/api/catalog", "/api/catalog/tool"} {
			rr := doRequest(t, router, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
		}
		rr := doRequest(t, router, http.MethodGet, "/api/packages", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
