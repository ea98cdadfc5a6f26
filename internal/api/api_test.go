package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/gitpm/internal/core"
	"github.com/vrsandeep/gitpm/internal/testutil"
)

func newFakeGitHub(t *testing.T) *testutil.FakeGitHub {
	t.Helper()
	fake := testutil.NewFakeGitHub(t, "octo")
	fake.AddOrg("acme")
	fake.AddRepo(&testutil.FakeRepo{
		Owner:    "acme",
		Name:     "tool",
		Manifest: `{"name":"com.acme.tool","version":"1.2.0","displayName":"Acme Tool","iconPath":"icon.png"}`,
		Releases: []testutil.FakeRelease{
			{ID: 2, Tag: "v1.2.0", Manifest: `{"name":"com.acme.tool","version":"1.2.0","displayName":"Acme Tool","dependencies":{"com.acme.core":"2.0.0"}}`},
			{ID: 1, Tag: "v1.0.0", Manifest: `{"name":"com.acme.tool","version":"1.0.0"}`},
		},
		LatestID: 2,
	})
	fake.AddRepo(&testutil.FakeRepo{Owner: "acme", Name: "website"})
	return fake
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func waitForCatalog(t *testing.T, app *core.App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, app.Catalog().Wait(ctx))
}

// selectSource selects the source through the API and waits for the sync.
func selectSource(t *testing.T, router http.Handler, app *core.App, source string) {
	t.Helper()
	rr := doRequest(t, router, http.MethodPost, "/api/sources/select", map[string]string{"source": source})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	waitForCatalog(t, app)
}
