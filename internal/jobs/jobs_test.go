package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/gitpm/internal/backend"
	"github.com/vrsandeep/gitpm/internal/catalog"
	"github.com/vrsandeep/gitpm/internal/config"
	"github.com/vrsandeep/gitpm/internal/github"
	"github.com/vrsandeep/gitpm/internal/jobs"
	"github.com/vrsandeep/gitpm/internal/packages"
	"github.com/vrsandeep/gitpm/internal/store"
	"github.com/vrsandeep/gitpm/internal/testutil"
	"github.com/vrsandeep/gitpm/internal/websocket"
)

func newJobContext(t *testing.T) (*fakeJobContext, *backend.LocalBackend) {
	t.Helper()
	hub := websocket.NewHub()
	go hub.Run()

	b := backend.NewLocalBackend(store.New(testutil.SetupTestDB(t)))
	ctx := &fakeJobContext{
		cfg:   &config.Config{},
		ws:    hub,
		index: packages.NewIndex(b, time.Millisecond),
	}
	ctx.jobMgr = jobs.NewManager(ctx)
	jobs.RegisterAll(ctx.jobMgr)
	return ctx, b
}

func TestRunIndexRefresh(t *testing.T) {
	ctx, b := newJobContext(t)
	req := b.Add("com.acme.tool@1.2.0")
	require.NoError(t, backend.Wait(context.Background(), req, time.Millisecond))
	assert.False(t, ctx.index.Exists("com.acme.tool", ""))

	require.NoError(t, jobs.RunIndexRefresh(ctx))
	assert.True(t, ctx.index.Exists("com.acme.tool", "1.2.0"))
}

func TestRunCatalogSync(t *testing.T) {
	t.Run("without catalog", func(t *testing.T) {
		ctx, _ := newJobContext(t)
		assert.ErrorIs(t, jobs.RunCatalogSync(ctx), jobs.ErrCatalogUnavailable)
	})

	t.Run("nothing selected", func(t *testing.T) {
		ctx, _ := newJobContext(t)
		fake := testutil.NewFakeGitHub(t, "octo")
		client, err := github.NewClient(github.Options{Token: testutil.FakeToken, APIURL: fake.APIURL()})
		require.NoError(t, err)
		ctx.catalog = catalog.New(client, nil, ctx.index, ctx.ws, catalog.Options{})

		assert.ErrorIs(t, jobs.RunCatalogSync(ctx), catalog.ErrNoSource)
		assert.NotEmpty(t, ctx.catalog.Sources(), "sources are loaded on first run")
	})

	t.Run("resyncs selection", func(t *testing.T) {
		ctx, _ := newJobContext(t)
		fake := testutil.NewFakeGitHub(t, "octo")
		fake.AddRepo(&testutil.FakeRepo{Owner: "octo", Name: "tool"})
		client, err := github.NewClient(github.Options{Token: testutil.FakeToken, APIURL: fake.APIURL()})
		require.NoError(t, err)
		ctx.catalog = catalog.New(client, nil, ctx.index, ctx.ws, catalog.Options{})
		ctx.catalog.Select(context.Background(), "octo")
		require.NoError(t, ctx.catalog.Wait(context.Background()))

		require.NoError(t, jobs.RunCatalogSync(ctx))
		assert.Equal(t, uint64(2), ctx.catalog.Generation())
		assert.Len(t, ctx.catalog.Repositories(), 1)
	})

	t.Run("through the manager", func(t *testing.T) {
		ctx, _ := newJobContext(t)
		require.NoError(t, ctx.jobMgr.RunJob(jobs.CatalogSyncJob, ctx))
		status := waitForStatus(t, ctx.jobMgr, jobs.CatalogSyncJob, "failed")
		assert.Contains(t, status.Message, "credentials")
	})
}

func TestStartJobs(t *testing.T) {
	ctx, _ := newJobContext(t)

	s := jobs.StartJobs(ctx)
	assert.Equal(t, 0, s.Len(), "zero intervals disable scheduling")
	s.Stop()

	ctx.cfg.Index.RefreshInterval = 5
	ctx.cfg.Catalog.RefreshInterval = 60
	s = jobs.StartJobs(ctx)
	defer s.Stop()
	assert.Equal(t, 2, s.Len())
}
