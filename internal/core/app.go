package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vrsandeep/gitpm/internal/backend"
	"github.com/vrsandeep/gitpm/internal/catalog"
	"github.com/vrsandeep/gitpm/internal/config"
	"github.com/vrsandeep/gitpm/internal/credentials"
	"github.com/vrsandeep/gitpm/internal/db"
	"github.com/vrsandeep/gitpm/internal/github"
	"github.com/vrsandeep/gitpm/internal/icons"
	"github.com/vrsandeep/gitpm/internal/installer"
	"github.com/vrsandeep/gitpm/internal/jobs"
	"github.com/vrsandeep/gitpm/internal/packages"
	"github.com/vrsandeep/gitpm/internal/store"
	"github.com/vrsandeep/gitpm/internal/websocket"
	"github.com/vrsandeep/gitpm/migrations"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	Version string

	config      *config.Config
	db          *sql.DB
	wsHub       *websocket.Hub
	jobManager  *jobs.JobManager
	store       *store.Store
	backend     *backend.LocalBackend
	index       *packages.Index
	github      *github.Client
	icons       *icons.Resolver
	iconWatcher *icons.Watcher
	catalog     *catalog.Catalog
	installer   *installer.Orchestrator
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, running migrations
// and obtaining GitHub credentials.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, migrations.FS, migrations.Dir); err != nil {
		// We can't proceed without a valid database schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	token, err := resolveToken(cfg)
	if err != nil {
		// No retry: the catalog stays disabled for this run.
		log.Printf("Warning: GitHub authentication failed, catalog disabled: %v", err)
	}

	app, err := Build(cfg, database, token, version)
	if err != nil {
		database.Close()
		return nil, err
	}
	log.Println("Core application setup complete.")
	return app, nil
}

func resolveToken(cfg *config.Config) (string, error) {
	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	creds, err := credentials.NewHelper(cfg.Credentials.Command).Get(ctx, "https", cfg.GitHub.Host)
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// Build wires every component around an open, migrated database. An empty
// token leaves the catalog disabled; installed packages can still be
// listed and removed.
func Build(cfg *config.Config, database *sql.DB, token, version string) (*App, error) {
	app := &App{
		Version: version,
		config:  cfg,
		db:      database,
		wsHub:   websocket.NewHub(),
		store:   store.New(database),
	}
	go app.wsHub.Run()

	pollInterval := time.Duration(cfg.Installer.PollIntervalMs) * time.Millisecond
	app.backend = backend.NewLocalBackend(app.store)
	app.index = packages.NewIndex(app.backend, pollInterval)
	if err := app.index.Refresh(context.Background()); err != nil {
		log.Printf("Warning: initial installed package refresh failed: %v", err)
	}

	cacheDir := cfg.Icons.CacheDir
	if cacheDir == "" {
		cacheDir = config.DefaultIconCacheDir()
	}
	cache, err := icons.NewDiskCache(cacheDir, cfg.Icons.MaxEntries)
	if err != nil {
		return nil, err
	}
	app.iconWatcher = icons.NewWatcher(cache)
	if err := app.iconWatcher.Start(); err != nil {
		log.Printf("Warning: icon cache watcher not started: %v", err)
		app.iconWatcher = nil
	}

	if token != "" {
		client, err := github.NewClient(github.Options{
			Token:        token,
			APIURL:       cfg.GitHub.APIURL,
			RawURL:       cfg.GitHub.RawURL,
			ManifestPath: cfg.GitHub.ManifestPath,
		})
		if err != nil {
			return nil, err
		}
		app.github = client
		app.icons = icons.NewResolver(cache, client.HTTPClient(), cfg.Icons.PlaceholderPath, cfg.Icons.FallbackPlaceholderPath)
		app.catalog = catalog.New(client, app.icons, app.index, app.wsHub, catalog.Options{
			AppendDelay: time.Duration(cfg.Catalog.AppendDelayMs) * time.Millisecond,
		})
	} else {
		app.icons = icons.NewResolver(cache, nil, cfg.Icons.PlaceholderPath, cfg.Icons.FallbackPlaceholderPath)
	}

	app.installer = installer.New(app.backend, app.index, app.store, app.wsHub, pollInterval)
	app.installer.OnReload(app.reload)

	app.jobManager = jobs.NewManager(app)
	jobs.RegisterAll(app.jobManager)
	return app, nil
}

// reload re-syncs the catalog so installed flags reflect the new state.
func (a *App) reload() {
	if a.catalog == nil {
		return
	}
	if _, err := a.catalog.Refresh(context.Background()); err != nil && !errors.Is(err, catalog.ErrNoSource) {
		log.Printf("Warning: catalog reload failed: %v", err)
	}
}

func (a *App) Config() *config.Config             { return a.config }
func (a *App) DB() *sql.DB                        { return a.db }
func (a *App) WsHub() *websocket.Hub              { return a.wsHub }
func (a *App) JobManager() *jobs.JobManager       { return a.jobManager }
func (a *App) Store() *store.Store                { return a.store }
func (a *App) Backend() backend.Backend           { return a.backend }
func (a *App) Index() *packages.Index             { return a.index }
func (a *App) GitHub() *github.Client             { return a.github }
func (a *App) Icons() *icons.Resolver             { return a.icons }
func (a *App) Catalog() *catalog.Catalog          { return a.catalog }
func (a *App) Installer() *installer.Orchestrator { return a.installer }

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.iconWatcher != nil {
		a.iconWatcher.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
}
