// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vrsandeep/gitpm/internal/core"
	"github.com/vrsandeep/gitpm/internal/metrics"
	"github.com/vrsandeep/gitpm/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app   *core.App
	store *store.Store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:   app,
		store: app.Store(),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Minute))

		r.Get("/version", s.handleGetVersion)
		r.Get("/health", s.handleHealth)

		// Catalog routes need GitHub credentials.
		r.Group(func(r chi.Router) {
			r.Use(s.RequireCatalog)

			r.Get("/sources", s.handleListSources)
			r.Post("/sources/select", s.handleSelectSource)

			r.Get("/catalog", s.handleListCatalog)
			r.Post("/catalog/refresh", s.handleRefreshCatalog)
			r.Get("/catalog/{name}", s.handleGetCatalogEntry)
			r.Get("/catalog/{name}/icon", s.handleGetCatalogIcon)

			r.Post("/packages/import", s.handleImportPackage)
			r.Post("/packages/update", s.handleUpdatePackage)
		})

		r.Get("/packages", s.handleListPackages)
		r.Post("/packages/remove", s.handleRemovePackage)
		r.Get("/operations", s.handleListOperations)

		r.Get("/jobs/status", s.handleGetJobsStatus)
		r.Post("/jobs/run", s.handleRunJob)
	})

	r.Handle("/metrics", metrics.Handler())

	// WebSocket route
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	return r
}
