package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vrsandeep/gitpm/internal/catalog"
	"github.com/vrsandeep/gitpm/internal/models"
)

// catalogEntry adds the derived fields a client needs to render a
// repository without recomputing them.
type catalogEntry struct {
	models.RepositoryInfo
	DisplayName    string              `json:"display_name"`
	HasPackage     bool                `json:"has_package"`
	ChangelogURL   string              `json:"changelog_url"`
	CurrentVersion *models.VersionInfo `json:"current_version"`
}

func newCatalogEntry(repo models.RepositoryInfo) catalogEntry {
	entry := catalogEntry{
		RepositoryInfo: repo,
		DisplayName:    repo.DisplayName(),
		HasPackage:     repo.HasPackage(),
		ChangelogURL:   repo.ChangelogURL(),
	}
	if current, ok := repo.CurrentVersion(); ok {
		entry.CurrentVersion = current
	}
	return entry
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	cat := s.app.Catalog()
	sources := cat.Sources()
	if len(sources) == 0 || r.URL.Query().Get("reload") == "true" {
		sources = cat.LoadSources(r.Context())
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"sources":  sources,
		"selected": cat.SelectedSource(),
	})
}

func (s *Server) handleSelectSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Source == "" {
		RespondWithError(w, http.StatusBadRequest, "Source is required")
		return
	}

	gen := s.app.Catalog().Select(r.Context(), models.Source(req.Source))
	RespondWithJSON(w, http.StatusAccepted, map[string]any{
		"source":     req.Source,
		"generation": gen,
	})
}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.app.Catalog()
	onlyValid := r.URL.Query().Get("valid") == "true"

	entries := []catalogEntry{}
	for _, repo := range cat.Repositories() {
		if onlyValid && !repo.HasPackage() {
			continue
		}
		entries = append(entries, newCatalogEntry(repo))
	}
	loaded, total := cat.Progress()
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"source":       cat.SelectedSource(),
		"generation":   cat.Generation(),
		"loading":      cat.Loading(),
		"loaded":       loaded,
		"total":        total,
		"repositories": entries,
	})
}

func (s *Server) handleGetCatalogEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	repo, ok := s.app.Catalog().Repository(name)
	if !ok {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Repository %s not found", name))
		return
	}
	RespondWithJSON(w, http.StatusOK, newCatalogEntry(repo))
}

func (s *Server) handleGetCatalogIcon(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	repo, ok := s.app.Catalog().Repository(name)
	if !ok {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Repository %s not found", name))
		return
	}
	icon := repo.Icon
	if icon == nil {
		icon = s.app.Icons().Placeholder()
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := png.Encode(w, icon); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to encode icon")
	}
}

func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	gen, err := s.app.Catalog().Refresh(r.Context())
	if errors.Is(err, catalog.ErrNoSource) {
		RespondWithError(w, http.StatusBadRequest, "Select a source first")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]any{"generation": gen})
}
