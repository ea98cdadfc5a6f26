package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vrsandeep/gitpm/internal/installer"
	"github.com/vrsandeep/gitpm/internal/models"
)

type packageRequest struct {
	Name       string `json:"name"`
	Repository string `json:"repository"`
	Version    string `json:"version"` // tag or manifest version, empty for current
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Index().Records())
}

func (s *Server) handleImportPackage(w http.ResponseWriter, r *http.Request) {
	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	repo, version, ok := s.resolveVersion(w, req)
	if !ok {
		return
	}

	err := s.app.Installer().Import(r.Context(), repo.CloneURL, version.Package)
	if err != nil {
		respondWithInstallError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s %s installed successfully", version.Package.Name, version.Package.Version),
	})
}

func (s *Server) handleRemovePackage(w http.ResponseWriter, r *http.Request) {
	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		RespondWithError(w, http.StatusBadRequest, "Package name is required")
		return
	}

	if err := s.app.Installer().Remove(r.Context(), req.Name); err != nil {
		respondWithInstallError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s removed successfully", req.Name),
	})
}

func (s *Server) handleUpdatePackage(w http.ResponseWriter, r *http.Request) {
	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	repo, version, ok := s.resolveVersion(w, req)
	if !ok {
		return
	}
	name := req.Name
	if name == "" {
		name = version.Package.Name
	}

	err := s.app.Installer().Update(r.Context(), name, repo.CloneURL, version.Package)
	if err != nil {
		respondWithInstallError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s updated to %s", name, version.Package.Version),
	})
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	ops, err := s.store.ListOperations(limit)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list operations: %v", err))
		return
	}
	if ops == nil {
		ops = []models.Operation{}
	}
	RespondWithJSON(w, http.StatusOK, ops)
}

// resolveVersion finds the catalog repository and the requested version,
// writing an error response when either is missing.
func (s *Server) resolveVersion(w http.ResponseWriter, req packageRequest) (models.RepositoryInfo, models.VersionInfo, bool) {
	if req.Repository == "" {
		RespondWithError(w, http.StatusBadRequest, "Repository is required")
		return models.RepositoryInfo{}, models.VersionInfo{}, false
	}
	repo, ok := s.app.Catalog().Repository(req.Repository)
	if !ok {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Repository %s not found", req.Repository))
		return models.RepositoryInfo{}, models.VersionInfo{}, false
	}
	version, ok := repo.FindVersion(req.Version)
	if !ok {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Version %q of %s not found", req.Version, req.Repository))
		return models.RepositoryInfo{}, models.VersionInfo{}, false
	}
	return repo, *version, true
}

func respondWithInstallError(w http.ResponseWriter, err error) {
	var updateErr *installer.UpdateError
	switch {
	case errors.Is(err, installer.ErrInstallInProgress):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, installer.ErrNotInstalled):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, installer.ErrInvalidManifest):
		RespondWithError(w, http.StatusUnprocessableEntity, "Repository release has no package manifest")
	case errors.As(err, &updateErr):
		RespondWithJSON(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
			"phase": updateErr.Phase,
		})
	default:
		RespondWithError(w, http.StatusBadGateway, err.Error())
	}
}
