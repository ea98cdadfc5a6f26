package api

import "net/http"

// RequireCatalog answers 503 when the app started without GitHub
// credentials and therefore has no catalog.
func (s *Server) RequireCatalog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.app.Catalog() == nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Catalog unavailable: GitHub credentials were not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
