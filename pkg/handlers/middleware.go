package handlers

import (
	"net/http"
	"os"
	"strings"
)

// authMiddleware provides optional API key authentication. When
// PROCESSOR_API_KEY is unset all requests pass through, so local and
// container-internal deployments keep working without credentials.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := os.Getenv("PROCESSOR_API_KEY")
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimPrefix(authHeader, "Bearer ") == apiKey {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-API-Key") == apiKey {
			next.ServeHTTP(w, r)
			return
		}

		h.writeErrorResponse(w, http.StatusUnauthorized, "invalid or missing API key")
	})
}
