package handler

import (
	"context"
	"net/http"
)

// HealthHandler returns a health check endpoint backed by check.
func HealthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		RespondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	}
}
