package handlers

import "net/http"

// HealthCheck returns a simple health check response.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
