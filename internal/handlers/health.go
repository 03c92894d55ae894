package handlers

import "net/http"

// HealthHandler responds with service health information.
type HealthHandler struct {
	Driver string
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	payload := map[string]string{
		"status": "ok",
	}
	if h.Driver != "" {
		payload["backend"] = h.Driver
	}

	respondJSON(r.Context(), w, http.StatusOK, payload)
}
