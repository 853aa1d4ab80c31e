package handlers

import "net/http"

// HealthResponse reports liveness
// swagger:model HealthResponse
type HealthResponse struct {
	// default: ok
	Status  string `json:"status"`
	Service string `json:"service"`
}

// NewHealthHandler returns a liveness probe handler.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse
// @Router /health [get]
func NewHealthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: service})
	}
}
