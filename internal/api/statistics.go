package api

import "net/http"

// Statistics handles GET /api/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, stats)
}

// Liveness handles GET /health.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]string{"service": "kb", "status": "healthy"})
}
