package gateway

import (
	"net/http"
	"time"
)

// GET /health, /v1/health
func (g *Gateway) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

// GET /v1/status
func (g *Gateway) statusHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"uptime":    time.Since(g.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if g.store != nil {
		invoices, trades, err := g.store.Counts(r.Context())
		if err == nil {
			body["invoices_indexed"] = invoices
			body["trades_indexed"] = trades
		}
	}

	writeJSON(w, http.StatusOK, body)
}
