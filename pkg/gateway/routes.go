package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the http.Handler with all routes and middleware configured.
// Read routes over public chain state need no auth; everything that signs a
// transaction or depends on the caller's wallet does.
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()

	// health/status
	r.Get("/health", g.healthHandler)
	r.Get("/v1/health", g.healthHandler)
	r.Get("/v1/status", g.statusHandler)

	// public reads
	r.Get("/v1/invoice/{tokenId}", g.getInvoiceHandler)
	r.Get("/v1/marketplace/listings", g.marketplaceListingsHandler)
	r.Get("/v1/marketplace/activity", g.marketplaceActivityHandler)

	// authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(g.authMiddleware)

		r.Post("/v1/invoice", g.createInvoiceHandler)
		r.Post("/v1/invoice/{tokenId}/list", g.listInvoiceHandler)
		r.Post("/v1/invoice/{tokenId}/buy", g.buyInvoiceHandler)
		r.Post("/v1/invoice/{tokenId}/verify", g.verifyInvoiceHandler)
		r.Get("/v1/user/invoices", g.userInvoicesHandler)
		r.Get("/v1/events/ws", g.eventsWebsocketHandler)

		// owner-only contract calls; the contract enforces ownership
		r.Post("/v1/admin/issuers", g.addVerifiedIssuerHandler)
		r.Post("/v1/admin/fees/platform", g.updatePlatformFeeHandler)
		r.Post("/v1/admin/fees/verification", g.updateVerificationFeeHandler)
	})

	return g.withMiddleware(r)
}
