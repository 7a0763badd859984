package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/gateway/auth"
	"github.com/fylaro/fylaro-backend/pkg/gateway/ctxkeys"
	"github.com/fylaro/fylaro-backend/pkg/logging"
)

// withMiddleware wraps the router with the cross-cutting layers.
// Order: request ID (outermost) -> logging -> CORS -> rate limit. Auth is
// applied per route group in routes.go, not globally.
func (g *Gateway) withMiddleware(next http.Handler) http.Handler {
	return g.requestIDMiddleware(
		g.loggingMiddleware(
			g.corsMiddleware(
				g.rateLimitMiddleware(next))))
}

// requestIDMiddleware assigns each request a correlation ID, honoring one
// supplied by an upstream proxy.
func (g *Gateway) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), ctxkeys.RequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs basic request info and duration
func (g *Gateway) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		dur := time.Since(start)

		reqID, _ := r.Context().Value(ctxkeys.RequestID).(string)
		g.logger.ComponentInfo(logging.ComponentGateway, "request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", srw.status),
			zap.Int("bytes", srw.bytes),
			zap.String("duration", dur.String()),
			zap.String("request_id", reqID),
		)
	})
}

// corsMiddleware applies permissive CORS headers suitable for early development
func (g *Gateway) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(600))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware enforces bearer authentication. It resolves the token to a
// caller identity and attaches it to the request context; unauthenticated
// requests are rejected before any chain call happens.
//
// Accepts:
//   - Authorization: Bearer <API key> or ApiKey <API key>
//   - X-API-Key: <API key>
//   - ?api_key=<API key> (WebSocket support)
func (g *Gateway) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow preflight without auth
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key := extractAPIKey(r)
		if key == "" {
			w.Header().Set("WWW-Authenticate", "Bearer realm=\"gateway\", charset=\"UTF-8\"")
			writeError(w, errors.NewUnauthorizedError("missing API key"))
			return
		}

		id, err := g.authSvc.Authenticate(r.Context(), key)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer error=\"invalid_token\"")
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxkeys.Identity, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFromRequest returns the authenticated identity attached by
// authMiddleware, or nil on unauthenticated routes.
func identityFromRequest(r *http.Request) *auth.Identity {
	id, _ := r.Context().Value(ctxkeys.Identity).(*auth.Identity)
	return id
}

// extractAPIKey extracts the API key from Authorization, X-API-Key header, or
// query parameters. X-API-Key is preferred when both are present.
func extractAPIKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-API-Key")); v != "" {
		return v
	}

	if header := r.Header.Get("Authorization"); header != "" {
		lower := strings.ToLower(header)
		switch {
		case strings.HasPrefix(lower, "bearer "):
			return strings.TrimSpace(header[len("Bearer "):])
		case strings.HasPrefix(lower, "apikey "):
			return strings.TrimSpace(header[len("ApiKey "):])
		case !strings.Contains(header, " "):
			// If header has no scheme, treat the whole value as token (lenient for dev)
			return strings.TrimSpace(header)
		}
	}

	// Fallback to query parameter (for WebSocket support)
	return strings.TrimSpace(r.URL.Query().Get("api_key"))
}
