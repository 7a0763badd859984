package ctxkeys

// ContextKey is used for storing request-scoped authentication and metadata
// in context
type ContextKey string

const (
	// Identity stores the authenticated caller identity for the request
	Identity ContextKey = "caller_identity"

	// RequestID stores the request correlation ID
	RequestID ContextKey = "request_id"
)
