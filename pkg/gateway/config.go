package gateway

// Config holds configuration for the gateway HTTP server
type Config struct {
	ListenAddr string

	// Rate limiting (per client IP). Zero disables the limiter.
	RateLimitPerMinute int
	RateLimitBurst     int

	// HTTPS configuration
	EnableHTTPS bool   // Enable HTTPS with ACME (Let's Encrypt)
	DomainName  string // Domain name for the HTTPS certificate
	TLSCacheDir string // Directory to cache TLS certificates
	ACMEEmail   string // Contact email for the ACME account
}
