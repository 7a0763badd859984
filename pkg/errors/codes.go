package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where applicable.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeUnknown indicates an unknown error occurred.
	CodeUnknown = "UNKNOWN"

	// CodeValidation indicates request input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeUnauthorized indicates the request does not carry valid credentials.
	CodeUnauthorized = "UNAUTHORIZED"

	// CodeForbidden indicates the caller lacks permission for an action.
	CodeForbidden = "FORBIDDEN"

	// CodeAddressLoad indicates the deployment address record could not be
	// read or parsed. Fatal to contract client initialization.
	CodeAddressLoad = "ADDRESS_LOAD_ERROR"

	// CodeNotInitialized indicates the contract client was used before, or
	// after a failed, initialization. Retryable by the caller after backoff.
	CodeNotInitialized = "NOT_INITIALIZED"

	// CodeSubmissionRejected indicates the chain or provider rejected the
	// call for a caller-fixable reason (revert, insufficient funds, nonce).
	CodeSubmissionRejected = "SUBMISSION_REJECTED"

	// CodeProviderUnavailable indicates the RPC provider could not be
	// reached or did not respond. Retryable.
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"

	// CodeTimeout indicates an operation exceeded its deadline.
	CodeTimeout = "TIMEOUT"

	// CodeRateLimit indicates the caller exceeded the request rate limit.
	CodeRateLimit = "RATE_LIMITED"

	// CodeConfig indicates invalid or missing configuration.
	CodeConfig = "CONFIG_ERROR"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"
)
