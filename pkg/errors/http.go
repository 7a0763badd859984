package errors

import (
	"errors"
	"net/http"
)

// HTTPError represents an HTTP error response body.
type HTTPError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for an error.
// It maps error codes to appropriate HTTP status codes. The route layer never
// invents new meaning: each taxonomy kind has exactly one status.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return codeToHTTPStatus(customErr.Code())
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	}

	return http.StatusInternalServerError
}

// codeToHTTPStatus maps error codes to HTTP status codes.
func codeToHTTPStatus(code string) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeSubmissionRejected:
		return http.StatusConflict
	case CodeProviderUnavailable:
		return http.StatusBadGateway
	case CodeNotInitialized, CodeAddressLoad:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeConfig, CodeInternal, CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// sentinelCode maps the package sentinels to their stable codes.
func sentinelCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidInput):
		return CodeValidation
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrNotInitialized):
		return CodeNotInitialized
	case errors.Is(err, ErrTooManyRequests):
		return CodeRateLimit
	}
	return CodeInternal
}

// ToHTTPError converts an error to an HTTPError, passing the underlying
// message through without rewriting it.
func ToHTTPError(err error) *HTTPError {
	if err == nil {
		return &HTTPError{
			Status:  http.StatusOK,
			Code:    CodeOK,
			Message: "success",
		}
	}

	httpErr := &HTTPError{
		Status:  StatusCode(err),
		Details: map[string]string{},
	}

	var customErr Error
	if errors.As(err, &customErr) {
		httpErr.Code = customErr.Code()
		httpErr.Message = customErr.Message()
	} else {
		httpErr.Code = sentinelCode(err)
		httpErr.Message = err.Error()
	}

	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		submissionErr *SubmissionError
		timeoutErr    *TimeoutError
	)

	switch {
	case errors.As(err, &validationErr):
		if validationErr.Field != "" {
			httpErr.Details["field"] = validationErr.Field
		}
	case errors.As(err, &notFoundErr):
		if notFoundErr.Resource != "" {
			httpErr.Details["resource"] = notFoundErr.Resource
		}
		if notFoundErr.ID != "" {
			httpErr.Details["id"] = notFoundErr.ID
		}
	case errors.As(err, &submissionErr):
		httpErr.Details["operation"] = submissionErr.Op
		httpErr.Details["reason"] = string(submissionErr.Reason)
	case errors.As(err, &timeoutErr):
		httpErr.Details["operation"] = timeoutErr.Op
	}

	if len(httpErr.Details) == 0 {
		httpErr.Details = nil
	}
	return httpErr
}
