package errors

import "errors"

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidInput)
}

// IsUnauthorized reports whether err is an authentication error.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue) || errors.Is(err, ErrUnauthorized)
}

// IsNotInitialized reports whether err indicates the contract client has no
// usable contract handle.
func IsNotInitialized(err error) bool {
	var ne *NotInitializedError
	return errors.As(err, &ne) || errors.Is(err, ErrNotInitialized)
}

// IsAddressLoad reports whether err is an address record load failure.
func IsAddressLoad(err error) bool {
	var ae *AddressLoadError
	return errors.As(err, &ae)
}

// IsSubmissionRejected reports whether err is a submission failure the caller
// must fix before retrying (revert, funds, nonce).
func IsSubmissionRejected(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se) && se.Reason == ReasonRejected
}

// IsProviderUnavailable reports whether err is a transport-level submission
// failure that may clear on retry.
func IsProviderUnavailable(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se) && se.Reason == ReasonUnavailable
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te) || errors.Is(err, ErrTimeout)
}
