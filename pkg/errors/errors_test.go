package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSubmissionErrorCodes(t *testing.T) {
	rejected := NewSubmissionError("buyInvoice", ReasonRejected, errors.New("execution reverted: listing price changed"))
	if rejected.Code() != CodeSubmissionRejected {
		t.Errorf("expected code %s, got %s", CodeSubmissionRejected, rejected.Code())
	}
	if !IsSubmissionRejected(rejected) {
		t.Error("expected IsSubmissionRejected to match")
	}
	if IsProviderUnavailable(rejected) {
		t.Error("rejected submission must not classify as provider unavailable")
	}

	unavailable := NewSubmissionError("createInvoice", ReasonUnavailable, errors.New("dial tcp: connection refused"))
	if unavailable.Code() != CodeProviderUnavailable {
		t.Errorf("expected code %s, got %s", CodeProviderUnavailable, unavailable.Code())
	}
	if !IsProviderUnavailable(unavailable) {
		t.Error("expected IsProviderUnavailable to match")
	}
}

func TestWrappedErrorsClassify(t *testing.T) {
	inner := NewNotInitializedError(errors.New("address record missing"))
	wrapped := fmt.Errorf("handling request: %w", inner)

	if !IsNotInitialized(wrapped) {
		t.Error("expected IsNotInitialized to see through wrapping")
	}
	if StatusCode(wrapped) != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for wrapped NotInitializedError, got %d", StatusCode(wrapped))
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("limit", "limit must be a positive integer", "-5"), http.StatusBadRequest},
		{"not found", NewNotFoundError("invoice", "42"), http.StatusNotFound},
		{"unauthorized", NewUnauthorizedError(""), http.StatusUnauthorized},
		{"not initialized", NewNotInitializedError(nil), http.StatusServiceUnavailable},
		{"address load", NewAddressLoadError("deployments/arbitrum-sepolia.json", errors.New("no such file")), http.StatusServiceUnavailable},
		{"submission rejected", NewSubmissionError("listInvoice", ReasonRejected, nil), http.StatusConflict},
		{"provider unavailable", NewSubmissionError("listInvoice", ReasonUnavailable, nil), http.StatusBadGateway},
		{"timeout", NewTimeoutError("getInvoiceDetails", nil), http.StatusGatewayTimeout},
		{"sentinel rate limit", ErrTooManyRequests, http.StatusTooManyRequests},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestToHTTPErrorDetails(t *testing.T) {
	err := NewNotFoundError("invoice", "7")
	httpErr := ToHTTPError(err)

	if httpErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Status)
	}
	if httpErr.Code != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, httpErr.Code)
	}
	if httpErr.Details["resource"] != "invoice" || httpErr.Details["id"] != "7" {
		t.Errorf("unexpected details: %v", httpErr.Details)
	}
}

func TestToHTTPErrorPassesMessageThrough(t *testing.T) {
	cause := errors.New("insufficient funds for gas * price + value")
	err := NewSubmissionError("buyInvoice", ReasonRejected, cause)
	httpErr := ToHTTPError(err)

	if httpErr.Message != "buyInvoice submission failed" {
		t.Errorf("unexpected message: %q", httpErr.Message)
	}
	if httpErr.Details["reason"] != "rejected" {
		t.Errorf("unexpected reason detail: %v", httpErr.Details)
	}
}
