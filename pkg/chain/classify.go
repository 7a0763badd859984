package chain

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/fylaro/fylaro-backend/pkg/errors"
)

// Provider error fragments that indicate the call itself was rejected and
// retrying unchanged cannot succeed. Anything else is treated as a transport
// failure.
var rejectionMarkers = []string{
	"execution reverted",
	"insufficient funds",
	"nonce too low",
	"nonce too high",
	"replacement transaction underpriced",
	"already known",
	"gas required exceeds allowance",
	"intrinsic gas too low",
	"max fee per gas less than block base fee",
	"invalid sender",
}

// classifySubmission maps a provider error from a state-changing call onto
// the submission taxonomy: caller-fixable rejection vs. retryable provider
// failure vs. deadline.
func classifySubmission(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(op, err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rejectionMarkers {
		if strings.Contains(msg, marker) {
			return errors.NewSubmissionError(op, errors.ReasonRejected, err)
		}
	}
	return errors.NewSubmissionError(op, errors.ReasonUnavailable, err)
}

// classifyRead maps a provider error from a read-only query. Reads have no
// rejection class: either the provider answered or it did not.
func classifyRead(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(op, err)
	}
	return errors.NewSubmissionError(op, errors.ReasonUnavailable, err)
}
