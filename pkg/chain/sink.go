package chain

import (
	"context"
	"errors"
)

// MultiSink fans each event out to every sink in order. Failures do not stop
// delivery to the remaining sinks; the joined error is returned for logging.
type MultiSink []EventSink

// NewMultiSink builds a sink from the non-nil entries.
func NewMultiSink(sinks ...EventSink) MultiSink {
	out := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m MultiSink) HandleInvoiceCreated(ctx context.Context, ev InvoiceCreatedEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.HandleInvoiceCreated(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) HandleInvoiceTraded(ctx context.Context, ev InvoiceTradedEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.HandleInvoiceTraded(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
