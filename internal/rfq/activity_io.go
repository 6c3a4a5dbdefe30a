package rfq

import (
	"time"

	"github.com/aristath/attestor-rfq/internal/codec"
	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
)

// Validity is a time-to-live carried across the activity boundary as a
// tagged seconds envelope rather than Go's opaque nanosecond integer.
type Validity time.Duration

// Duration returns the wrapped time.Duration.
func (v Validity) Duration() time.Duration { return time.Duration(v) }

// MarshalJSON renders the validity as a tagged __timedelta_s__ envelope.
func (v Validity) MarshalJSON() ([]byte, error) {
	return codec.MarshalDuration(time.Duration(v))
}

// UnmarshalJSON parses a tagged __timedelta_s__ envelope.
func (v *Validity) UnmarshalJSON(data []byte) error {
	d, err := codec.UnmarshalDuration(data)
	if err != nil {
		return err
	}
	*v = Validity(d)
	return nil
}

// MappingInput is passed to the activity that maps a raw RFQ into its
// CDM product representation.
type MappingInput struct {
	RFQ RFQInput
}

// PreTradeInput is passed to the activity that runs every registered
// pre-trade check against a mapped product.
type PreTradeInput struct {
	RFQ     RFQInput
	Product instrument.Product
}

// PricingInput is passed to the activity that resolves and invokes a
// pricer for the mapped product.
type PricingInput struct {
	RFQ     RFQInput
	Product instrument.Product
}

// IndicativeInput is passed to the activity that builds a term sheet
// from a pricing result and delivers it to the client. Now is the
// workflow's logical clock reading, not the activity's wall clock, so
// the term sheet's validity window is deterministic under replay.
type IndicativeInput struct {
	RFQ      RFQInput
	Pricing  PricingResult
	Now      identifiers.UtcDatetime
	ValidFor Validity
}

// BookingInput is passed to the activity that books an accepted trade.
// AcceptedPrice pins the exact price the client agreed to, independent
// of any later repricing.
type BookingInput struct {
	RFQ            RFQInput
	Product        instrument.Product
	Pricing        PricingResult
	AcceptedPrice  identifiers.Money
	IdempotencyKey string
}

// ConfirmationInput is passed to the activity that delivers a trade
// confirmation to the client after booking.
type ConfirmationInput struct {
	RFQ       RFQInput
	Booking   BookingResult
	TermSheet TermSheet
}
