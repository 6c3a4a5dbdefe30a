// Package rfq models the request, intermediate, and terminal record
// types that flow through a single structured-product RFQ negotiation.
package rfq

import (
	"fmt"

	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"

	"github.com/aristath/attestor-rfq/internal/codec"
	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
)

// Every record crossing the durable-execution boundary is registered in
// the codec's decode allow-list, so a workflow or activity payload
// tagged with any other type name fails to decode.
func init() {
	codec.RegisterType(RFQInput{})
	codec.RegisterType(MappingInput{})
	codec.RegisterType(MappingOutput{})
	codec.RegisterType(PreTradeInput{})
	codec.RegisterType(PreTradeCheckResult{})
	codec.RegisterType(PreTradeOutcome{})
	codec.RegisterType(PricingInput{})
	codec.RegisterType(PricingResult{})
	codec.RegisterType(PricingOutput{})
	codec.RegisterType(IndicativeInput{})
	codec.RegisterType(TermSheet{})
	codec.RegisterType(ClientResponse{})
	codec.RegisterType(BookingInput{})
	codec.RegisterType(BookingResult{})
	codec.RegisterType(BookingOutput{})
	codec.RegisterType(ConfirmationInput{})
	codec.RegisterType(RFQResult{})
}

// ClientAction is the set of responses a client may give to an
// indicative term sheet.
type ClientAction string

const (
	ActionAccept  ClientAction = "ACCEPT"
	ActionReject  ClientAction = "REJECT"
	ActionRefresh ClientAction = "REFRESH"
)

// RFQOutcome is the exhaustive, mutually-exclusive set of terminal
// states a negotiation can settle into. Every run of the workflow ends
// in exactly one of these.
type RFQOutcome string

const (
	OutcomeExecuted         RFQOutcome = "EXECUTED"
	OutcomeRejectedPreTrade RFQOutcome = "REJECTED_PRE_TRADE"
	OutcomeRejectedByClient RFQOutcome = "REJECTED_BY_CLIENT"
	OutcomeExpired          RFQOutcome = "EXPIRED"
	OutcomeFailed           RFQOutcome = "FAILED"
)

// Side is the client's direction on the requested trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RFQInput is the client-submitted request that starts a negotiation.
type RFQInput struct {
	RFQID          identifiers.NonEmptyStr
	ClientLEI      identifiers.LEI
	Detail         instrument.InstrumentDetail
	NotionalAmount identifiers.PositiveDecimal
	Currency       identifiers.NonEmptyStr
	Side           Side
	TradeDate      identifiers.Date
	SettlementDate identifiers.Date
	Timestamp      identifiers.UtcDatetime
}

// NewRFQInput validates settlement_date >= trade_date.
func NewRFQInput(in RFQInput) (RFQInput, error) {
	if in.SettlementDate.Before(in.TradeDate) {
		return RFQInput{}, fmt.Errorf(
			"RFQInput: settlement_date %s must be >= trade_date %s", in.SettlementDate, in.TradeDate)
	}
	return in, nil
}

// MappingOutput carries the outcome of mapping an RFQ to a CDM product:
// exactly one of Product or Err is set, never both and never neither.
type MappingOutput struct {
	product *instrument.Product
	err     *string
}

// NewMappingSuccess wraps a successful product mapping.
func NewMappingSuccess(p instrument.Product) MappingOutput { return MappingOutput{product: &p} }

// NewMappingFailure wraps a mapping failure message.
func NewMappingFailure(msg string) MappingOutput { return MappingOutput{err: &msg} }

// Product returns the mapped product and whether mapping succeeded.
func (m MappingOutput) Product() (instrument.Product, bool) {
	if m.product == nil {
		return instrument.Product{}, false
	}
	return *m.product, true
}

// Err returns the failure message and whether mapping failed.
func (m MappingOutput) Err() (string, bool) {
	if m.err == nil {
		return "", false
	}
	return *m.err, true
}

// mappingOutputWire is the wire shape for MappingOutput: exactly one of
// Product or Error is populated, the XOR activity-output convention
// every output wrapper in this package follows across the durable-
// execution boundary.
type mappingOutputWire struct {
	Product *instrument.Product `json:"product,omitempty"`
	Error   *string             `json:"error,omitempty"`
}

// MarshalJSON renders whichever of product/err is populated.
func (m MappingOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(mappingOutputWire{Product: m.product, Error: m.err})
}

// UnmarshalJSON parses the wire shape, rejecting a payload that carries
// both or neither of product/error.
func (m *MappingOutput) UnmarshalJSON(data []byte) error {
	var wire mappingOutputWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("MappingOutput: %w", err)
	}
	if (wire.Product == nil) == (wire.Error == nil) {
		return fmt.Errorf("MappingOutput: exactly one of product or error must be set")
	}
	*m = MappingOutput{product: wire.Product, err: wire.Error}
	return nil
}

// PreTradeCheckResult carries the name of the check that ran and the
// rejection reasons it produced, if any. A check with zero rejection
// reasons passed.
type PreTradeCheckResult struct {
	CheckName        string
	RejectionReasons []string
}

// Passed reports whether this individual check produced no rejections.
func (r PreTradeCheckResult) Passed() bool { return len(r.RejectionReasons) == 0 }

// PreTradeOutcome aggregates every registered pre-trade check's result.
type PreTradeOutcome struct {
	Results []PreTradeCheckResult
}

// Passed reports whether every check in the aggregate passed.
func (o PreTradeOutcome) Passed() bool {
	for _, r := range o.Results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// RejectionReasons flattens every rejection reason across all checks,
// in check-registration order.
func (o PreTradeOutcome) RejectionReasons() []string {
	var reasons []string
	for _, r := range o.Results {
		reasons = append(reasons, r.RejectionReasons...)
	}
	return reasons
}

// PricingResult is the economic output of a pricer: an indicative
// price, the sensitivity measures ("greeks") the pricer computed, and
// the provenance fields (model, market data snapshot, confidence,
// attestation) needed to audit and hash the result.
type PricingResult struct {
	IndicativePrice      identifiers.Money
	Greeks               map[string]decimal.Decimal
	ModelName            identifiers.NonEmptyStr
	MarketDataSnapshotID identifiers.NonEmptyStr
	Confidence           identifiers.NonNegativeDecimal
	PricingAttestationID identifiers.NonEmptyStr
	Timestamp            identifiers.UtcDatetime
}

// PricingOutput carries the outcome of invoking a pricer: exactly one
// of Result or Err is set.
type PricingOutput struct {
	result *PricingResult
	err    *string
}

// NewPricingSuccess wraps a successful pricing result.
func NewPricingSuccess(r PricingResult) PricingOutput { return PricingOutput{result: &r} }

// NewPricingFailure wraps a pricing failure message.
func NewPricingFailure(msg string) PricingOutput { return PricingOutput{err: &msg} }

// Result returns the pricing result and whether pricing succeeded.
func (p PricingOutput) Result() (PricingResult, bool) {
	if p.result == nil {
		return PricingResult{}, false
	}
	return *p.result, true
}

// Err returns the failure message and whether pricing failed.
func (p PricingOutput) Err() (string, bool) {
	if p.err == nil {
		return "", false
	}
	return *p.err, true
}

// pricingOutputWire is the wire shape for PricingOutput.
type pricingOutputWire struct {
	Result *PricingResult `json:"result,omitempty"`
	Error  *string        `json:"error,omitempty"`
}

// MarshalJSON renders whichever of result/err is populated.
func (p PricingOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricingOutputWire{Result: p.result, Error: p.err})
}

// UnmarshalJSON parses the wire shape, rejecting a payload that carries
// both or neither of result/error.
func (p *PricingOutput) UnmarshalJSON(data []byte) error {
	var wire pricingOutputWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("PricingOutput: %w", err)
	}
	if (wire.Result == nil) == (wire.Error == nil) {
		return fmt.Errorf("PricingOutput: exactly one of result or error must be set")
	}
	*p = PricingOutput{result: wire.Result, err: wire.Error}
	return nil
}

// TermSheet is the indicative document shown to the client for one
// round of the negotiation. DocumentHash is the content-addressed
// SHA-256 hex digest of the canonical JSON over the pricing fields,
// used to detect a client accepting a stale, already-superseded sheet.
type TermSheet struct {
	RFQID        identifiers.NonEmptyStr
	Pricing      PricingResult
	DocumentHash string
	GeneratedAt  identifiers.UtcDatetime
	ValidUntil   identifiers.UtcDatetime
}

// NewTermSheet validates valid_until >= generated_at.
func NewTermSheet(t TermSheet) (TermSheet, error) {
	if t.ValidUntil.Before(t.GeneratedAt) {
		return TermSheet{}, fmt.Errorf(
			"TermSheet: valid_until %s must be >= generated_at %s", t.ValidUntil, t.GeneratedAt)
	}
	return t, nil
}

// ClientResponse is a client's reply to an indicative term sheet. An
// ACCEPT response must carry the document hash of the sheet it accepts,
// so the workflow can detect stale acceptance. Message is free-form
// client commentary, surfaced verbatim on a REJECT.
type ClientResponse struct {
	RFQID         identifiers.NonEmptyStr
	Action        ClientAction
	Timestamp     identifiers.UtcDatetime
	TermSheetHash string
	Message       string
}

// NewClientResponse validates that ACCEPT always carries a term sheet hash.
func NewClientResponse(r ClientResponse) (ClientResponse, error) {
	if r.Action != ActionAccept && r.Action != ActionReject && r.Action != ActionRefresh {
		return ClientResponse{}, fmt.Errorf("ClientResponse: unrecognized action %q", r.Action)
	}
	if r.Action == ActionAccept && r.TermSheetHash == "" {
		return ClientResponse{}, fmt.Errorf("ClientResponse: ACCEPT requires a term_sheet_hash")
	}
	return r, nil
}

// BookingResult is the outcome of successfully booking an accepted trade.
type BookingResult struct {
	TradeID  identifiers.NonEmptyStr
	UTI      identifiers.UTI
	BookedAt identifiers.UtcDatetime
}

// BookingOutput carries the outcome of invoking the booking activity:
// exactly one of Result or Err is set.
type BookingOutput struct {
	result *BookingResult
	err    *string
}

// NewBookingSuccess wraps a successful booking result.
func NewBookingSuccess(r BookingResult) BookingOutput { return BookingOutput{result: &r} }

// NewBookingFailure wraps a booking failure message.
func NewBookingFailure(msg string) BookingOutput { return BookingOutput{err: &msg} }

// Result returns the booking result and whether booking succeeded.
func (b BookingOutput) Result() (BookingResult, bool) {
	if b.result == nil {
		return BookingResult{}, false
	}
	return *b.result, true
}

// Err returns the failure message and whether booking failed.
func (b BookingOutput) Err() (string, bool) {
	if b.err == nil {
		return "", false
	}
	return *b.err, true
}

// bookingOutputWire is the wire shape for BookingOutput.
type bookingOutputWire struct {
	Result *BookingResult `json:"result,omitempty"`
	Error  *string        `json:"error,omitempty"`
}

// MarshalJSON renders whichever of result/err is populated.
func (b BookingOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingOutputWire{Result: b.result, Error: b.err})
}

// UnmarshalJSON parses the wire shape, rejecting a payload that carries
// both or neither of result/error.
func (b *BookingOutput) UnmarshalJSON(data []byte) error {
	var wire bookingOutputWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("BookingOutput: %w", err)
	}
	if (wire.Result == nil) == (wire.Error == nil) {
		return fmt.Errorf("BookingOutput: exactly one of result or error must be set")
	}
	*b = BookingOutput{result: wire.Result, err: wire.Error}
	return nil
}

// RFQResult is the terminal record produced by a completed negotiation.
// TradeID is present if and only if Outcome is EXECUTED.
// PricingAttestationID carries forward the attestation of the pricing
// run that led to this outcome, when one exists (EXECUTED and EXPIRED
// outcomes always have a last-known pricing attached).
type RFQResult struct {
	RFQID                identifiers.NonEmptyStr
	Outcome              RFQOutcome
	TradeID              *identifiers.NonEmptyStr
	RejectionReasons     []string
	RefreshCount         int
	PricingAttestationID string
}

// NewRFQResult validates the EXECUTED-iff-trade-id-present invariant.
func NewRFQResult(r RFQResult) (RFQResult, error) {
	hasTradeID := r.TradeID != nil
	if r.Outcome == OutcomeExecuted && !hasTradeID {
		return RFQResult{}, fmt.Errorf("RFQResult: EXECUTED outcome requires a trade_id")
	}
	if r.Outcome != OutcomeExecuted && hasTradeID {
		return RFQResult{}, fmt.Errorf("RFQResult: trade_id is only set when outcome is EXECUTED")
	}
	return r, nil
}
