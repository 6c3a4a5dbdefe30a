// Package reporting builds regulatory trade reports from a completed
// execution. Every report in this package is a pure projection of the
// executed order's fields: it copies and reshapes, it never derives
// new economic meaning.
package reporting

import (
	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

// ExecutedOrder is the fully-booked trade record that every report in
// this package projects from. Callers assemble it after booking
// succeeds; the workflow itself does not build one.
type ExecutedOrder struct {
	RFQID              identifiers.NonEmptyStr
	TradeID            identifiers.NonEmptyStr
	UTI                identifiers.UTI
	ReportingParty     instrument.Party
	OtherParty         instrument.Party
	Detail             instrument.InstrumentDetail
	NotionalAmount     identifiers.PositiveDecimal
	Currency           identifiers.NonEmptyStr
	Pricing            rfq.PricingResult
	TradeDate          identifiers.Date
	SettlementDate     identifiers.Date
	ExecutionTimestamp identifiers.UtcDatetime
}
