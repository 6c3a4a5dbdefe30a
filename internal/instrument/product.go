package instrument

import (
	"fmt"

	"github.com/aristath/attestor-rfq/internal/identifiers"
)

// PartyRole distinguishes the two counterparties to a trade.
type PartyRole string

const (
	RoleReportingParty PartyRole = "REPORTING_PARTY"
	RoleOtherParty     PartyRole = "OTHER_PARTY"
)

// Party identifies one counterparty to a trade by LEI.
type Party struct {
	LEI  identifiers.LEI
	Role PartyRole
	Name identifiers.NonEmptyStr
}

// NewParty validates and constructs a Party.
func NewParty(lei identifiers.LEI, role PartyRole, name identifiers.NonEmptyStr) (Party, error) {
	if role != RoleReportingParty && role != RoleOtherParty {
		return Party{}, fmt.Errorf("Party: invalid role %q", role)
	}
	return Party{LEI: lei, Role: role, Name: name}, nil
}

// PayoutSpec carries the asset-class-specific economic terms for a
// product's single payout leg. The original phase-1 system modeled only
// equity payouts; this generalizes the same shape across all seven
// supported asset classes via InstrumentDetail.
type PayoutSpec struct {
	Detail InstrumentDetail
}

// EconomicTerms wraps the effective date range and payout terms common
// to every CDM product, independent of asset class.
type EconomicTerms struct {
	EffectiveDate   identifiers.Date
	TerminationDate identifiers.Date
	Payout          PayoutSpec
}

// NewEconomicTerms validates effective_date <= termination_date.
func NewEconomicTerms(effective, termination identifiers.Date, payout PayoutSpec) (EconomicTerms, error) {
	if effective.After(termination) {
		return EconomicTerms{}, fmt.Errorf(
			"EconomicTerms: effective_date %s must be <= termination_date %s", effective, termination)
	}
	return EconomicTerms{EffectiveDate: effective, TerminationDate: termination, Payout: payout}, nil
}

// Product is the CDM-shaped economic representation of a structured
// product: a product identifier and its economic terms.
type Product struct {
	ProductID        identifiers.NonEmptyStr
	ProductQualifier identifiers.NonEmptyStr
	EconomicTerms    EconomicTerms
}

// NewProduct constructs a Product wrapping EconomicTerms under a
// product identifier and CDM product qualifier (e.g. "InterestRateSwap",
// "Option", "ForeignExchange").
func NewProduct(productID, qualifier identifiers.NonEmptyStr, terms EconomicTerms) Product {
	return Product{ProductID: productID, ProductQualifier: qualifier, EconomicTerms: terms}
}

// Instrument pairs a CDM Product with the two counterparties to the
// trade and the trade/settlement dates negotiated for this RFQ.
type Instrument struct {
	Product        Product
	ReportingParty Party
	OtherParty     Party
	TradeDate      identifiers.Date
	SettlementDate identifiers.Date
}

// NewInstrument validates settlement_date >= trade_date and that the
// two parties carry distinct roles.
func NewInstrument(product Product, reporting, other Party, tradeDate, settlementDate identifiers.Date) (Instrument, error) {
	if settlementDate.Before(tradeDate) {
		return Instrument{}, fmt.Errorf(
			"Instrument: settlement_date %s must be >= trade_date %s", settlementDate, tradeDate)
	}
	if reporting.Role != RoleReportingParty {
		return Instrument{}, fmt.Errorf("Instrument: reportingParty must carry REPORTING_PARTY role")
	}
	if other.Role != RoleOtherParty {
		return Instrument{}, fmt.Errorf("Instrument: otherParty must carry OTHER_PARTY role")
	}
	return Instrument{
		Product:        product,
		ReportingParty: reporting,
		OtherParty:     other,
		TradeDate:      tradeDate,
		SettlementDate: settlementDate,
	}, nil
}

// QualifierForKind maps an instrument Kind to the CDM product qualifier
// string used in reporting and registry resolution.
func QualifierForKind(k Kind) string {
	switch k {
	case KindEquity:
		return "Equity"
	case KindOption:
		return "Option"
	case KindFutures:
		return "Future"
	case KindFX:
		return "ForeignExchange"
	case KindIRSwap:
		return "InterestRateSwap"
	case KindSwaption:
		return "Swaption"
	case KindCDS:
		return "CreditDefaultSwap"
	default:
		return "Unknown"
	}
}
