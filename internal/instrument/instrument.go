// Package instrument models the economic terms of a structured product
// and the CDM-shaped product/instrument record built around them. Each
// asset class is a distinct detail type; InstrumentDetail is a closed,
// tagged union over them so a switch on Kind() is exhaustive.
package instrument

import (
	"fmt"

	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"

	"github.com/aristath/attestor-rfq/internal/codec"
	"github.com/aristath/attestor-rfq/internal/identifiers"
)

// Kind discriminates which concrete detail an InstrumentDetail wraps.
type Kind string

const (
	KindEquity   Kind = "EQUITY"
	KindOption   Kind = "OPTION"
	KindFutures  Kind = "FUTURES"
	KindFX       Kind = "FX"
	KindIRSwap   Kind = "IR_SWAP"
	KindSwaption Kind = "SWAPTION"
	KindCDS      Kind = "CDS"
)

// OptionStyle distinguishes exercise conventions.
type OptionStyle string

const (
	OptionStyleAmerican OptionStyle = "AMERICAN"
	OptionStyleEuropean OptionStyle = "EUROPEAN"
)

// PutCall distinguishes option direction.
type PutCall string

const (
	Put  PutCall = "PUT"
	Call PutCall = "CALL"
)

// PayerReceiver indicates which leg of a swap the reporting party pays.
type PayerReceiver string

const (
	Payer    PayerReceiver = "PAYER"
	Receiver PayerReceiver = "RECEIVER"
)

// SettlementType distinguishes how an option or futures contract
// settles at exercise or expiry.
type SettlementType string

const (
	SettleCash     SettlementType = "CASH"
	SettlePhysical SettlementType = "PHYSICAL"
)

// FXSettlementType distinguishes spot, forward, and non-deliverable
// FX legs.
type FXSettlementType string

const (
	FXSpot    FXSettlementType = "SPOT"
	FXForward FXSettlementType = "FORWARD"
	FXNDF     FXSettlementType = "NDF"
)

// DayCount names the day-count convention accruing a swap's fixed leg.
type DayCount string

const (
	DayCountAct360    DayCount = "ACT/360"
	DayCountAct365    DayCount = "ACT/365F"
	DayCountThirty360 DayCount = "30E/360"
)

// PaymentFrequency names how often a swap leg pays.
type PaymentFrequency string

const (
	PayAnnual     PaymentFrequency = "ANNUAL"
	PaySemiAnnual PaymentFrequency = "SEMI_ANNUAL"
	PayQuarterly  PaymentFrequency = "QUARTERLY"
	PayMonthly    PaymentFrequency = "MONTHLY"
)

// InstrumentDetail is a closed tagged union over the seven supported
// asset classes. Exactly one of the embedded pointers is non-nil; Kind
// reports which one. On the wire each variant carries a __type__ tag
// resolved through the codec's decode allow-list, so only the seven
// registered variant types can ever be reconstructed from a payload.
type InstrumentDetail struct {
	kind     Kind
	equity   *EquityDetail
	option   *OptionDetail
	futures  *FuturesDetail
	fx       *FXDetail
	irSwap   *IRSwapDetail
	swaption *SwaptionDetail
	cds      *CDSDetail
}

// The variants' allow-list registrations. These names are the only
// __type__ tags an InstrumentDetail payload may carry.
var (
	equityTypeName   = codec.RegisterType(EquityDetail{})
	optionTypeName   = codec.RegisterType(OptionDetail{})
	futuresTypeName  = codec.RegisterType(FuturesDetail{})
	fxTypeName       = codec.RegisterType(FXDetail{})
	irSwapTypeName   = codec.RegisterType(IRSwapDetail{})
	swaptionTypeName = codec.RegisterType(SwaptionDetail{})
	cdsTypeName      = codec.RegisterType(CDSDetail{})
)

// Kind reports which concrete variant this detail wraps.
func (d InstrumentDetail) Kind() Kind { return d.kind }

// Equity returns the wrapped EquityDetail and whether this detail is an equity.
func (d InstrumentDetail) Equity() (EquityDetail, bool) {
	if d.equity == nil {
		return EquityDetail{}, false
	}
	return *d.equity, true
}

// Option returns the wrapped OptionDetail and whether this detail is an option.
func (d InstrumentDetail) Option() (OptionDetail, bool) {
	if d.option == nil {
		return OptionDetail{}, false
	}
	return *d.option, true
}

// Futures returns the wrapped FuturesDetail and whether this detail is futures.
func (d InstrumentDetail) Futures() (FuturesDetail, bool) {
	if d.futures == nil {
		return FuturesDetail{}, false
	}
	return *d.futures, true
}

// FX returns the wrapped FXDetail and whether this detail is FX.
func (d InstrumentDetail) FX() (FXDetail, bool) {
	if d.fx == nil {
		return FXDetail{}, false
	}
	return *d.fx, true
}

// IRSwap returns the wrapped IRSwapDetail and whether this detail is an IR swap.
func (d InstrumentDetail) IRSwap() (IRSwapDetail, bool) {
	if d.irSwap == nil {
		return IRSwapDetail{}, false
	}
	return *d.irSwap, true
}

// Swaption returns the wrapped SwaptionDetail and whether this detail is a swaption.
func (d InstrumentDetail) Swaption() (SwaptionDetail, bool) {
	if d.swaption == nil {
		return SwaptionDetail{}, false
	}
	return *d.swaption, true
}

// CDS returns the wrapped CDSDetail and whether this detail is a CDS.
func (d InstrumentDetail) CDS() (CDSDetail, bool) {
	if d.cds == nil {
		return CDSDetail{}, false
	}
	return *d.cds, true
}

// MarshalJSON renders the wrapped variant's fields with a leading
// __type__ tag naming the variant.
func (d InstrumentDetail) MarshalJSON() ([]byte, error) {
	var payload interface{}
	var fqn string
	switch d.kind {
	case KindEquity:
		payload, fqn = d.equity, equityTypeName
	case KindOption:
		payload, fqn = d.option, optionTypeName
	case KindFutures:
		payload, fqn = d.futures, futuresTypeName
	case KindFX:
		payload, fqn = d.fx, fxTypeName
	case KindIRSwap:
		payload, fqn = d.irSwap, irSwapTypeName
	case KindSwaption:
		payload, fqn = d.swaption, swaptionTypeName
	case KindCDS:
		payload, fqn = d.cds, cdsTypeName
	default:
		return nil, fmt.Errorf("InstrumentDetail: no variant set")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("InstrumentDetail: %w", err)
	}
	return codec.TagObject(data, fqn)
}

// UnmarshalJSON dispatches on the payload's __type__ tag, decodes the
// named variant, and re-runs its constructor so a decoded detail obeys
// the same invariants as a freshly built one. A missing tag, or a tag
// naming anything but the seven registered variants, is a decode
// failure rather than a zero-value InstrumentDetail.
func (d *InstrumentDetail) UnmarshalJSON(data []byte) error {
	fqn, ok := codec.PeekTypeTag(data)
	if !ok {
		return fmt.Errorf("InstrumentDetail: payload carries no __type__ tag")
	}
	switch fqn {
	case equityTypeName:
		var e EquityDetail
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("InstrumentDetail: %w", err)
		}
		*d = NewEquityDetail(e)
	case optionTypeName:
		var o OptionDetail
		if err := json.Unmarshal(data, &o); err != nil {
			return fmt.Errorf("InstrumentDetail: %w", err)
		}
		v, err := NewOptionDetail(o)
		if err != nil {
			return err
		}
		*d = v
	case futuresTypeName:
		var f FuturesDetail
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("InstrumentDetail: %w", err)
		}
		v, err := NewFuturesDetail(f)
		if err != nil {
			return err
		}
		*d = v
	case fxTypeName:
		var f FXDetail
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("InstrumentDetail: %w", err)
		}
		v, err := NewFXDetail(f)
		if err != nil {
			return err
		}
		*d = v
	case irSwapTypeName:
		var s IRSwapDetail
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("InstrumentDetail: %w", err)
		}
		v, err := NewIRSwapDetail(s)
		if err != nil {
			return err
		}
		*d = v
	case swaptionTypeName:
		var s SwaptionDetail
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("InstrumentDetail: %w", err)
		}
		v, err := NewSwaptionDetail(s)
		if err != nil {
			return err
		}
		*d = v
	case cdsTypeName:
		var c CDSDetail
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("InstrumentDetail: %w", err)
		}
		v, err := NewCDSDetail(c)
		if err != nil {
			return err
		}
		*d = v
	default:
		return fmt.Errorf("InstrumentDetail: type %q is not in the decode allow-list", fqn)
	}
	return nil
}

// EquityDetail describes a cash equity leg.
type EquityDetail struct {
	Underlier identifiers.ISIN
	Quantity  identifiers.PositiveDecimal
	Currency  identifiers.NonEmptyStr
}

// NewEquityDetail wraps an InstrumentDetail around equity terms.
func NewEquityDetail(e EquityDetail) InstrumentDetail {
	return InstrumentDetail{kind: KindEquity, equity: &e}
}

// OptionDetail describes a listed or OTC option. Strike MAY be zero
// (zero-strike calls trade as funded delta-one notes).
type OptionDetail struct {
	Underlier      identifiers.ISIN
	Strike         identifiers.NonNegativeDecimal
	ExpiryDate     identifiers.Date
	Style          OptionStyle
	PutCall        PutCall
	SettlementType SettlementType
	Quantity       identifiers.PositiveDecimal
	Currency       identifiers.NonEmptyStr
}

// NewOptionDetail validates and wraps an InstrumentDetail around option terms.
func NewOptionDetail(o OptionDetail) (InstrumentDetail, error) {
	if o.Style != OptionStyleAmerican && o.Style != OptionStyleEuropean {
		return InstrumentDetail{}, fmt.Errorf("OptionDetail: invalid style %q", o.Style)
	}
	if o.PutCall != Put && o.PutCall != Call {
		return InstrumentDetail{}, fmt.Errorf("OptionDetail: invalid put/call %q", o.PutCall)
	}
	if o.SettlementType != SettleCash && o.SettlementType != SettlePhysical {
		return InstrumentDetail{}, fmt.Errorf("OptionDetail: invalid settlement type %q", o.SettlementType)
	}
	return InstrumentDetail{kind: KindOption, option: &o}, nil
}

// FuturesDetail describes an exchange-traded futures contract.
type FuturesDetail struct {
	Underlier       identifiers.NonEmptyStr
	ContractMonth   string
	LastTradingDate identifiers.Date
	ExpiryDate      identifiers.Date
	ContractSize    identifiers.PositiveDecimal
	SettlementType  SettlementType
	Quantity        identifiers.PositiveDecimal
	Currency        identifiers.NonEmptyStr
}

// NewFuturesDetail validates last_trading_date <= expiry_date and a
// recognized settlement type.
func NewFuturesDetail(f FuturesDetail) (InstrumentDetail, error) {
	if f.LastTradingDate.After(f.ExpiryDate) {
		return InstrumentDetail{}, fmt.Errorf(
			"FuturesDetail: last_trading_date %s must be <= expiry_date %s",
			f.LastTradingDate, f.ExpiryDate)
	}
	if f.SettlementType != SettleCash && f.SettlementType != SettlePhysical {
		return InstrumentDetail{}, fmt.Errorf("FuturesDetail: invalid settlement type %q", f.SettlementType)
	}
	return InstrumentDetail{kind: KindFutures, futures: &f}, nil
}

// FXDetail describes a spot, forward, or non-deliverable forward leg.
// ForwardRate is absent on spot; FixingDate exists only on NDFs.
type FXDetail struct {
	BaseCurrency   identifiers.NonEmptyStr
	QuoteCurrency  identifiers.NonEmptyStr
	NotionalAmount identifiers.PositiveDecimal
	SettlementDate identifiers.Date
	SettlementType FXSettlementType
	ForwardRate    *identifiers.PositiveDecimal
	FixingDate     *identifiers.Date
}

// NewFXDetail validates that the currency pair is not degenerate, that
// the forward rate and fixing date appear only on the settlement types
// that carry them, and for an NDF that fixing_date <= settlement_date.
func NewFXDetail(f FXDetail) (InstrumentDetail, error) {
	if f.BaseCurrency.String() == f.QuoteCurrency.String() {
		return InstrumentDetail{}, fmt.Errorf(
			"FXDetail: base currency %s must differ from quote currency", f.BaseCurrency.String())
	}
	switch f.SettlementType {
	case FXSpot:
		if f.ForwardRate != nil {
			return InstrumentDetail{}, fmt.Errorf("FXDetail: spot settlement cannot carry a forward rate")
		}
		if f.FixingDate != nil {
			return InstrumentDetail{}, fmt.Errorf("FXDetail: fixing_date is only valid for NDF settlement")
		}
	case FXForward:
		if f.FixingDate != nil {
			return InstrumentDetail{}, fmt.Errorf("FXDetail: fixing_date is only valid for NDF settlement")
		}
	case FXNDF:
		if f.FixingDate == nil {
			return InstrumentDetail{}, fmt.Errorf("FXDetail: NDF settlement requires fixing_date")
		}
		if f.FixingDate.After(f.SettlementDate) {
			return InstrumentDetail{}, fmt.Errorf(
				"FXDetail: fixing_date %s must be <= settlement_date %s",
				f.FixingDate, f.SettlementDate)
		}
	default:
		return InstrumentDetail{}, fmt.Errorf("FXDetail: invalid settlement type %q", f.SettlementType)
	}
	return InstrumentDetail{kind: KindFX, fx: &f}, nil
}

// IRSwapDetail describes a fixed-for-floating interest rate swap leg
// pair. FixedRate may be negative (observed in EUR/CHF/JPY markets).
type IRSwapDetail struct {
	Currency         identifiers.NonEmptyStr
	NotionalAmount   identifiers.PositiveDecimal
	FixedRate        decimal.Decimal
	FloatingIndex    identifiers.NonEmptyStr
	DayCount         DayCount
	PaymentFrequency PaymentFrequency
	TenorMonths      int
	EffectiveDate    identifiers.Date
	MaturityDate     identifiers.Date
	PayerReceiver    PayerReceiver
}

// NewIRSwapDetail validates effective_date < maturity_date, a positive
// tenor, and recognized day-count / frequency / payer conventions.
func NewIRSwapDetail(s IRSwapDetail) (InstrumentDetail, error) {
	if !s.EffectiveDate.Before(s.MaturityDate) {
		return InstrumentDetail{}, fmt.Errorf(
			"IRSwapDetail: effective_date %s must be before maturity_date %s",
			s.EffectiveDate, s.MaturityDate)
	}
	if s.PayerReceiver != Payer && s.PayerReceiver != Receiver {
		return InstrumentDetail{}, fmt.Errorf("IRSwapDetail: invalid payer/receiver %q", s.PayerReceiver)
	}
	switch s.DayCount {
	case DayCountAct360, DayCountAct365, DayCountThirty360:
	default:
		return InstrumentDetail{}, fmt.Errorf("IRSwapDetail: invalid day count %q", s.DayCount)
	}
	switch s.PaymentFrequency {
	case PayAnnual, PaySemiAnnual, PayQuarterly, PayMonthly:
	default:
		return InstrumentDetail{}, fmt.Errorf("IRSwapDetail: invalid payment frequency %q", s.PaymentFrequency)
	}
	if s.TenorMonths <= 0 {
		return InstrumentDetail{}, fmt.Errorf("IRSwapDetail: tenor_months must be > 0, got %d", s.TenorMonths)
	}
	return InstrumentDetail{kind: KindIRSwap, irSwap: &s}, nil
}

// SwaptionDetail describes an option on an underlying interest rate swap.
type SwaptionDetail struct {
	Underlying    IRSwapDetail
	ExpiryDate    identifiers.Date
	Style         OptionStyle
	PayerReceiver PayerReceiver
}

// NewSwaptionDetail validates the swaption expires on or before its
// underlying swap's effective date.
func NewSwaptionDetail(s SwaptionDetail) (InstrumentDetail, error) {
	if s.ExpiryDate.After(s.Underlying.EffectiveDate) {
		return InstrumentDetail{}, fmt.Errorf(
			"SwaptionDetail: expiry_date %s must be <= underlying effective_date %s",
			s.ExpiryDate, s.Underlying.EffectiveDate)
	}
	if s.Style != OptionStyleAmerican && s.Style != OptionStyleEuropean {
		return InstrumentDetail{}, fmt.Errorf("SwaptionDetail: invalid style %q", s.Style)
	}
	return InstrumentDetail{kind: KindSwaption, swaption: &s}, nil
}

// SeniorityTier distinguishes CDS reference obligation seniority.
type SeniorityTier string

const (
	SeniorUnsecured SeniorityTier = "SENIOR_UNSECURED"
	Subordinated    SeniorityTier = "SUBORDINATED"
)

// CDSDetail describes a single-name credit default swap. The running
// spread is a NonZeroDecimal: standard coupons are quoted at fixed
// non-zero basis points, and a zero spread means the leg was never
// quoted at all.
type CDSDetail struct {
	ReferenceEntityLEI identifiers.LEI
	Seniority          SeniorityTier
	NotionalAmount     identifiers.PositiveDecimal
	Currency           identifiers.NonEmptyStr
	FixedSpreadBps     identifiers.NonZeroDecimal
	EffectiveDate      identifiers.Date
	MaturityDate       identifiers.Date
}

// NewCDSDetail validates effective_date < maturity_date and a
// recognized seniority tier.
func NewCDSDetail(c CDSDetail) (InstrumentDetail, error) {
	if !c.EffectiveDate.Before(c.MaturityDate) {
		return InstrumentDetail{}, fmt.Errorf(
			"CDSDetail: effective_date %s must be before maturity_date %s",
			c.EffectiveDate, c.MaturityDate)
	}
	if c.Seniority != SeniorUnsecured && c.Seniority != Subordinated {
		return InstrumentDetail{}, fmt.Errorf("CDSDetail: invalid seniority %q", c.Seniority)
	}
	return InstrumentDetail{kind: KindCDS, cds: &c}, nil
}
