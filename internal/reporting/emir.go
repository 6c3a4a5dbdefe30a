package reporting

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/segmentio/encoding/json"

	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
)

// EMIRTradeReport is the EMIR Article 9 trade report shape: a flat
// projection of the executed order's counterparties, economics, and
// timestamps, keyed by the trade's UTI.
type EMIRTradeReport struct {
	UTI                   string                  `json:"uti"`
	ReportingCounterparty string                  `json:"reporting_counterparty_lei"`
	OtherCounterparty     string                  `json:"other_counterparty_lei"`
	AssetClass            string                  `json:"asset_class"`
	NotionalAmount        string                  `json:"notional_amount"`
	NotionalCurrency      string                  `json:"notional_currency"`
	PriceAmount           string                  `json:"price_amount"`
	PriceCurrency         string                  `json:"price_currency"`
	TradeDate             identifiers.Date        `json:"trade_date"`
	MaturityDate          *identifiers.Date       `json:"maturity_date,omitempty"`
	ReportSubmittedAt     identifiers.UtcDatetime `json:"report_submitted_at"`
}

// emirUTISourceFields is the canonical subset of the order used to
// derive a deterministic UTI when the order was booked without one
// already assigned by the venue. The derivation must be pure: the same
// order always yields the same UTI.
type emirUTISourceFields struct {
	RFQID          string `json:"rfq_id"`
	TradeID        string `json:"trade_id"`
	ReportingLEI   string `json:"reporting_lei"`
	OtherLEI       string `json:"other_lei"`
	NotionalAmount string `json:"notional_amount"`
	TradeDate      string `json:"trade_date"`
}

// deriveUTI computes a stable UTI by hashing the order's identifying
// fields and prefixing the digest with the executing (reporting)
// party's LEI, matching the convention that a UTI's first 20
// characters identify the UTI-generating entity.
func deriveUTI(order ExecutedOrder) (string, error) {
	src := emirUTISourceFields{
		RFQID:          order.RFQID.String(),
		TradeID:        order.TradeID.String(),
		ReportingLEI:   order.ReportingParty.LEI.String(),
		OtherLEI:       order.OtherParty.LEI.String(),
		NotionalAmount: order.NotionalAmount.Value().String(),
		TradeDate:      order.TradeDate.String(),
	}
	canonical, err := canonicalJSON(src)
	if err != nil {
		return "", fmt.Errorf("reporting: canonicalize UTI source: %w", err)
	}
	sum := sha256.Sum256(canonical)
	digest := hex.EncodeToString(sum[:])
	return order.ReportingParty.LEI.String() + digest[:32], nil
}

// canonicalJSON marshals v with struct fields in declaration order,
// which segmentio/encoding/json already guarantees deterministically,
// giving the same bytes for the same field values every time.
func canonicalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// ProjectEMIRReport builds an EMIRTradeReport from a fully-booked
// order. If the order was not assigned a UTI at booking time, one is
// derived deterministically; otherwise the booked UTI is used
// unchanged.
func ProjectEMIRReport(order ExecutedOrder, submittedAt identifiers.UtcDatetime) (EMIRTradeReport, error) {
	uti := order.UTI.String()
	if uti == "" {
		derived, err := deriveUTI(order)
		if err != nil {
			return EMIRTradeReport{}, err
		}
		uti = derived
	}

	report := EMIRTradeReport{
		UTI:                   uti,
		ReportingCounterparty: order.ReportingParty.LEI.String(),
		OtherCounterparty:     order.OtherParty.LEI.String(),
		AssetClass:            instrument.QualifierForKind(order.Detail.Kind()),
		NotionalAmount:        order.NotionalAmount.Value().String(),
		NotionalCurrency:      order.Currency.String(),
		PriceAmount:           order.Pricing.IndicativePrice.Amount().String(),
		PriceCurrency:         order.Pricing.IndicativePrice.Currency().String(),
		TradeDate:             order.TradeDate,
		ReportSubmittedAt:     submittedAt,
	}

	if maturity, ok := maturityDateFor(order.Detail); ok {
		m := maturity
		report.MaturityDate = &m
	}

	return report, nil
}

// maturityDateFor extracts the reportable maturity/expiry date for
// asset classes that carry one; equities and all FX legs (NDFs
// included) have none.
func maturityDateFor(detail instrument.InstrumentDetail) (identifiers.Date, bool) {
	if o, ok := detail.Option(); ok {
		return o.ExpiryDate, true
	}
	if f, ok := detail.Futures(); ok {
		return f.ExpiryDate, true
	}
	if s, ok := detail.IRSwap(); ok {
		return s.MaturityDate, true
	}
	if s, ok := detail.Swaption(); ok {
		return s.ExpiryDate, true
	}
	if c, ok := detail.CDS(); ok {
		return c.MaturityDate, true
	}
	return identifiers.Date{}, false
}
