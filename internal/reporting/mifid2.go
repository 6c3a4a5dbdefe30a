package reporting

import (
	"fmt"

	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
)

// OptionReportFields carries the MiFID II RTS 22 fields specific to
// option transaction reports.
type OptionReportFields struct {
	PutCall        string           `json:"put_call"`
	StrikePrice    string           `json:"strike_price"`
	ExpiryDate     identifiers.Date `json:"expiry_date"`
	OptionStyle    string           `json:"option_style"`
	SettlementType string           `json:"settlement_type"`
}

// FuturesReportFields carries the MiFID II fields specific to futures
// transaction reports.
type FuturesReportFields struct {
	ContractMonth   string           `json:"contract_month"`
	ContractSize    string           `json:"contract_size"`
	LastTradingDate identifiers.Date `json:"last_trading_date"`
	SettlementType  string           `json:"settlement_type"`
}

// FXReportFields carries the MiFID II fields specific to foreign
// exchange transaction reports. ForwardRate is absent for spot legs.
type FXReportFields struct {
	BaseCurrency   string  `json:"base_currency"`
	QuoteCurrency  string  `json:"quote_currency"`
	SettlementType string  `json:"settlement_type"`
	ForwardRate    *string `json:"forward_rate,omitempty"`
}

// IRSwapReportFields carries the MiFID II fields specific to interest
// rate swap transaction reports.
type IRSwapReportFields struct {
	FixedRate        string `json:"fixed_rate"`
	FloatingIndex    string `json:"floating_index"`
	DayCount         string `json:"day_count"`
	PaymentFrequency string `json:"payment_frequency"`
	TenorMonths      int    `json:"tenor_months"`
	PayerReceiver    string `json:"payer_receiver"`
}

// MiFIDIIReport is the RTS 22 transaction report shape. At most one
// asset-class-specific field block is populated, selected by the
// executed instrument's kind (equities, swaptions and CDS populate
// none); everything else is the common header
// every asset class reports.
type MiFIDIIReport struct {
	TradeID         string                  `json:"trade_id"`
	InstrumentKind  string                  `json:"instrument_kind"`
	BuyerLEI        string                  `json:"buyer_lei"`
	SellerLEI       string                  `json:"seller_lei"`
	Quantity        string                  `json:"quantity"`
	PriceAmount     string                  `json:"price_amount"`
	PriceCurrency   string                  `json:"price_currency"`
	TradingDateTime identifiers.UtcDatetime `json:"trading_date_time"`

	Option  *OptionReportFields  `json:"option,omitempty"`
	Futures *FuturesReportFields `json:"futures,omitempty"`
	FX      *FXReportFields      `json:"fx,omitempty"`
	IRSwap  *IRSwapReportFields  `json:"ir_swap,omitempty"`
}

// ProjectMiFID2Report builds a MiFIDIIReport from a fully-booked order.
// The reporting party is always recorded as buyer and the other party
// as seller; payer/receiver direction and side are not consulted.
func ProjectMiFID2Report(order ExecutedOrder) (MiFIDIIReport, error) {
	report := MiFIDIIReport{
		TradeID:         order.TradeID.String(),
		InstrumentKind:  string(order.Detail.Kind()),
		BuyerLEI:        order.ReportingParty.LEI.String(),
		SellerLEI:       order.OtherParty.LEI.String(),
		Quantity:        order.NotionalAmount.Value().String(),
		PriceAmount:     order.Pricing.IndicativePrice.Amount().String(),
		PriceCurrency:   order.Pricing.IndicativePrice.Currency().String(),
		TradingDateTime: order.ExecutionTimestamp,
	}

	switch order.Detail.Kind() {
	case instrument.KindOption:
		o, _ := order.Detail.Option()
		report.Option = &OptionReportFields{
			PutCall:        string(o.PutCall),
			StrikePrice:    o.Strike.Value().String(),
			ExpiryDate:     o.ExpiryDate,
			OptionStyle:    string(o.Style),
			SettlementType: string(o.SettlementType),
		}
	case instrument.KindFutures:
		f, _ := order.Detail.Futures()
		report.Futures = &FuturesReportFields{
			ContractMonth:   f.ContractMonth,
			ContractSize:    f.ContractSize.Value().String(),
			LastTradingDate: f.LastTradingDate,
			SettlementType:  string(f.SettlementType),
		}
	case instrument.KindFX:
		f, _ := order.Detail.FX()
		fields := &FXReportFields{
			BaseCurrency:   f.BaseCurrency.String(),
			QuoteCurrency:  f.QuoteCurrency.String(),
			SettlementType: string(f.SettlementType),
		}
		if f.ForwardRate != nil {
			rate := f.ForwardRate.Value().String()
			fields.ForwardRate = &rate
		}
		report.FX = fields
	case instrument.KindIRSwap:
		s, _ := order.Detail.IRSwap()
		report.IRSwap = &IRSwapReportFields{
			FixedRate:        s.FixedRate.String(),
			FloatingIndex:    s.FloatingIndex.String(),
			DayCount:         string(s.DayCount),
			PaymentFrequency: string(s.PaymentFrequency),
			TenorMonths:      s.TenorMonths,
			PayerReceiver:    string(s.PayerReceiver),
		}
	case instrument.KindEquity, instrument.KindSwaption, instrument.KindCDS:
		// no asset-class-specific block defined for these under this report
	default:
		return MiFIDIIReport{}, fmt.Errorf("reporting: unsupported instrument kind %q", order.Detail.Kind())
	}

	return report, nil
}
