package server

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

// createRFQRequest is the wire shape accepted by POST /rfqs. Detail's
// shape depends on Kind; only the fields relevant to that kind need be
// set.
type createRFQRequest struct {
	RFQID          string `json:"rfq_id"`
	ClientLEI      string `json:"client_lei"`
	Kind           string `json:"kind"`
	NotionalAmount string `json:"notional_amount"`
	Currency       string `json:"currency"`
	Side           string `json:"side"`
	TradeDate      string `json:"trade_date"`
	SettlementDate string `json:"settlement_date"`

	Underlier          string `json:"underlier,omitempty"`
	Quantity           string `json:"quantity,omitempty"`
	Strike             string `json:"strike,omitempty"`
	ExpiryDate         string `json:"expiry_date,omitempty"`
	Style              string `json:"style,omitempty"`
	PutCall            string `json:"put_call,omitempty"`
	SettlementType     string `json:"settlement_type,omitempty"`
	ContractMonth      string `json:"contract_month,omitempty"`
	ContractSize       string `json:"contract_size,omitempty"`
	LastTradingDate    string `json:"last_trading_date,omitempty"`
	BaseCurrency       string `json:"base_currency,omitempty"`
	QuoteCurrency      string `json:"quote_currency,omitempty"`
	ForwardRate        string `json:"forward_rate,omitempty"`
	FixingDate         string `json:"fixing_date,omitempty"`
	FixedRate          string `json:"fixed_rate,omitempty"`
	FloatingIndex      string `json:"floating_index,omitempty"`
	DayCount           string `json:"day_count,omitempty"`
	PaymentFrequency   string `json:"payment_frequency,omitempty"`
	TenorMonths        int    `json:"tenor_months,omitempty"`
	EffectiveDate      string `json:"effective_date,omitempty"`
	MaturityDate       string `json:"maturity_date,omitempty"`
	PayerReceiver      string `json:"payer_receiver,omitempty"`
	ReferenceEntityLEI string `json:"reference_entity_lei,omitempty"`
	Seniority          string `json:"seniority,omitempty"`
	FixedSpreadBps     string `json:"fixed_spread_bps,omitempty"`
}

func parseDate(raw string) (identifiers.Date, error) {
	return identifiers.ParseDate(raw)
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, fmt.Errorf("missing decimal value")
	}
	return decimal.NewFromString(raw)
}

// toInstrumentDetail builds the asset-class-specific InstrumentDetail
// named by req.Kind from the request's flat field set.
func (req createRFQRequest) toInstrumentDetail() (instrument.InstrumentDetail, error) {
	ccy, err := identifiers.ParseNonEmptyStr(req.Currency)
	if err != nil {
		return instrument.InstrumentDetail{}, err
	}

	switch instrument.Kind(req.Kind) {
	case instrument.KindEquity:
		isin, err := identifiers.ParseISIN(req.Underlier)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		qty, err := parseDecimal(req.Quantity)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		qtyVal, err := identifiers.ParsePositiveDecimal(qty)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		return instrument.NewEquityDetail(instrument.EquityDetail{Underlier: isin, Quantity: qtyVal, Currency: ccy}), nil

	case instrument.KindOption:
		isin, err := identifiers.ParseISIN(req.Underlier)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		strike, err := parseDecimal(req.Strike)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		strikeVal, err := identifiers.ParseNonNegativeDecimal(strike)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		expiry, err := parseDate(req.ExpiryDate)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		qty, err := parseDecimal(req.Quantity)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		qtyVal, err := identifiers.ParsePositiveDecimal(qty)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		return instrument.NewOptionDetail(instrument.OptionDetail{
			Underlier: isin, Strike: strikeVal, ExpiryDate: expiry,
			Style: instrument.OptionStyle(req.Style), PutCall: instrument.PutCall(req.PutCall),
			SettlementType: instrument.SettlementType(req.SettlementType),
			Quantity:       qtyVal, Currency: ccy,
		})

	case instrument.KindFutures:
		underlier, err := identifiers.ParseNonEmptyStr(req.Underlier)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		lastTrading, err := parseDate(req.LastTradingDate)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		expiry, err := parseDate(req.ExpiryDate)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		contractSize, err := parseDecimal(req.ContractSize)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		contractSizeVal, err := identifiers.ParsePositiveDecimal(contractSize)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		qty, err := parseDecimal(req.Quantity)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		qtyVal, err := identifiers.ParsePositiveDecimal(qty)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		return instrument.NewFuturesDetail(instrument.FuturesDetail{
			Underlier: underlier, ContractMonth: req.ContractMonth,
			LastTradingDate: lastTrading, ExpiryDate: expiry,
			ContractSize:   contractSizeVal,
			SettlementType: instrument.SettlementType(req.SettlementType),
			Quantity:       qtyVal, Currency: ccy,
		})

	case instrument.KindFX:
		base, err := identifiers.ParseNonEmptyStr(req.BaseCurrency)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		quote, err := identifiers.ParseNonEmptyStr(req.QuoteCurrency)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		notional, err := parseDecimal(req.NotionalAmount)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		notionalVal, err := identifiers.ParsePositiveDecimal(notional)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		settlement, err := parseDate(req.SettlementDate)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		settlementType := instrument.FXSettlementType(req.SettlementType)
		var forwardRatePtr *identifiers.PositiveDecimal
		if req.ForwardRate != "" {
			rate, err := parseDecimal(req.ForwardRate)
			if err != nil {
				return instrument.InstrumentDetail{}, err
			}
			rateVal, err := identifiers.ParsePositiveDecimal(rate)
			if err != nil {
				return instrument.InstrumentDetail{}, err
			}
			forwardRatePtr = &rateVal
		}
		var fixingPtr *identifiers.Date
		if settlementType == instrument.FXNDF {
			fixing, err := parseDate(req.FixingDate)
			if err != nil {
				return instrument.InstrumentDetail{}, err
			}
			fixingPtr = &fixing
		}
		return instrument.NewFXDetail(instrument.FXDetail{
			BaseCurrency: base, QuoteCurrency: quote, NotionalAmount: notionalVal,
			SettlementDate: settlement, SettlementType: settlementType,
			ForwardRate: forwardRatePtr, FixingDate: fixingPtr,
		})

	case instrument.KindIRSwap:
		swap, err := req.toIRSwapDetail(ccy)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		return instrument.NewIRSwapDetail(swap)

	case instrument.KindSwaption:
		swap, err := req.toIRSwapDetail(ccy)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		expiry, err := parseDate(req.ExpiryDate)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		return instrument.NewSwaptionDetail(instrument.SwaptionDetail{
			Underlying: swap, ExpiryDate: expiry,
			Style: instrument.OptionStyle(req.Style), PayerReceiver: instrument.PayerReceiver(req.PayerReceiver),
		})

	case instrument.KindCDS:
		lei, err := identifiers.ParseLEI(req.ReferenceEntityLEI)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		notional, err := parseDecimal(req.NotionalAmount)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		notionalVal, err := identifiers.ParsePositiveDecimal(notional)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		spread, err := parseDecimal(req.FixedSpreadBps)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		spreadVal, err := identifiers.ParseNonZeroDecimal(spread)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		effective, err := parseDate(req.EffectiveDate)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		maturity, err := parseDate(req.MaturityDate)
		if err != nil {
			return instrument.InstrumentDetail{}, err
		}
		return instrument.NewCDSDetail(instrument.CDSDetail{
			ReferenceEntityLEI: lei, Seniority: instrument.SeniorityTier(req.Seniority),
			NotionalAmount: notionalVal, Currency: ccy, FixedSpreadBps: spreadVal,
			EffectiveDate: effective, MaturityDate: maturity,
		})

	default:
		return instrument.InstrumentDetail{}, fmt.Errorf("unsupported instrument kind %q", req.Kind)
	}
}

func (req createRFQRequest) toIRSwapDetail(ccy identifiers.NonEmptyStr) (instrument.IRSwapDetail, error) {
	notional, err := parseDecimal(req.NotionalAmount)
	if err != nil {
		return instrument.IRSwapDetail{}, err
	}
	notionalVal, err := identifiers.ParsePositiveDecimal(notional)
	if err != nil {
		return instrument.IRSwapDetail{}, err
	}
	fixedRate, err := parseDecimal(req.FixedRate)
	if err != nil {
		return instrument.IRSwapDetail{}, err
	}
	floatingIndex, err := identifiers.ParseNonEmptyStr(req.FloatingIndex)
	if err != nil {
		return instrument.IRSwapDetail{}, err
	}
	effective, err := parseDate(req.EffectiveDate)
	if err != nil {
		return instrument.IRSwapDetail{}, err
	}
	maturity, err := parseDate(req.MaturityDate)
	if err != nil {
		return instrument.IRSwapDetail{}, err
	}
	return instrument.IRSwapDetail{
		Currency: ccy, NotionalAmount: notionalVal, FixedRate: fixedRate,
		FloatingIndex:    floatingIndex,
		DayCount:         instrument.DayCount(req.DayCount),
		PaymentFrequency: instrument.PaymentFrequency(req.PaymentFrequency),
		TenorMonths:      req.TenorMonths,
		EffectiveDate:    effective, MaturityDate: maturity,
		PayerReceiver: instrument.PayerReceiver(req.PayerReceiver),
	}, nil
}

// toRFQInput builds a validated rfq.RFQInput from the request.
func (req createRFQRequest) toRFQInput() (rfq.RFQInput, error) {
	rfqID, err := identifiers.ParseNonEmptyStr(req.RFQID)
	if err != nil {
		return rfq.RFQInput{}, err
	}
	clientLEI, err := identifiers.ParseLEI(req.ClientLEI)
	if err != nil {
		return rfq.RFQInput{}, err
	}
	ccy, err := identifiers.ParseNonEmptyStr(req.Currency)
	if err != nil {
		return rfq.RFQInput{}, err
	}
	notional, err := parseDecimal(req.NotionalAmount)
	if err != nil {
		return rfq.RFQInput{}, err
	}
	notionalVal, err := identifiers.ParsePositiveDecimal(notional)
	if err != nil {
		return rfq.RFQInput{}, err
	}
	tradeDate, err := parseDate(req.TradeDate)
	if err != nil {
		return rfq.RFQInput{}, err
	}
	settlementDate, err := parseDate(req.SettlementDate)
	if err != nil {
		return rfq.RFQInput{}, err
	}
	detail, err := req.toInstrumentDetail()
	if err != nil {
		return rfq.RFQInput{}, err
	}

	side := rfq.Side(req.Side)
	if side != rfq.SideBuy && side != rfq.SideSell {
		return rfq.RFQInput{}, fmt.Errorf("unsupported side %q", req.Side)
	}

	return rfq.NewRFQInput(rfq.RFQInput{
		RFQID:          rfqID,
		ClientLEI:      clientLEI,
		Detail:         detail,
		NotionalAmount: notionalVal,
		Currency:       ccy,
		Side:           side,
		TradeDate:      tradeDate,
		SettlementDate: settlementDate,
		Timestamp:      identifiers.UtcNow(),
	})
}

// respondRequest is the wire shape accepted by POST /rfqs/{id}/respond.
type respondRequest struct {
	Action        string `json:"action"`
	TermSheetHash string `json:"term_sheet_hash,omitempty"`
	Message       string `json:"message,omitempty"`
}

func (req respondRequest) toClientResponse(rfqID string) (rfq.ClientResponse, error) {
	id, err := identifiers.ParseNonEmptyStr(rfqID)
	if err != nil {
		return rfq.ClientResponse{}, err
	}
	return rfq.NewClientResponse(rfq.ClientResponse{
		RFQID:         id,
		Action:        rfq.ClientAction(req.Action),
		Timestamp:     identifiers.UtcNow(),
		TermSheetHash: req.TermSheetHash,
		Message:       req.Message,
	})
}
