package rfq

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/attestor-rfq/internal/codec"
	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
)

func samplePricing(t *testing.T) PricingResult {
	t.Helper()

	price, err := identifiers.NewMoney(decimal.RequireFromString("150.25"), "USD")
	require.NoError(t, err)
	model, err := identifiers.ParseNonEmptyStr("BlackScholes")
	require.NoError(t, err)
	snapshot, err := identifiers.ParseNonEmptyStr("SNAP-001")
	require.NoError(t, err)
	confidence, err := identifiers.ParseNonNegativeDecimal(decimal.RequireFromString("0.95"))
	require.NoError(t, err)
	attestation, err := identifiers.ParseNonEmptyStr("ATTEST-001")
	require.NoError(t, err)

	pricedAt, err := identifiers.ParseUtcDatetime("2026-07-31T09:00:00Z")
	require.NoError(t, err)

	return PricingResult{
		IndicativePrice:      price,
		Greeks:               map[string]decimal.Decimal{"delta": decimal.RequireFromString("0.5")},
		ModelName:            model,
		MarketDataSnapshotID: snapshot,
		Confidence:           confidence,
		PricingAttestationID: attestation,
		Timestamp:            pricedAt,
	}
}

func TestRFQInputRejectsSettlementBeforeTrade(t *testing.T) {
	tradeDate := identifiers.NewDate(2026, time.July, 31)
	_, err := NewRFQInput(RFQInput{
		TradeDate:      tradeDate,
		SettlementDate: tradeDate.AddDays(-1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settlement_date")
}

func TestTermSheetRejectsValidUntilBeforeGeneratedAt(t *testing.T) {
	generated, err := identifiers.ParseUtcDatetime("2026-07-31T09:00:00Z")
	require.NoError(t, err)
	_, err = NewTermSheet(TermSheet{
		GeneratedAt: generated,
		ValidUntil:  generated.Add(-time.Minute),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid_until")
}

func TestClientResponseAcceptRequiresHash(t *testing.T) {
	rfqID, err := identifiers.ParseNonEmptyStr("rfq-001")
	require.NoError(t, err)

	_, err = NewClientResponse(ClientResponse{RFQID: rfqID, Action: ActionAccept})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "term_sheet_hash")

	_, err = NewClientResponse(ClientResponse{RFQID: rfqID, Action: ActionReject, Message: "too wide"})
	require.NoError(t, err)

	_, err = NewClientResponse(ClientResponse{RFQID: rfqID, Action: "WITHDRAW"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized action")
}

func TestRFQResultTradeIDIffExecuted(t *testing.T) {
	rfqID, err := identifiers.ParseNonEmptyStr("rfq-001")
	require.NoError(t, err)
	tradeID, err := identifiers.ParseNonEmptyStr("TRADE-rfq-001")
	require.NoError(t, err)

	_, err = NewRFQResult(RFQResult{RFQID: rfqID, Outcome: OutcomeExecuted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trade_id")

	_, err = NewRFQResult(RFQResult{RFQID: rfqID, Outcome: OutcomeExpired, TradeID: &tradeID})
	require.Error(t, err)

	result, err := NewRFQResult(RFQResult{RFQID: rfqID, Outcome: OutcomeExecuted, TradeID: &tradeID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeExecuted, result.Outcome)
}

func TestActivityOutputWrappersEnforceExactlyOne(t *testing.T) {
	t.Run("pricing output decode rejects both absent", func(t *testing.T) {
		var out PricingOutput
		err := out.UnmarshalJSON([]byte(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one")
	})

	t.Run("mapping output decode rejects both present", func(t *testing.T) {
		var out MappingOutput
		err := out.UnmarshalJSON([]byte(`{"product":{"ProductID":"p"},"error":"boom"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one")
	})

	t.Run("booking failure round-trips", func(t *testing.T) {
		out := NewBookingFailure("Ledger conflict")
		data, err := out.MarshalJSON()
		require.NoError(t, err)

		var back BookingOutput
		require.NoError(t, back.UnmarshalJSON(data))
		msg, failed := back.Err()
		assert.True(t, failed)
		assert.Equal(t, "Ledger conflict", msg)
		_, ok := back.Result()
		assert.False(t, ok)
	})
}

func TestWorkflowRecordsSurviveDataConverterRoundTrip(t *testing.T) {
	dc := codec.NewDataConverter()

	lei, err := identifiers.ParseLEI("549300DTUYXVMJXZNY71")
	require.NoError(t, err)
	isin, err := identifiers.ParseISIN("US0378331005")
	require.NoError(t, err)
	qty, err := identifiers.ParsePositiveDecimal(decimal.NewFromInt(1000))
	require.NoError(t, err)
	ccy, err := identifiers.ParseNonEmptyStr("USD")
	require.NoError(t, err)
	notional, err := identifiers.ParsePositiveDecimal(decimal.RequireFromString("150000.50"))
	require.NoError(t, err)
	rfqID, err := identifiers.ParseNonEmptyStr("rfq-roundtrip-001")
	require.NoError(t, err)

	tradeDate := identifiers.NewDate(2026, time.July, 31)
	submittedAt, err := identifiers.ParseUtcDatetime("2026-07-31T09:00:00Z")
	require.NoError(t, err)
	input, err := NewRFQInput(RFQInput{
		RFQID:          rfqID,
		ClientLEI:      lei,
		Detail:         instrument.NewEquityDetail(instrument.EquityDetail{Underlier: isin, Quantity: qty, Currency: ccy}),
		NotionalAmount: notional,
		Currency:       ccy,
		Side:           SideBuy,
		TradeDate:      tradeDate,
		SettlementDate: tradeDate.AddDays(2),
		Timestamp:      submittedAt,
	})
	require.NoError(t, err)

	t.Run("rfq input", func(t *testing.T) {
		payload, err := dc.ToPayload(input)
		require.NoError(t, err)

		var back RFQInput
		require.NoError(t, dc.FromPayload(payload, &back))
		assert.Equal(t, input.RFQID, back.RFQID)
		assert.Equal(t, input.ClientLEI, back.ClientLEI)
		assert.True(t, back.NotionalAmount.Value().Equal(notional.Value()))
		assert.Equal(t, instrument.KindEquity, back.Detail.Kind())
	})

	t.Run("pricing result preserves decimal exactness", func(t *testing.T) {
		pricing := samplePricing(t)
		payload, err := dc.ToPayload(pricing)
		require.NoError(t, err)

		var back PricingResult
		require.NoError(t, dc.FromPayload(payload, &back))
		assert.True(t, back.IndicativePrice.Amount().Equal(pricing.IndicativePrice.Amount()))
		assert.Equal(t, "USD", back.IndicativePrice.Currency().String())
		assert.True(t, back.Greeks["delta"].Equal(decimal.RequireFromString("0.5")))
	})

	t.Run("encoding is byte-stable", func(t *testing.T) {
		pricing := samplePricing(t)
		p1, err := dc.ToPayload(pricing)
		require.NoError(t, err)
		p2, err := dc.ToPayload(pricing)
		require.NoError(t, err)
		assert.Equal(t, p1.GetData(), p2.GetData())
	})
}
