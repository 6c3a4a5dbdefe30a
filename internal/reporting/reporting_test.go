package reporting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

func sampleOrder(t *testing.T) ExecutedOrder {
	t.Helper()

	reportingLEI, err := identifiers.ParseLEI("549300DTUYXVMJXZNY71")
	require.NoError(t, err)
	otherLEI, err := identifiers.ParseLEI("213800ZBRRIF3SPG6V06")
	require.NoError(t, err)
	reportingName, err := identifiers.ParseNonEmptyStr("Dealer Bank plc")
	require.NoError(t, err)
	otherName, err := identifiers.ParseNonEmptyStr("Client Fund LP")
	require.NoError(t, err)
	reportingParty, err := instrument.NewParty(reportingLEI, instrument.RoleReportingParty, reportingName)
	require.NoError(t, err)
	otherParty, err := instrument.NewParty(otherLEI, instrument.RoleOtherParty, otherName)
	require.NoError(t, err)

	isin, err := identifiers.ParseISIN("US0378331005")
	require.NoError(t, err)
	qty, err := identifiers.ParsePositiveDecimal(decimal.NewFromInt(1000))
	require.NoError(t, err)
	ccy, err := identifiers.ParseNonEmptyStr("USD")
	require.NoError(t, err)
	detail := instrument.NewEquityDetail(instrument.EquityDetail{Underlier: isin, Quantity: qty, Currency: ccy})

	notional, err := identifiers.ParsePositiveDecimal(decimal.NewFromInt(150000))
	require.NoError(t, err)
	price, err := identifiers.NewMoney(decimal.NewFromFloat(150.25), "USD")
	require.NoError(t, err)
	rfqID, err := identifiers.ParseNonEmptyStr("rfq-001")
	require.NoError(t, err)
	tradeID, err := identifiers.ParseNonEmptyStr("TRADE-rfq-001")
	require.NoError(t, err)
	uti, err := identifiers.ParseUTI("549300DTUYXVMJXZNY71RFQ00001")
	require.NoError(t, err)

	tradeDate := identifiers.NewDate(2026, time.July, 31)
	executedAt, err := identifiers.ParseUtcDatetime("2026-07-31T15:30:00Z")
	require.NoError(t, err)

	return ExecutedOrder{
		RFQID:              rfqID,
		TradeID:            tradeID,
		UTI:                uti,
		ReportingParty:     reportingParty,
		OtherParty:         otherParty,
		Detail:             detail,
		NotionalAmount:     notional,
		Currency:           ccy,
		Pricing:            rfq.PricingResult{IndicativePrice: price},
		TradeDate:          tradeDate,
		SettlementDate:     tradeDate.AddDays(2),
		ExecutionTimestamp: executedAt,
	}
}

func TestProjectEMIRReportUsesBookedUTI(t *testing.T) {
	order := sampleOrder(t)
	report, err := ProjectEMIRReport(order, order.ExecutionTimestamp)
	require.NoError(t, err)
	assert.Equal(t, order.UTI.String(), report.UTI)
	assert.Equal(t, "Equity", report.AssetClass)
	assert.Nil(t, report.MaturityDate)
}

func TestProjectEMIRReportDerivesUTIWhenMissing(t *testing.T) {
	order := sampleOrder(t)
	order.UTI = identifiers.UTI{}

	report1, err := ProjectEMIRReport(order, order.ExecutionTimestamp)
	require.NoError(t, err)
	report2, err := ProjectEMIRReport(order, order.ExecutionTimestamp)
	require.NoError(t, err)

	assert.NotEmpty(t, report1.UTI)
	assert.Equal(t, report1.UTI, report2.UTI, "derivation must be deterministic")
}

func TestProjectMiFID2ReportEquityHasNoAssetClassBlock(t *testing.T) {
	order := sampleOrder(t)
	report, err := ProjectMiFID2Report(order)
	require.NoError(t, err)
	assert.Nil(t, report.Option)
	assert.Nil(t, report.Futures)
	assert.Nil(t, report.FX)
	assert.Nil(t, report.IRSwap)
	assert.Equal(t, "EQUITY", report.InstrumentKind)
}
