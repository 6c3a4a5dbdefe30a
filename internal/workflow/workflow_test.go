package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/aristath/attestor-rfq/internal/activities"
	"github.com/aristath/attestor-rfq/internal/activities/ledger"
	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/instrument"
	"github.com/aristath/attestor-rfq/internal/registry"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

type WorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
}

func TestWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowTestSuite))
}

func (s *WorkflowTestSuite) newActivities() *activities.Activities {
	l, err := ledger.Open(":memory:")
	s.Require().NoError(err)
	s.T().Cleanup(func() { l.Close() })

	mappers := registry.NewProductMappingRegistry()
	checks := registry.NewPreTradeCheckRegistry()
	pricers := registry.NewPricingRegistry()
	activities.RegisterDefaults(mappers, checks, pricers)

	return &activities.Activities{
		Mappers: mappers,
		Checks:  checks,
		Pricers: pricers,
		Ledger:  l,
		Log:     zerolog.Nop(),
	}
}

func sampleInput(s *WorkflowTestSuite) rfq.RFQInput {
	lei, err := identifiers.ParseLEI("549300DTUYXVMJXZNY71")
	s.Require().NoError(err)
	isin, err := identifiers.ParseISIN("US0378331005")
	s.Require().NoError(err)
	qty, err := identifiers.ParsePositiveDecimal(decimal.NewFromInt(1000))
	s.Require().NoError(err)
	ccy, err := identifiers.ParseNonEmptyStr("USD")
	s.Require().NoError(err)
	notional, err := identifiers.ParsePositiveDecimal(decimal.NewFromInt(150_000))
	s.Require().NoError(err)
	rfqID, err := identifiers.ParseNonEmptyStr("rfq-workflow-001")
	s.Require().NoError(err)

	detail := instrument.NewEquityDetail(instrument.EquityDetail{Underlier: isin, Quantity: qty, Currency: ccy})
	tradeDate := identifiers.NewDate(2026, time.July, 31)
	submittedAt, err := identifiers.ParseUtcDatetime("2026-07-31T09:00:00Z")
	s.Require().NoError(err)

	in, err := rfq.NewRFQInput(rfq.RFQInput{
		RFQID:          rfqID,
		ClientLEI:      lei,
		Detail:         detail,
		NotionalAmount: notional,
		Currency:       ccy,
		Side:           rfq.SideBuy,
		TradeDate:      tradeDate,
		SettlementDate: tradeDate.AddDays(2),
		Timestamp:      submittedAt,
	})
	s.Require().NoError(err)
	return in
}

func (s *WorkflowTestSuite) clientResponse(action rfq.ClientAction, termSheetHash string) rfq.ClientResponse {
	rfqID, err := identifiers.ParseNonEmptyStr("rfq-workflow-001")
	s.Require().NoError(err)
	respondedAt, err := identifiers.ParseUtcDatetime("2026-07-31T10:00:00Z")
	s.Require().NoError(err)
	return rfq.ClientResponse{
		RFQID:         rfqID,
		Action:        action,
		Timestamp:     respondedAt,
		TermSheetHash: termSheetHash,
	}
}

func (s *WorkflowTestSuite) TestHappyPathExecutesOnAccept() {
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(s.newActivities())

	env.RegisterDelayedCallback(func() {
		encodedStatus, err := env.QueryWorkflow(GetStatusQueryName)
		s.Require().NoError(err)
		var status Status
		s.Require().NoError(encodedStatus.Get(&status))
		s.Require().Equal(StatusAwaitingClient, status)

		encodedPricing, err := env.QueryWorkflow(GetCurrentPricingQueryName)
		s.Require().NoError(err)
		var pricing *rfq.PricingResult
		s.Require().NoError(encodedPricing.Get(&pricing))
		s.Require().NotNil(pricing)
		s.Require().Equal("BlackScholes", pricing.ModelName.String())

		encoded, err := env.QueryWorkflow(GetCurrentTermSheetQueryName)
		s.Require().NoError(err)
		var sheet *rfq.TermSheet
		s.Require().NoError(encoded.Get(&sheet))
		s.Require().NotNil(sheet)

		env.SignalWorkflow(ClientRespondsSignalName, s.clientResponse(rfq.ActionAccept, sheet.DocumentHash))
	}, time.Millisecond)

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeExecuted, result.Outcome)
	require.NotNil(s.T(), result.TradeID)
	require.Equal(s.T(), "TRADE-rfq-workflow-001", result.TradeID.String())
	require.NotEmpty(s.T(), result.PricingAttestationID)
}

func (s *WorkflowTestSuite) TestPreTradeRejectionForExcessiveNotional() {
	env := s.NewTestWorkflowEnvironment()
	a := s.newActivities()
	env.RegisterActivity(a)

	env.ExecuteWorkflow(RFQWorkflow, s.inputWithNotional(decimal.NewFromInt(1_000_000_000)))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeRejectedPreTrade, result.Outcome)
	require.NotEmpty(s.T(), result.RejectionReasons)
}

func (s *WorkflowTestSuite) TestPreTradeRejectionForCreditLimitBreach() {
	env := s.NewTestWorkflowEnvironment()

	l, err := ledger.Open(":memory:")
	s.Require().NoError(err)
	s.T().Cleanup(func() { l.Close() })

	mappers := registry.NewProductMappingRegistry()
	checks := registry.NewPreTradeCheckRegistry()
	pricers := registry.NewPricingRegistry()
	activities.RegisterDefaults(mappers, checks, pricers)
	checks.Register(activities.CreditLimitCheck{Limits: map[string]decimal.Decimal{
		"549300DTUYXVMJXZNY71": decimal.NewFromInt(100_000),
	}})

	env.RegisterActivity(&activities.Activities{
		Mappers: mappers,
		Checks:  checks,
		Pricers: pricers,
		Ledger:  l,
		Log:     zerolog.Nop(),
	})

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeRejectedPreTrade, result.Outcome)
	require.Len(s.T(), result.RejectionReasons, 1)
	require.Contains(s.T(), result.RejectionReasons[0], "Credit limit exceeded")
}

func (s *WorkflowTestSuite) inputWithNotional(n decimal.Decimal) rfq.RFQInput {
	in := sampleInput(s)
	notional, err := identifiers.ParsePositiveDecimal(n)
	s.Require().NoError(err)
	in.NotionalAmount = notional
	return in
}

// failingMapper and failingPricer stand in for collaborators whose
// upstream systems reject the request.
type failingMapper struct{ msg string }

func (m failingMapper) Map(context.Context, instrument.InstrumentDetail, rfq.RFQInput) (instrument.Product, error) {
	return instrument.Product{}, errors.New(m.msg)
}

type failingPricer struct{ msg string }

func (p failingPricer) Price(context.Context, instrument.InstrumentDetail, rfq.RFQInput) (rfq.PricingResult, error) {
	return rfq.PricingResult{}, errors.New(p.msg)
}

func (s *WorkflowTestSuite) TestMappingFailureTerminatesFailed() {
	env := s.NewTestWorkflowEnvironment()

	a := s.newActivities()
	mappers := registry.NewProductMappingRegistry()
	mappers.Register(registry.KindQualifier(instrument.KindEquity), failingMapper{msg: "Unsupported product type"})
	a.Mappers = mappers
	env.RegisterActivity(a)

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeFailed, result.Outcome)
	require.Contains(s.T(), result.RejectionReasons[0], "Unsupported product type")
}

func (s *WorkflowTestSuite) TestPricingFailureTerminatesFailed() {
	env := s.NewTestWorkflowEnvironment()

	a := s.newActivities()
	pricers := registry.NewPricingRegistry()
	pricers.Register(registry.KindQualifier(instrument.KindEquity), failingPricer{msg: "Calibration diverged"})
	a.Pricers = pricers
	env.RegisterActivity(a)

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeFailed, result.Outcome)
	require.Contains(s.T(), result.RejectionReasons[0], "Pricing failed")
	require.Contains(s.T(), result.RejectionReasons[0], "Calibration diverged")
}

func (s *WorkflowTestSuite) TestBookingFailureAfterAcceptTerminatesFailed() {
	env := s.NewTestWorkflowEnvironment()

	a := s.newActivities()
	a.Ledger = nil // booking has nowhere to persist and must fail
	env.RegisterActivity(a)

	env.RegisterDelayedCallback(func() {
		encoded, err := env.QueryWorkflow(GetCurrentTermSheetQueryName)
		s.Require().NoError(err)
		var sheet *rfq.TermSheet
		s.Require().NoError(encoded.Get(&sheet))
		s.Require().NotNil(sheet)
		env.SignalWorkflow(ClientRespondsSignalName, s.clientResponse(rfq.ActionAccept, sheet.DocumentHash))
	}, time.Millisecond)

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeFailed, result.Outcome)
	require.Nil(s.T(), result.TradeID)
	require.Contains(s.T(), result.RejectionReasons[0], "Booking failed")
}

func (s *WorkflowTestSuite) TestClientRejectionOutcome() {
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(s.newActivities())

	env.RegisterDelayedCallback(func() {
		response := s.clientResponse(rfq.ActionReject, "")
		response.Message = "spread too wide"
		env.SignalWorkflow(ClientRespondsSignalName, response)
	}, time.Millisecond)

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeRejectedByClient, result.Outcome)
	require.Equal(s.T(), []string{"spread too wide"}, result.RejectionReasons)
}

func (s *WorkflowTestSuite) TestRefreshThenAcceptExecutes() {
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(s.newActivities())

	refreshed := false
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ClientRespondsSignalName, s.clientResponse(rfq.ActionRefresh, ""))
	}, time.Millisecond)

	env.RegisterDelayedCallback(func() {
		encoded, err := env.QueryWorkflow(GetCurrentTermSheetQueryName)
		s.Require().NoError(err)
		var sheet *rfq.TermSheet
		s.Require().NoError(encoded.Get(&sheet))
		s.Require().NotNil(sheet)

		refreshed = true
		env.SignalWorkflow(ClientRespondsSignalName, s.clientResponse(rfq.ActionAccept, sheet.DocumentHash))
	}, 2*time.Millisecond)

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), refreshed)
	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeExecuted, result.Outcome)
	require.Equal(s.T(), 1, result.RefreshCount)
}

func (s *WorkflowTestSuite) TestRefreshBeyondLimitExpires() {
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(s.newActivities())

	for i := 0; i < MaxRefreshes+1; i++ {
		env.RegisterDelayedCallback(func() {
			env.SignalWorkflow(ClientRespondsSignalName, s.clientResponse(rfq.ActionRefresh, ""))
		}, time.Duration(i+1)*time.Millisecond)
	}

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeExpired, result.Outcome)
	require.Contains(s.T(), result.RejectionReasons[0], "Exceeded 5 price refreshes")
	require.NotEmpty(s.T(), result.PricingAttestationID)
}

func (s *WorkflowTestSuite) TestClientTimeoutExpires() {
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(s.newActivities())

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeExpired, result.Outcome)
	require.Nil(s.T(), result.TradeID)
	require.NotEmpty(s.T(), result.PricingAttestationID)
}

func (s *WorkflowTestSuite) TestStaleAcceptanceIsRejectedAsFailed() {
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(s.newActivities())

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ClientRespondsSignalName, s.clientResponse(rfq.ActionAccept, "stale-hash-that-will-never-match"))
	}, time.Millisecond)

	env.ExecuteWorkflow(RFQWorkflow, sampleInput(s))

	require.True(s.T(), env.IsWorkflowCompleted())
	require.NoError(s.T(), env.GetWorkflowError())

	var result rfq.RFQResult
	require.NoError(s.T(), env.GetWorkflowResult(&result))
	require.Equal(s.T(), rfq.OutcomeFailed, result.Outcome)
	require.Len(s.T(), result.RejectionReasons, 1)
	require.Contains(s.T(), result.RejectionReasons[0], "stale")
}
