// Package workflow implements the structured-product RFQ negotiation
// as a Temporal workflow: map the request to a CDM product, run
// pre-trade checks, then loop pricing and indicative delivery against
// a bounded number of client-requested refreshes until the client
// accepts, rejects, or the negotiation times out.
package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/aristath/attestor-rfq/internal/activities"
	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

// activityRef gives workflow code typed method references for
// workflow.ExecuteActivity without holding a live, worker-side
// Activities value. The SDK dispatches by registered activity name;
// it never invokes this nil receiver directly.
var activityRef *activities.Activities

// Status is the coarse-grained negotiation state exposed via the
// get_status query.
type Status string

const (
	StatusReceived       Status = "RECEIVED"
	StatusMapping        Status = "MAPPING"
	StatusPreTradeChecks Status = "PRE_TRADE_CHECKS"
	StatusPricing        Status = "PRICING"
	StatusQuoting        Status = "QUOTING"
	StatusAwaitingClient Status = "AWAITING_CLIENT"
	StatusBooking        Status = "BOOKING"
	StatusConfirming     Status = "CONFIRMING"
	StatusCompleted      Status = "COMPLETED"
)

// ClientRespondsSignalName is the signal channel the client gateway
// sends accept/reject/refresh responses on.
const ClientRespondsSignalName = "client_responds"

// GetStatusQueryName is the query name returning the current Status.
const GetStatusQueryName = "get_status"

// GetCurrentPricingQueryName is the query name returning the most
// recent PricingResult, if any.
const GetCurrentPricingQueryName = "get_current_pricing"

// GetCurrentTermSheetQueryName is the query name returning the most
// recently delivered TermSheet, if any. A client needs this to learn
// the document hash it must echo back in an ACCEPT response.
const GetCurrentTermSheetQueryName = "get_current_term_sheet"

// TermSheetValidity is how long a generated term sheet remains
// acceptable before the client must request a refresh.
const TermSheetValidity = 1 * time.Hour

// RFQWorkflow is registered with the worker under the name
// "StructuredProductRFQ". It runs one RFQ negotiation from request to
// a single terminal RFQResult.
func RFQWorkflow(ctx workflow.Context, input rfq.RFQInput) (rfq.RFQResult, error) {
	logger := workflow.GetLogger(ctx)

	status := StatusReceived
	var currentPricing *rfq.PricingResult
	var currentTermSheet *rfq.TermSheet

	if err := workflow.SetQueryHandler(ctx, GetStatusQueryName, func() (Status, error) {
		return status, nil
	}); err != nil {
		return rfq.RFQResult{}, fmt.Errorf("workflow: register %s query: %w", GetStatusQueryName, err)
	}
	if err := workflow.SetQueryHandler(ctx, GetCurrentPricingQueryName, func() (*rfq.PricingResult, error) {
		return currentPricing, nil
	}); err != nil {
		return rfq.RFQResult{}, fmt.Errorf("workflow: register %s query: %w", GetCurrentPricingQueryName, err)
	}
	if err := workflow.SetQueryHandler(ctx, GetCurrentTermSheetQueryName, func() (*rfq.TermSheet, error) {
		return currentTermSheet, nil
	}); err != nil {
		return rfq.RFQResult{}, fmt.Errorf("workflow: register %s query: %w", GetCurrentTermSheetQueryName, err)
	}

	responseCh := workflow.GetSignalChannel(ctx, ClientRespondsSignalName)

	fail := func(reason string) (rfq.RFQResult, error) {
		return rfq.NewRFQResult(rfq.RFQResult{RFQID: input.RFQID, Outcome: rfq.OutcomeFailed, RejectionReasons: []string{reason}})
	}

	// Step 1: map to CDM product. One attempt only: mapping is pure
	// and deterministic, so a failure here will not be fixed by retrying.
	status = StatusMapping
	mappingCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         mappingRetry,
	})
	var mappingOut rfq.MappingOutput
	if err := workflow.ExecuteActivity(mappingCtx, activityRef.MapToCDMProduct, rfq.MappingInput{RFQ: input}).Get(mappingCtx, &mappingOut); err != nil {
		return fail(fmt.Sprintf("product mapping activity failed: %v", err))
	}
	product, ok := mappingOut.Product()
	if !ok {
		msg, _ := mappingOut.Err()
		return fail(fmt.Sprintf("product mapping rejected: %s", msg))
	}

	// Step 2: pre-trade checks. Every registered check runs; a single
	// failing check rejects the whole RFQ.
	status = StatusPreTradeChecks
	preTradeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy:         preTradeRetry,
	})
	var preTradeOutcome rfq.PreTradeOutcome
	if err := workflow.ExecuteActivity(preTradeCtx, activityRef.RunPreTradeChecks, rfq.PreTradeInput{RFQ: input, Product: product}).Get(preTradeCtx, &preTradeOutcome); err != nil {
		return fail(fmt.Sprintf("pre-trade checks activity failed: %v", err))
	}
	if !preTradeOutcome.Passed() {
		return rfq.NewRFQResult(rfq.RFQResult{
			RFQID:            input.RFQID,
			Outcome:          rfq.OutcomeRejectedPreTrade,
			RejectionReasons: preTradeOutcome.RejectionReasons(),
		})
	}

	refreshCount := 0
	for {
		// Step 3a: price the product.
		status = StatusPricing
		pricingCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 5 * time.Minute,
			HeartbeatTimeout:    30 * time.Second,
			RetryPolicy:         pricingRetry,
		})
		var pricingOut rfq.PricingOutput
		if err := workflow.ExecuteActivity(pricingCtx, activityRef.PriceProduct, rfq.PricingInput{RFQ: input, Product: product}).Get(pricingCtx, &pricingOut); err != nil {
			return fail(fmt.Sprintf("pricing activity failed: %v", err))
		}
		pricingResult, ok := pricingOut.Result()
		if !ok {
			msg, _ := pricingOut.Err()
			return fail(fmt.Sprintf("Pricing failed: %s", msg))
		}
		currentPricing = &pricingResult

		// Step 3b: build and deliver the indicative term sheet.
		status = StatusQuoting
		now, err := identifiers.NewUtcDatetime(workflow.Now(ctx))
		if err != nil {
			return fail(fmt.Sprintf("invalid workflow clock reading: %v", err))
		}
		indicativeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 60 * time.Second,
			RetryPolicy:         deliveryRetry,
		})
		var termSheet rfq.TermSheet
		if err := workflow.ExecuteActivity(indicativeCtx, activityRef.GenerateAndSendIndicative, rfq.IndicativeInput{
			RFQ:      input,
			Pricing:  pricingResult,
			Now:      now,
			ValidFor: rfq.Validity(TermSheetValidity),
		}).Get(indicativeCtx, &termSheet); err != nil {
			return fail(fmt.Sprintf("indicative delivery activity failed: %v", err))
		}
		currentTermSheet = &termSheet

		// Step 3c: wait for the client's response, or expire.
		status = StatusAwaitingClient
		var response rfq.ClientResponse
		var gotResponse bool
		selector := workflow.NewSelector(ctx)
		timer := workflow.NewTimer(ctx, ClientTimeout)
		selector.AddReceive(responseCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, &response)
			gotResponse = true
		})
		selector.AddFuture(timer, func(workflow.Future) {})
		selector.Select(ctx)

		if !gotResponse {
			return rfq.NewRFQResult(rfq.RFQResult{
				RFQID:                input.RFQID,
				Outcome:              rfq.OutcomeExpired,
				RejectionReasons:     []string{"client did not respond within the timeout window"},
				RefreshCount:         refreshCount,
				PricingAttestationID: pricingResult.PricingAttestationID.String(),
			})
		}

		// Stale-acceptance guard: the response must reference the term
		// sheet currently outstanding. A response quoting an older hash
		// means the client is acting on a superseded price.
		if response.Action == rfq.ActionAccept && response.TermSheetHash != termSheet.DocumentHash {
			logger.Warn("client accepted a stale term sheet", "expected", termSheet.DocumentHash, "got", response.TermSheetHash)
			return fail("Client accepted stale term sheet")
		}

		switch response.Action {
		case rfq.ActionReject:
			reason := response.Message
			if reason == "" {
				reason = "Client rejected"
			}
			return rfq.NewRFQResult(rfq.RFQResult{
				RFQID:                input.RFQID,
				Outcome:              rfq.OutcomeRejectedByClient,
				RejectionReasons:     []string{reason},
				RefreshCount:         refreshCount,
				PricingAttestationID: pricingResult.PricingAttestationID.String(),
			})

		case rfq.ActionRefresh:
			refreshCount++
			if refreshCount > MaxRefreshes {
				return rfq.NewRFQResult(rfq.RFQResult{
					RFQID:                input.RFQID,
					Outcome:              rfq.OutcomeExpired,
					RejectionReasons:     []string{fmt.Sprintf("Exceeded %d price refreshes", MaxRefreshes)},
					RefreshCount:         refreshCount,
					PricingAttestationID: pricingResult.PricingAttestationID.String(),
				})
			}
			continue

		case rfq.ActionAccept:
			// Step 4: book the trade.
			status = StatusBooking
			bookingCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
				StartToCloseTimeout: 60 * time.Second,
				RetryPolicy:         bookingRetry,
			})
			idempotencyKey, err := identifiers.ParseIdempotencyKey(input.RFQID.String())
			if err != nil {
				return fail(fmt.Sprintf("invalid idempotency key: %v", err))
			}
			var bookingOut rfq.BookingOutput
			if err := workflow.ExecuteActivity(bookingCtx, activityRef.BookTrade, rfq.BookingInput{
				RFQ:            input,
				Product:        product,
				Pricing:        pricingResult,
				AcceptedPrice:  pricingResult.IndicativePrice,
				IdempotencyKey: idempotencyKey.String(),
			}).Get(bookingCtx, &bookingOut); err != nil {
				return fail(fmt.Sprintf("booking activity failed: %v", err))
			}
			bookingResult, ok := bookingOut.Result()
			if !ok {
				msg, _ := bookingOut.Err()
				return rfq.NewRFQResult(rfq.RFQResult{
					RFQID:                input.RFQID,
					Outcome:              rfq.OutcomeFailed,
					RejectionReasons:     []string{fmt.Sprintf("Booking failed: %s", msg)},
					RefreshCount:         refreshCount,
					PricingAttestationID: pricingResult.PricingAttestationID.String(),
				})
			}

			// Step 5: confirm. A confirmation delivery failure does not
			// unwind the booking; the trade is already executed.
			status = StatusConfirming
			confirmCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
				StartToCloseTimeout: 60 * time.Second,
				RetryPolicy:         deliveryRetry,
			})
			if err := workflow.ExecuteActivity(confirmCtx, activityRef.SendConfirmation, rfq.ConfirmationInput{
				RFQ:       input,
				Booking:   bookingResult,
				TermSheet: termSheet,
			}).Get(confirmCtx, nil); err != nil {
				logger.Warn("confirmation delivery failed after successful booking", "error", err)
			}

			status = StatusCompleted
			tradeID := bookingResult.TradeID
			return rfq.NewRFQResult(rfq.RFQResult{
				RFQID:                input.RFQID,
				Outcome:              rfq.OutcomeExecuted,
				TradeID:              &tradeID,
				RefreshCount:         refreshCount,
				PricingAttestationID: pricingResult.PricingAttestationID.String(),
			})

		default:
			return fail(fmt.Sprintf("Unexpected client action: %s", response.Action))
		}
	}
}
