// Package activities implements the six Temporal activities the
// structured-product RFQ workflow invokes: mapping, pre-trade checks,
// pricing, indicative delivery, booking, and confirmation. Each method
// on Activities is registered with the worker under its method name.
package activities

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/encoding/json"

	"github.com/aristath/attestor-rfq/internal/activities/archive"
	"github.com/aristath/attestor-rfq/internal/activities/delivery"
	"github.com/aristath/attestor-rfq/internal/activities/ledger"
	"github.com/aristath/attestor-rfq/internal/identifiers"
	"github.com/aristath/attestor-rfq/internal/registry"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

// Activities bundles the registries and external collaborators every
// activity method needs. A nil Archiver or Delivery client is valid:
// indicative/confirmation delivery then becomes a logged no-op, so the
// happy path stays runnable without live AWS or gateway credentials.
type Activities struct {
	Mappers  *registry.ProductMappingRegistry
	Checks   *registry.PreTradeCheckRegistry
	Pricers  *registry.PricingRegistry
	Ledger   *ledger.Ledger
	Archiver *archive.Archiver
	Delivery *delivery.Client
	Log      zerolog.Logger
}

// MapToCDMProduct resolves the RFQ's instrument detail to its CDM
// product representation via the first registered mapper that
// qualifies for its Kind.
func (a *Activities) MapToCDMProduct(ctx context.Context, in rfq.MappingInput) (rfq.MappingOutput, error) {
	mapper, ok := a.Mappers.Resolve(in.RFQ.Detail)
	if !ok {
		return rfq.NewMappingFailure(fmt.Sprintf("no product mapper registered for %s", in.RFQ.Detail.Kind())), nil
	}
	product, err := mapper.Map(ctx, in.RFQ.Detail, in.RFQ)
	if err != nil {
		a.Log.Warn().Err(err).Str("rfq_id", in.RFQ.RFQID.String()).Msg("product mapping failed")
		return rfq.NewMappingFailure(err.Error()), nil
	}
	return rfq.NewMappingSuccess(product), nil
}

// RunPreTradeChecks runs every registered pre-trade check and
// aggregates all rejection reasons in one pass.
func (a *Activities) RunPreTradeChecks(ctx context.Context, in rfq.PreTradeInput) (rfq.PreTradeOutcome, error) {
	outcome, err := a.Checks.RunAll(ctx, in.RFQ.Detail, in.RFQ)
	if err != nil {
		return rfq.PreTradeOutcome{}, fmt.Errorf("activities: pre-trade checks: %w", err)
	}
	return outcome, nil
}

// PriceProduct resolves and invokes the first registered pricer that
// qualifies for the product's instrument detail.
func (a *Activities) PriceProduct(ctx context.Context, in rfq.PricingInput) (rfq.PricingOutput, error) {
	pricer, ok := a.Pricers.Resolve(in.RFQ.Detail)
	if !ok {
		return rfq.NewPricingFailure(fmt.Sprintf("no pricer registered for %s", in.RFQ.Detail.Kind())), nil
	}
	result, err := pricer.Price(ctx, in.RFQ.Detail, in.RFQ)
	if err != nil {
		a.Log.Warn().Err(err).Str("rfq_id", in.RFQ.RFQID.String()).Msg("pricing failed")
		return rfq.NewPricingFailure(err.Error()), nil
	}
	return rfq.NewPricingSuccess(result), nil
}

// pricingHashFields is the canonical subset of a pricing result hashed
// into a term sheet's document hash: rfq_id, price, currency, model,
// and market data snapshot, sorted lexicographically by field name so
// the JSON serialization is byte-stable regardless of struct order.
type pricingHashFields struct {
	Currency string `json:"currency"`
	Model    string `json:"model"`
	Price    string `json:"price"`
	RFQID    string `json:"rfq_id"`
	Snapshot string `json:"snapshot"`
}

// documentHash computes the SHA-256 hex digest of the canonical JSON
// encoding of a term sheet's pricing fields. Two term sheets with
// identical economic content always hash identically, and the hash
// changes whenever the economics do; the workflow relies on this to
// detect a client accepting a term sheet that a refresh has since
// superseded.
func documentHash(rfqID string, pricing rfq.PricingResult) (string, error) {
	fields := pricingHashFields{
		Currency: pricing.IndicativePrice.Currency().String(),
		Model:    pricing.ModelName.String(),
		Price:    pricing.IndicativePrice.Amount().String(),
		RFQID:    rfqID,
		Snapshot: pricing.MarketDataSnapshotID.String(),
	}
	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("activities: canonicalize term sheet: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// GenerateAndSendIndicative builds a TermSheet from a pricing result,
// computes its content-addressed document hash, archives it, and
// delivers it to the client gateway.
func (a *Activities) GenerateAndSendIndicative(ctx context.Context, in rfq.IndicativeInput) (rfq.TermSheet, error) {
	hash, err := documentHash(in.RFQ.RFQID.String(), in.Pricing)
	if err != nil {
		return rfq.TermSheet{}, err
	}

	sheet, err := rfq.NewTermSheet(rfq.TermSheet{
		RFQID:        in.RFQ.RFQID,
		Pricing:      in.Pricing,
		DocumentHash: hash,
		GeneratedAt:  in.Now,
		ValidUntil:   in.Now.Add(in.ValidFor.Duration()),
	})
	if err != nil {
		return rfq.TermSheet{}, fmt.Errorf("activities: build term sheet: %w", err)
	}

	document, err := json.Marshal(sheet)
	if err != nil {
		return rfq.TermSheet{}, fmt.Errorf("activities: marshal term sheet: %w", err)
	}

	if a.Archiver != nil {
		if _, err := a.Archiver.Put(ctx, hash, document); err != nil {
			return rfq.TermSheet{}, fmt.Errorf("activities: archive term sheet: %w", err)
		}
	}

	if a.Delivery != nil {
		if err := a.Delivery.SendIndicative(ctx, hash, document); err != nil {
			return rfq.TermSheet{}, fmt.Errorf("activities: deliver term sheet: %w", err)
		}
	} else {
		a.Log.Info().Str("rfq_id", in.RFQ.RFQID.String()).Str("document_hash", hash).
			Msg("no delivery client configured; term sheet generated but not sent")
	}

	return sheet, nil
}

// BookTrade persists a newly booked trade to the ledger, idempotent by
// RFQ ID: if this RFQ was already booked by a previous attempt, the
// existing record is returned rather than booking a duplicate trade.
func (a *Activities) BookTrade(ctx context.Context, in rfq.BookingInput) (rfq.BookingOutput, error) {
	if a.Ledger == nil {
		return rfq.NewBookingFailure("activities: no ledger configured"), nil
	}

	rfqID := in.RFQ.RFQID.String()
	if existing, found, err := a.Ledger.Lookup(ctx, rfqID); err != nil {
		return rfq.BookingOutput{}, fmt.Errorf("activities: ledger lookup: %w", err)
	} else if found {
		tradeID, err := identifiers.ParseNonEmptyStr(existing.TradeID)
		if err != nil {
			return rfq.BookingOutput{}, fmt.Errorf("activities: stored trade_id invalid: %w", err)
		}
		uti, err := identifiers.ParseUTI(existing.UTI)
		if err != nil {
			return rfq.BookingOutput{}, fmt.Errorf("activities: stored uti invalid: %w", err)
		}
		bookedAt, err := identifiers.NewUtcDatetime(existing.BookedAt)
		if err != nil {
			return rfq.BookingOutput{}, fmt.Errorf("activities: stored booked_at invalid: %w", err)
		}
		return rfq.NewBookingSuccess(rfq.BookingResult{
			TradeID:  tradeID,
			UTI:      uti,
			BookedAt: bookedAt,
		}), nil
	}

	tradeIDRaw := fmt.Sprintf("TRADE-%s", rfqID)
	tradeID, err := identifiers.ParseNonEmptyStr(tradeIDRaw)
	if err != nil {
		return rfq.BookingOutput{}, fmt.Errorf("activities: generated trade_id invalid: %w", err)
	}

	utiRaw := fmt.Sprintf("%-20s%s", in.RFQ.ClientLEI.String(), uuid.NewString())
	if len(utiRaw) > 52 {
		utiRaw = utiRaw[:52]
	}
	uti, err := identifiers.ParseUTI(utiRaw)
	if err != nil {
		return rfq.BookingOutput{}, fmt.Errorf("activities: generated uti invalid: %w", err)
	}

	bookedAt := identifiers.UtcNow()
	if err := a.Ledger.Insert(ctx, ledger.Record{
		RFQID:         rfqID,
		TradeID:       tradeID.String(),
		UTI:           uti.String(),
		PriceAmount:   in.AcceptedPrice.Amount().String(),
		PriceCurrency: in.AcceptedPrice.Currency().String(),
		BookedAt:      bookedAt.Value(),
	}); err != nil {
		return rfq.BookingOutput{}, fmt.Errorf("activities: ledger insert: %w", err)
	}

	return rfq.NewBookingSuccess(rfq.BookingResult{
		TradeID:  tradeID,
		UTI:      uti,
		BookedAt: bookedAt,
	}), nil
}

// SendConfirmation delivers a booked trade's confirmation to the
// client gateway, idempotent by trade ID.
func (a *Activities) SendConfirmation(ctx context.Context, in rfq.ConfirmationInput) error {
	if a.Delivery == nil {
		a.Log.Info().Str("trade_id", in.Booking.TradeID.String()).
			Msg("no delivery client configured; confirmation not sent")
		return nil
	}
	confirmation := struct {
		RFQID        string `json:"rfq_id"`
		TradeID      string `json:"trade_id"`
		UTI          string `json:"uti"`
		DocumentHash string `json:"document_hash"`
	}{
		RFQID:        in.RFQ.RFQID.String(),
		TradeID:      in.Booking.TradeID.String(),
		UTI:          in.Booking.UTI.String(),
		DocumentHash: in.TermSheet.DocumentHash,
	}
	if err := a.Delivery.SendConfirmation(ctx, in.Booking.TradeID.String(), confirmation); err != nil {
		return fmt.Errorf("activities: send confirmation: %w", err)
	}
	return nil
}
