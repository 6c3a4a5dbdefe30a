// Package registry holds the three open-set, pluggable lookup tables
// the activities consult: pre-trade checks (run all, aggregate every
// failure), pricers (first qualifying pricer wins), and product
// mappers (first qualifying mapper wins). Each registry is ordered by
// registration order, never by priority field, so wiring order is the
// only thing that determines resolution when more than one entry
// qualifies.
package registry

import (
	"context"
	"fmt"

	"github.com/aristath/attestor-rfq/internal/instrument"
	"github.com/aristath/attestor-rfq/internal/rfq"
)

// PreTradeCheck evaluates one compliance or risk rule against a
// proposed instrument and notional. A check that finds no problem
// returns a PreTradeCheckResult with no rejection reasons.
type PreTradeCheck interface {
	Name() string
	Run(ctx context.Context, detail instrument.InstrumentDetail, notional rfq.RFQInput) (rfq.PreTradeCheckResult, error)
}

// PreTradeCheckRegistry runs every registered check in registration
// order and aggregates all rejection reasons rather than stopping at
// the first failure.
type PreTradeCheckRegistry struct {
	checks []PreTradeCheck
}

// NewPreTradeCheckRegistry returns an empty registry.
func NewPreTradeCheckRegistry() *PreTradeCheckRegistry {
	return &PreTradeCheckRegistry{}
}

// Register appends a check to the end of the registry's run order.
func (r *PreTradeCheckRegistry) Register(c PreTradeCheck) {
	r.checks = append(r.checks, c)
}

// Checks returns the registered checks in registration order.
func (r *PreTradeCheckRegistry) Checks() []PreTradeCheck {
	out := make([]PreTradeCheck, len(r.checks))
	copy(out, r.checks)
	return out
}

// RunAll runs every registered check and aggregates the results. A
// check that itself errors (rather than returning rejection reasons)
// aborts the whole run: that is an infrastructure failure, not a
// compliance rejection.
func (r *PreTradeCheckRegistry) RunAll(ctx context.Context, detail instrument.InstrumentDetail, in rfq.RFQInput) (rfq.PreTradeOutcome, error) {
	results := make([]rfq.PreTradeCheckResult, 0, len(r.checks))
	for _, c := range r.checks {
		res, err := c.Run(ctx, detail, in)
		if err != nil {
			return rfq.PreTradeOutcome{}, fmt.Errorf("pre-trade check %q: %w", c.Name(), err)
		}
		results = append(results, res)
	}
	return rfq.PreTradeOutcome{Results: results}, nil
}

// Qualifier reports whether a pricer can price the given instrument detail.
type Qualifier func(detail instrument.InstrumentDetail) bool

// Pricer computes an indicative price for a qualifying instrument detail.
type Pricer interface {
	Price(ctx context.Context, detail instrument.InstrumentDetail, notional rfq.RFQInput) (rfq.PricingResult, error)
}

type pricingEntry struct {
	qualifier Qualifier
	pricer    Pricer
}

// PricingRegistry resolves the first registered (qualifier, pricer)
// pair whose qualifier accepts the instrument detail.
type PricingRegistry struct {
	entries []pricingEntry
}

// NewPricingRegistry returns an empty registry.
func NewPricingRegistry() *PricingRegistry {
	return &PricingRegistry{}
}

// Register appends a (qualifier, pricer) pair to the end of the
// resolution order.
func (r *PricingRegistry) Register(q Qualifier, p Pricer) {
	r.entries = append(r.entries, pricingEntry{qualifier: q, pricer: p})
}

// Resolve returns the first pricer whose qualifier accepts detail.
func (r *PricingRegistry) Resolve(detail instrument.InstrumentDetail) (Pricer, bool) {
	for _, e := range r.entries {
		if e.qualifier(detail) {
			return e.pricer, true
		}
	}
	return nil, false
}

// ProductMapper maps a raw RFQ instrument detail into its CDM product
// representation. Supplements the documented gap in the reference
// implementation, where only a single hardcoded equity mapping existed
// and every other asset class silently produced a payout-less product.
type ProductMapper interface {
	Map(ctx context.Context, detail instrument.InstrumentDetail, in rfq.RFQInput) (instrument.Product, error)
}

type mappingEntry struct {
	qualifier Qualifier
	mapper    ProductMapper
}

// ProductMappingRegistry resolves the first registered (qualifier,
// mapper) pair whose qualifier accepts the instrument detail.
type ProductMappingRegistry struct {
	entries []mappingEntry
}

// NewProductMappingRegistry returns an empty registry.
func NewProductMappingRegistry() *ProductMappingRegistry {
	return &ProductMappingRegistry{}
}

// Register appends a (qualifier, mapper) pair to the end of the
// resolution order.
func (r *ProductMappingRegistry) Register(q Qualifier, m ProductMapper) {
	r.entries = append(r.entries, mappingEntry{qualifier: q, mapper: m})
}

// Resolve returns the first mapper whose qualifier accepts detail.
func (r *ProductMappingRegistry) Resolve(detail instrument.InstrumentDetail) (ProductMapper, bool) {
	for _, e := range r.entries {
		if e.qualifier(detail) {
			return e.mapper, true
		}
	}
	return nil, false
}

// KindQualifier is a convenience Qualifier constructor matching a
// single instrument Kind, the common case for both registries.
func KindQualifier(k instrument.Kind) Qualifier {
	return func(detail instrument.InstrumentDetail) bool { return detail.Kind() == k }
}
