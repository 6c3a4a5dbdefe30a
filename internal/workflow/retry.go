package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
)

// Retry policies, one per activity, mirroring the reference
// implementation's hand-tuned tolerances: mapping is cheap and
// deterministic so it gets exactly one attempt, pricing backs off the
// longest because a pricer may be waiting on a market data refresh,
// and a handful of error types are explicitly marked non-retryable
// because retrying them can never succeed.

var mappingRetry = &temporal.RetryPolicy{
	MaximumAttempts: 1,
}

var preTradeRetry = &temporal.RetryPolicy{
	InitialInterval:    2 * time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    30 * time.Second,
	MaximumAttempts:    3,
}

var pricingRetry = &temporal.RetryPolicy{
	InitialInterval:        5 * time.Second,
	BackoffCoefficient:     2.0,
	MaximumInterval:        60 * time.Second,
	MaximumAttempts:        2,
	NonRetryableErrorTypes: []string{"PricingError", "CalibrationError"},
}

var bookingRetry = &temporal.RetryPolicy{
	InitialInterval:        2 * time.Second,
	BackoffCoefficient:     2.0,
	MaximumInterval:        10 * time.Second,
	MaximumAttempts:        3,
	NonRetryableErrorTypes: []string{"ValidationError", "IllegalTransitionError"},
}

var deliveryRetry = &temporal.RetryPolicy{
	InitialInterval:    2 * time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    60 * time.Second,
	MaximumAttempts:    5,
}

// MaxRefreshes bounds how many times a client may request a repriced
// term sheet before the negotiation is forced to expire.
const MaxRefreshes = 5

// ClientTimeout bounds how long the workflow waits for a client
// response to an outstanding term sheet before the negotiation expires.
const ClientTimeout = 24 * time.Hour
