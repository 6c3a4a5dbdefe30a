// Package worker assembles and runs the Temporal worker process: a
// client connection using the shared tagged data converter, the
// registries and collaborators every activity needs, and the
// workflow/activity registration that makes this process able to
// pick up "structured-rfq" task queue work.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/aristath/attestor-rfq/internal/activities"
	"github.com/aristath/attestor-rfq/internal/activities/archive"
	"github.com/aristath/attestor-rfq/internal/activities/delivery"
	"github.com/aristath/attestor-rfq/internal/activities/ledger"
	"github.com/aristath/attestor-rfq/internal/codec"
	"github.com/aristath/attestor-rfq/internal/config"
	"github.com/aristath/attestor-rfq/internal/registry"
	wf "github.com/aristath/attestor-rfq/internal/workflow"
)

// Bootstrap holds every long-lived resource the worker process owns,
// so Run and graceful shutdown share one place that closes them.
type Bootstrap struct {
	Client     client.Client
	Worker     sdkworker.Worker
	Ledger     *ledger.Ledger
	activities *activities.Activities
}

// New builds a Bootstrap from cfg: connects to Temporal, opens the
// booking ledger, optionally wires an S3 archiver, registers the default
// per-asset-class mappers/checks/pricers, and registers the workflow and
// activities on cfg.TaskQueue. The gateway delivery client is left nil;
// only WithGatewayDelivery sets it.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Bootstrap, error) {
	c, err := client.Dial(client.Options{
		HostPort:      cfg.TemporalHostPort,
		Namespace:     cfg.TemporalNamespace,
		DataConverter: codec.NewDataConverter(),
	})
	if err != nil {
		return nil, fmt.Errorf("worker: dial temporal at %s: %w", cfg.TemporalHostPort, err)
	}

	l, err := ledger.Open(cfg.SQLiteDataDir + "/ledger.db")
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("worker: open ledger: %w", err)
	}

	var archiver *archive.Archiver
	if cfg.S3Bucket != "" {
		archiver, err = archive.New(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			l.Close()
			c.Close()
			return nil, fmt.Errorf("worker: init archiver: %w", err)
		}
	} else {
		log.Warn().Msg("RFQ_ARCHIVE_BUCKET not set; term sheets will not be archived to S3")
	}

	mappers := registry.NewProductMappingRegistry()
	checks := registry.NewPreTradeCheckRegistry()
	pricers := registry.NewPricingRegistry()
	activities.RegisterDefaults(mappers, checks, pricers)

	a := &activities.Activities{
		Mappers:  mappers,
		Checks:   checks,
		Pricers:  pricers,
		Ledger:   l,
		Archiver: archiver,
		Delivery: nil, // wired by callers that have a client gateway base URL
		Log:      log.With().Str("component", "activities").Logger(),
	}

	w := sdkworker.New(c, cfg.TaskQueue, sdkworker.Options{})
	w.RegisterWorkflowWithOptions(wf.RFQWorkflow, workflow.RegisterOptions{Name: "StructuredProductRFQ"})
	w.RegisterActivity(a)

	return &Bootstrap{Client: c, Worker: w, Ledger: l, activities: a}, nil
}

// WithGatewayDelivery points the confirmation/indicative delivery
// client at a live client-gateway base URL. Call before Run; the
// activities instance was already registered with the worker by New,
// so mutating its Delivery field here is visible to every subsequent
// activity invocation.
func (b *Bootstrap) WithGatewayDelivery(baseURL string) {
	b.activities.Delivery = delivery.New(baseURL)
}

// Run blocks serving the task queue until the process receives an
// interrupt or termination signal (sdkworker.InterruptCh); ctx is not
// consulted.
func (b *Bootstrap) Run(ctx context.Context) error {
	if err := b.Worker.Run(sdkworker.InterruptCh()); err != nil {
		return fmt.Errorf("worker: run: %w", err)
	}
	return nil
}

// Close releases the ledger and the Temporal client connection.
func (b *Bootstrap) Close() {
	if b.Ledger != nil {
		b.Ledger.Close()
	}
	b.Client.Close()
}
