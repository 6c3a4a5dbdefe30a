// Command worker runs the Temporal worker process that executes the
// structured-product RFQ workflow and its activities.
//
// Startup sequence:
//  1. load configuration from the environment (and .env, if present)
//  2. build the structured logger
//  3. connect to Temporal and open the booking ledger
//  4. optionally wire S3 archival (client-gateway delivery is not wired)
//  5. register the workflow and activities on the task queue
//  6. run until interrupted, then close the ledger and client cleanly
package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aristath/attestor-rfq/internal/config"
	"github.com/aristath/attestor-rfq/internal/scheduler"
	"github.com/aristath/attestor-rfq/internal/worker"
	"github.com/aristath/attestor-rfq/pkg/logger"
)

const staleRFQThreshold = 12 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()

	boot, err := worker.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap worker")
	}
	defer boot.Close()

	sweepJob := scheduler.NewStaleRFQSweepJob(boot.Client, staleRFQThreshold, log)
	cronScheduler := cron.New()
	if err := scheduler.Register(cronScheduler, sweepJob, "@every 15m"); err != nil {
		log.Fatal().Err(err).Msg("failed to register stale RFQ sweep job")
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	log.Info().
		Str("task_queue", cfg.TaskQueue).
		Str("temporal_host_port", cfg.TemporalHostPort).
		Msg("structured-rfq worker starting")

	if err := boot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker stopped with error")
		os.Exit(1)
	}
}
