// Command server runs the HTTP admin API in front of the Temporal
// client: start RFQ negotiations, signal client responses, query
// status and pricing, and stream status over a websocket.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/aristath/attestor-rfq/internal/codec"
	"github.com/aristath/attestor-rfq/internal/config"
	"github.com/aristath/attestor-rfq/internal/server"
	"github.com/aristath/attestor-rfq/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	temporalClient, err := client.Dial(client.Options{
		HostPort:      cfg.TemporalHostPort,
		Namespace:     cfg.TemporalNamespace,
		DataConverter: codec.NewDataConverter(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer temporalClient.Close()

	srv := server.New(temporalClient, cfg.TaskQueue, log)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("admin API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("admin API stopped with error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down admin API")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
