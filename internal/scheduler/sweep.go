// Package scheduler runs periodic, observation-only maintenance jobs
// against the Temporal namespace this worker serves. Nothing here
// mutates workflow state; the sweep only surfaces negotiations that
// have been open unusually long.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

// StaleRFQSweepJob logs every open RFQ workflow whose negotiation has
// been running longer than StaleAfter, so an operator can investigate
// without the job itself taking any corrective action.
type StaleRFQSweepJob struct {
	temporal   client.Client
	log        zerolog.Logger
	staleAfter time.Duration
}

// NewStaleRFQSweepJob builds a sweep job for the given Temporal client.
func NewStaleRFQSweepJob(temporal client.Client, staleAfter time.Duration, log zerolog.Logger) *StaleRFQSweepJob {
	return &StaleRFQSweepJob{
		temporal:   temporal,
		staleAfter: staleAfter,
		log:        log.With().Str("job", "stale-rfq-sweep").Logger(),
	}
}

// Run lists open RFQ workflow executions and logs any older than
// staleAfter. It never signals, cancels, or terminates a workflow.
func (j *StaleRFQSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := "WorkflowType = 'StructuredProductRFQ' AND ExecutionStatus = 'Running'"
	resp, err := j.temporal.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{Query: query})
	if err != nil {
		j.log.Error().Err(err).Msg("failed to list running RFQ workflows")
		return
	}

	now := time.Now()
	count := 0
	for _, exec := range resp.GetExecutions() {
		age := now.Sub(exec.GetStartTime().AsTime())
		if age > j.staleAfter {
			count++
			j.log.Warn().
				Str("workflow_id", exec.GetExecution().GetWorkflowId()).
				Dur("age", age).
				Msg("RFQ negotiation has been open longer than expected")
		}
	}
	j.log.Info().Int("stale_count", count).Msg("stale RFQ sweep complete")
}

// Register schedules the sweep job on c according to the cron spec.
func Register(c *cron.Cron, job *StaleRFQSweepJob, spec string) error {
	if _, err := c.AddFunc(spec, job.Run); err != nil {
		return fmt.Errorf("scheduler: register stale RFQ sweep: %w", err)
	}
	return nil
}
