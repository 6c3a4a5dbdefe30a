package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	enumspb "go.temporal.io/api/enums/v1"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	wf "github.com/aristath/attestor-rfq/internal/workflow"
)

// handleStream upgrades to a websocket and pushes the RFQ's status
// every pollInterval until the workflow reaches a terminal outcome
// (any of the five, not just an executed trade) or the client
// disconnects. Terminality comes from the execution's own run status:
// a negotiation that ends rejected, expired, or failed leaves the
// phase-level status frozen at whatever step it last reached, so the
// status value alone cannot signal completion.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	rfqID := chi.URLParam(r, "rfqID")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("rfq_id", rfqID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	ctx := r.Context()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := s.queryStatus(ctx, rfqID)
			if err != nil {
				_ = wsjson.Write(ctx, conn, map[string]string{"error": err.Error()})
			} else if err := wsjson.Write(ctx, conn, map[string]string{"status": string(status)}); err != nil {
				return
			}
			if s.workflowFinished(ctx, rfqID) {
				conn.Close(websocket.StatusNormalClosure, "rfq negotiation finished")
				return
			}
		}
	}
}

func (s *Server) queryStatus(ctx context.Context, rfqID string) (wf.Status, error) {
	encoded, err := s.temporal.QueryWorkflow(ctx, rfqID, "", wf.GetStatusQueryName)
	if err != nil {
		return "", err
	}
	var status wf.Status
	if err := encoded.Get(&status); err != nil {
		return "", err
	}
	return status, nil
}

// workflowFinished reports whether the RFQ's workflow execution has
// left the RUNNING state. A describe error reports false; the next
// tick retries.
func (s *Server) workflowFinished(ctx context.Context, rfqID string) bool {
	desc, err := s.temporal.DescribeWorkflowExecution(ctx, rfqID, "")
	if err != nil {
		return false
	}
	return desc.GetWorkflowExecutionInfo().GetStatus() != enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING
}
