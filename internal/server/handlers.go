package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/encoding/json"
	"go.temporal.io/sdk/client"

	wf "github.com/aristath/attestor-rfq/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleCreateRFQ(w http.ResponseWriter, r *http.Request) {
	var req createRFQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	input, err := req.toRFQInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        req.RFQID,
		TaskQueue: s.taskQueue,
	}
	run, err := s.temporal.ExecuteWorkflow(r.Context(), workflowOptions, "StructuredProductRFQ", input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"rfq_id":      req.RFQID,
		"workflow_id": run.GetID(),
		"run_id":      run.GetRunID(),
	})
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	rfqID := chi.URLParam(r, "rfqID")

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	response, err := req.toClientResponse(rfqID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.temporal.SignalWorkflow(r.Context(), rfqID, "", wf.ClientRespondsSignalName, response); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	rfqID := chi.URLParam(r, "rfqID")
	encoded, err := s.temporal.QueryWorkflow(r.Context(), rfqID, "", wf.GetStatusQueryName)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var status wf.Status
	if err := encoded.Get(&status); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleGetPricing(w http.ResponseWriter, r *http.Request) {
	rfqID := chi.URLParam(r, "rfqID")
	encoded, err := s.temporal.QueryWorkflow(r.Context(), rfqID, "", wf.GetCurrentPricingQueryName)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var pricing interface{}
	if err := encoded.Get(&pricing); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, pricing)
}

// handleGetTermSheet returns the currently outstanding term sheet.
// This is how a client learns the document hash it must echo back in
// an ACCEPT response.
func (s *Server) handleGetTermSheet(w http.ResponseWriter, r *http.Request) {
	rfqID := chi.URLParam(r, "rfqID")
	encoded, err := s.temporal.QueryWorkflow(r.Context(), rfqID, "", wf.GetCurrentTermSheetQueryName)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var sheet interface{}
	if err := encoded.Get(&sheet); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

// pollInterval is how often the stream handler re-queries workflow
// status while the connection is open.
const pollInterval = 2 * time.Second
