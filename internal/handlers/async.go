package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/tendant/markdown-import-pipeline/internal/workflows"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// AsyncHandler enqueues import workflows and answers status queries
type AsyncHandler struct {
	workflowRunner *workflows.WorkflowRunner
}

// NewAsyncHandler creates a new async handler
func NewAsyncHandler(runner *workflows.WorkflowRunner) *AsyncHandler {
	return &AsyncHandler{
		workflowRunner: runner,
	}
}

// HandleImportAsync handles POST /v1/imports - enqueues the workflow and
// returns immediately with 202
func (h *AsyncHandler) HandleImportAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req importjob.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if len(req.Files) == 0 && len(req.PreUploadedImages) == 0 {
		http.Error(w, "files is required", http.StatusBadRequest)
		return
	}
	if req.JobID == "" {
		req.JobID = uuid.New().String()
	}

	log.Printf("Enqueueing import: job_id=%s user=%s files=%d", req.JobID, req.UserID, len(req.Files))

	runID, err := h.workflowRunner.RunAsync(r.Context(), req)
	if err != nil {
		log.Printf("Failed to enqueue import: %v", err)
		http.Error(w, fmt.Sprintf("Failed to enqueue import: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("Import enqueued: run_id=%s", runID)

	resp := importjob.ImportResponse{
		JobID: req.JobID,
		RunID: runID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

// HandleStatus handles GET /v1/imports/{runID} - returns workflow status
func (h *AsyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := r.URL.Path[len("/v1/imports/"):]
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}

	status, err := h.workflowRunner.GetStatus(r.Context(), runID)
	if err != nil {
		log.Printf("Failed to get workflow status: %v", err)
		http.Error(w, "Import run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}
