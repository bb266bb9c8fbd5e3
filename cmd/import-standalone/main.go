package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/markdown-import-pipeline/internal/assets"
	"github.com/tendant/markdown-import-pipeline/internal/catalog"
	"github.com/tendant/markdown-import-pipeline/internal/converter"
	"github.com/tendant/markdown-import-pipeline/internal/diag"
	"github.com/tendant/markdown-import-pipeline/internal/importer"
	"github.com/tendant/markdown-import-pipeline/internal/metrics"
	"github.com/tendant/markdown-import-pipeline/internal/notify"
	"github.com/tendant/markdown-import-pipeline/internal/pages"
	"github.com/tendant/markdown-import-pipeline/internal/quota"
	"github.com/tendant/markdown-import-pipeline/internal/reporter"
	"github.com/tendant/markdown-import-pipeline/internal/storage"
	"github.com/tendant/markdown-import-pipeline/internal/workflows"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// Standalone import worker for quick testing.
// In-memory quota/catalog/pages + filesystem image storage (./dev-data).
// No Postgres or DBOS needed; jobs run synchronously without checkpoints.
func main() {
	httpAddr := os.Getenv("IMPORT_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	storageDir := os.Getenv("STORAGE_DIR")
	if storageDir == "" {
		storageDir = "./dev-data"
	}

	publicBaseURL := os.Getenv("PUBLIC_BASE_URL")
	if publicBaseURL == "" {
		publicBaseURL = "http://localhost:8080/files"
	}

	log.Printf("Import Standalone Worker")
	log.Printf("  Mode: Embedded (in-memory bookkeeping + filesystem storage)")
	log.Printf("  Storage directory: %s", storageDir)
	log.Printf("  HTTP address: %s", httpAddr)

	blobStore, err := storage.NewFilesystemStore(storageDir, publicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize filesystem storage: %v", err)
	}

	quotaStore := quota.NewMemoryStore(1 << 30)
	imageCatalog := catalog.NewMemoryStore()
	pageService := pages.NewMemoryService()

	ingestor := assets.NewIngestor(blobStore, quotaStore, imageCatalog)
	materializer := importer.NewMaterializer(converter.NewGoldmarkConverter(), pageService, 30*time.Second)
	rep := reporter.NewReporter(notify.NewLogNotifier(), diag.NewCapturer(nil))

	workflowRunner := workflows.NewWorkflowRunner(nil)
	importWorkflow := workflows.NewImportWorkflow(ingestor, materializer, pageService, rep, metrics.Nop())
	workflowRunner.Register(importjob.JobPageImport, importWorkflow)
	log.Printf("✓ Registered workflow: %s for job: %s", importWorkflow.Name(), importjob.JobPageImport)

	mux := http.NewServeMux()

	handler := &Handler{
		workflowRunner: workflowRunner,
		pageService:    pageService,
	}

	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/v1/imports", handler.handleImport)
	mux.HandleFunc("/v1/test", handler.handleTest)
	mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(blobStore.BaseDir()))))

	server := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("✓ Import worker ready on %s", httpAddr)
		log.Printf("")
		log.Printf("Quick test:")
		log.Printf("  curl http://localhost:8080/v1/test")
		log.Printf("")
		log.Printf("Available endpoints:")
		log.Printf("  GET  /health      - Health check")
		log.Printf("  POST /v1/imports  - Run an import synchronously")
		log.Printf("  GET  /v1/test     - Run end-to-end test (images + linked pages)")
		log.Printf("")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// handleHealth returns health status
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"mode":   "standalone",
	})
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	workflowRunner *workflows.WorkflowRunner
	pageService    *pages.MemoryService
}

// handleImport runs an import synchronously and returns its summary
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
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
	if req.JobID == "" {
		req.JobID = uuid.New().String()
	}

	runID := uuid.New().String()
	log.Printf("Processing import: job_id=%s user=%s files=%d", req.JobID, req.UserID, len(req.Files))

	wctx := &workflows.WorkflowContext{
		Ctx:     r.Context(),
		Request: req,
		RunID:   runID,
	}

	result, err := h.workflowRunner.Run(wctx, importjob.JobPageImport)
	if err != nil {
		log.Printf("[%s] Import failed: %v", runID, err)
		http.Error(w, fmt.Sprintf("Import failed: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("[%s] Import completed successfully", runID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":  runID,
		"job_id":  req.JobID,
		"outputs": result.Outputs,
	})
}

// handleTest runs a small bundle with an image reference and a cross-link
// through the whole pipeline.
func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed (use GET or POST)", http.StatusMethodNotAllowed)
		return
	}

	log.Println("=== Running End-to-End Test ===")

	userID := uuid.New().String()
	// Minimal valid PNG header bytes; enough for upload, not for thumbnails
	imageBytes := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	req := importjob.ImportRequest{
		JobID:  uuid.New().String(),
		UserID: userID,
		Files: []importjob.FileDescriptor{
			{
				Name:         "diagram.png",
				RelativePath: "assets/diagram.png",
				Type:         importjob.FileTypeImage,
				SizeBytes:    int64(len(imageBytes)),
				Content:      imageBytes,
			},
			{
				Name:         "Welcome.md",
				RelativePath: "Welcome.md",
				Type:         importjob.FileTypeMarkdown,
				SizeBytes:    12,
				Content:      []byte("# Welcome\n\n![diagram](assets/diagram.png)\n"),
			},
			{
				Name:         "Guide.md",
				RelativePath: "Guide.md",
				Type:         importjob.FileTypeMarkdown,
				SizeBytes:    20,
				Content:      []byte("See [[Welcome]] for an overview.\n"),
			},
		},
	}

	runID := uuid.New().String()
	wctx := &workflows.WorkflowContext{
		Ctx:     r.Context(),
		Request: req,
		RunID:   runID,
	}

	result, err := h.workflowRunner.Run(wctx, importjob.JobPageImport)
	if err != nil {
		log.Printf("Test import failed: %v", err)
		http.Error(w, fmt.Sprintf("Test import failed: %v", err), http.StatusInternalServerError)
		return
	}

	created, _ := h.pageService.ListPagesByUser(r.Context(), userID)
	log.Printf("✓ Test import finished: pages=%d", len(created))
	log.Println("=== Test Complete ===")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"test_status": "success",
		"run_id":      runID,
		"outputs":     result.Outputs,
		"pages":       created,
	})
}
