package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-content/pkg/simplecontent/presets"

	"github.com/tendant/markdown-import-pipeline/internal/assets"
	"github.com/tendant/markdown-import-pipeline/internal/catalog"
	"github.com/tendant/markdown-import-pipeline/internal/converter"
	"github.com/tendant/markdown-import-pipeline/internal/dbosruntime"
	"github.com/tendant/markdown-import-pipeline/internal/diag"
	"github.com/tendant/markdown-import-pipeline/internal/handlers"
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

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	httpAddr := os.Getenv("WORKER_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8081"
	}

	// Initialize DBOS runtime (required)
	dbURL := os.Getenv("DBOS_SYSTEM_DATABASE_URL")
	if dbURL == "" {
		log.Fatalf("DBOS_SYSTEM_DATABASE_URL is required")
	}

	queueName := os.Getenv("DBOS_QUEUE_NAME")
	if queueName == "" {
		queueName = "imports"
	}

	concurrency := 4
	if v := os.Getenv("DBOS_QUEUE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			concurrency = n
		}
	}

	dbosRuntime, err := dbosruntime.NewRuntime(context.Background(), dbosruntime.Config{
		DatabaseURL: dbURL,
		AppName:     "import-worker",
		QueueName:   queueName,
		Concurrency: concurrency,
	})
	if err != nil {
		log.Fatalf("Failed to initialize DBOS: %v", err)
	}

	// Bookkeeping stores share the DBOS Postgres connection
	defaultQuota := int64(1 << 30)
	if v := os.Getenv("DEFAULT_QUOTA_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			defaultQuota = n
		}
	}

	quotaStore, err := quota.NewStore(dbosRuntime.DB(), defaultQuota)
	if err != nil {
		log.Fatalf("Failed to initialize quota store: %v", err)
	}

	imageCatalog, err := catalog.NewStore(dbosRuntime.DB())
	if err != nil {
		log.Fatalf("Failed to initialize image catalog: %v", err)
	}

	// Blob storage: GCS when a bucket is configured, otherwise an embedded
	// simple-content service (development preset)
	var blobStore storage.BlobStore
	var cleanup func()

	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		log.Printf("Using GCS image storage: bucket=%s", bucket)
		gcsStore, err := storage.NewGCSStore(context.Background(), bucket)
		if err != nil {
			log.Fatalf("Failed to initialize GCS storage: %v", err)
		}
		blobStore = gcsStore
		cleanup = func() {}
	} else {
		log.Printf("Using embedded simple-content image storage (development preset)")
		svc, cleanupFn, err := presets.NewDevelopment()
		if err != nil {
			log.Fatalf("Failed to initialize simple-content service: %v", err)
		}
		baseURL := os.Getenv("CONTENT_API_URL")
		if baseURL == "" {
			baseURL = "http://localhost:4000"
		}
		blobStore = storage.NewContentStore(svc, baseURL, uuid.New(), uuid.New())
		cleanup = cleanupFn
	}
	defer cleanup()

	// Page service (required)
	pageAPIURL := os.Getenv("PAGE_API_URL")
	if pageAPIURL == "" {
		log.Fatalf("PAGE_API_URL is required")
	}
	pageService := pages.NewHTTPClient(pageAPIURL)

	// Notifications: webhook when configured, log otherwise
	var notifier reporter.Notifier
	if endpoint := os.Getenv("NOTIFY_WEBHOOK_URL"); endpoint != "" {
		notifier = notify.NewWebhookNotifier(endpoint)
	} else {
		notifier = notify.NewLogNotifier()
	}

	reg := prometheus.DefaultRegisterer
	ingestor := assets.NewIngestor(blobStore, quotaStore, imageCatalog)
	materializer := importer.NewMaterializer(converter.NewGoldmarkConverter(), pageService, 30*time.Second)
	rep := reporter.NewReporter(notifier, diag.NewCapturer(reg))

	// Initialize workflow runner with DBOS support
	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	importWorkflow := workflows.NewImportWorkflow(ingestor, materializer, pageService, rep, metrics.New(reg))
	workflowRunner.Register(importjob.JobPageImport, importWorkflow)
	log.Printf("✓ Registered workflow: %s for job: %s", importWorkflow.Name(), importjob.JobPageImport)

	// Launch DBOS (must be done after workflow registration)
	if err := dbosRuntime.Launch(); err != nil {
		log.Fatalf("Failed to launch DBOS: %v", err)
	}
	defer dbosRuntime.Shutdown(10 * time.Second)

	log.Printf("✓ DBOS runtime initialized")
	log.Printf("  Queue: %s", dbosRuntime.QueueName())
	log.Printf("  Concurrency: %d", dbosRuntime.Concurrency())

	// Create HTTP server
	mux := http.NewServeMux()

	asyncHandler := handlers.NewAsyncHandler(workflowRunner)

	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/v1/imports", asyncHandler.HandleImportAsync)
	mux.HandleFunc("/v1/imports/", asyncHandler.HandleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("✓ Registered async endpoints")

	server := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("Import worker starting on %s", httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
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
	})
}
