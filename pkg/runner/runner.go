package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/markdown-import-pipeline/internal/assets"
	"github.com/tendant/markdown-import-pipeline/internal/catalog"
	"github.com/tendant/markdown-import-pipeline/internal/converter"
	"github.com/tendant/markdown-import-pipeline/internal/dbosruntime"
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

// Config holds the configuration for initializing the import runner
type Config struct {
	DatabaseURL        string // DBOS PostgreSQL connection string
	AppName            string // Application name for DBOS
	QueueName          string // DBOS queue name
	Concurrency        int    // Number of concurrent jobs
	ApplicationVersion string // Optional: override binary hash for version matching

	PageAPIURL       string // Page service base URL
	NotifyWebhookURL string // Optional: webhook endpoint for notifications
	GCSBucket        string // GCS bucket for image storage; empty selects filesystem
	StorageDir       string // Filesystem storage directory (when GCSBucket is empty)
	PublicBaseURL    string // Public URL prefix for filesystem-stored images

	DefaultQuotaBytes int64         // Storage quota assigned to new users
	CallTimeout       time.Duration // Per-call timeout inside the materializer

	Registerer prometheus.Registerer // Optional: metrics registration target
}

// Runner provides a high-level API for running import workflows via DBOS
type Runner struct {
	runtime *dbosruntime.Runtime
	runner  *workflows.WorkflowRunner
}

// New creates and initializes an import runner with DBOS integration
func New(cfg Config) (*Runner, error) {
	ctx := context.Background()

	dbosRuntime, err := dbosruntime.NewRuntime(ctx, dbosruntime.Config{
		DatabaseURL:        cfg.DatabaseURL,
		AppName:            cfg.AppName,
		QueueName:          cfg.QueueName,
		Concurrency:        cfg.Concurrency,
		ApplicationVersion: cfg.ApplicationVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DBOS: %w", err)
	}

	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	workflow, err := buildImportWorkflow(ctx, cfg, dbosRuntime)
	if err != nil {
		return nil, err
	}
	workflowRunner.Register(importjob.JobPageImport, workflow)

	if err := dbosRuntime.Launch(); err != nil {
		return nil, fmt.Errorf("failed to launch DBOS: %w", err)
	}

	return &Runner{
		runtime: dbosRuntime,
		runner:  workflowRunner,
	}, nil
}

func buildImportWorkflow(ctx context.Context, cfg Config, rt *dbosruntime.Runtime) (*workflows.ImportWorkflow, error) {
	if cfg.DefaultQuotaBytes <= 0 {
		cfg.DefaultQuotaBytes = 1 << 30 // 1 GiB
	}

	quotaStore, err := quota.NewStore(rt.DB(), cfg.DefaultQuotaBytes)
	if err != nil {
		return nil, err
	}

	imageCatalog, err := catalog.NewStore(rt.DB())
	if err != nil {
		return nil, err
	}

	var blobStore storage.BlobStore
	if cfg.GCSBucket != "" {
		blobStore, err = storage.NewGCSStore(ctx, cfg.GCSBucket)
	} else {
		blobStore, err = storage.NewFilesystemStore(cfg.StorageDir, cfg.PublicBaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	pageService := pages.NewHTTPClient(cfg.PageAPIURL)

	var notifier reporter.Notifier
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifyWebhookURL)
	} else {
		notifier = notify.NewLogNotifier()
	}

	ingestor := assets.NewIngestor(blobStore, quotaStore, imageCatalog)
	materializer := importer.NewMaterializer(converter.NewGoldmarkConverter(), pageService, cfg.CallTimeout)
	rep := reporter.NewReporter(notifier, diag.NewCapturer(cfg.Registerer))

	return workflows.NewImportWorkflow(ingestor, materializer, pageService, rep, metrics.New(cfg.Registerer)), nil
}

// RunImport enqueues an import job for durable execution
func (r *Runner) RunImport(ctx context.Context, req importjob.ImportRequest) (string, error) {
	return r.runner.RunAsync(ctx, req)
}

// GetStatus retrieves the status of a previously started import
func (r *Runner) GetStatus(ctx context.Context, runID string) (*dbosruntime.WorkflowStatusInfo, error) {
	return r.runner.GetStatus(ctx, runID)
}

// Shutdown gracefully shuts down the import runner
func (r *Runner) Shutdown(timeoutSeconds int) {
	if r.runtime != nil {
		r.runtime.Shutdown(time.Duration(timeoutSeconds) * time.Second)
	}
}
