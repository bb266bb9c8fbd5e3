package workflows

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tendant/markdown-import-pipeline/internal/assets"
	"github.com/tendant/markdown-import-pipeline/internal/importer"
	"github.com/tendant/markdown-import-pipeline/internal/metrics"
	"github.com/tendant/markdown-import-pipeline/internal/pages"
	"github.com/tendant/markdown-import-pipeline/internal/reporter"
	"github.com/tendant/markdown-import-pipeline/internal/resolver"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// ImportWorkflow orchestrates one import job as a sequence of checkpointed
// steps: record pre-uploaded assets, ingest remaining images, materialize
// pages in order, then report the outcome.
type ImportWorkflow struct {
	ingestor     *assets.Ingestor
	materializer *importer.Materializer
	pageLister   pages.Lister
	reporter     *reporter.Reporter
	metrics      *metrics.Metrics
}

// NewImportWorkflow creates a new import workflow
func NewImportWorkflow(
	ingestor *assets.Ingestor,
	materializer *importer.Materializer,
	pageLister pages.Lister,
	rep *reporter.Reporter,
	m *metrics.Metrics,
) *ImportWorkflow {
	if m == nil {
		m = metrics.Nop()
	}
	return &ImportWorkflow{
		ingestor:     ingestor,
		materializer: materializer,
		pageLister:   pageLister,
		reporter:     rep,
		metrics:      m,
	}
}

// Name returns the workflow name
func (w *ImportWorkflow) Name() string {
	return "ImportWorkflow"
}

// Execute runs the import pipeline. Per-file failures are data; a step error
// that survives the step retry policy fails the whole job and triggers the
// failure notification path exactly once.
func (w *ImportWorkflow) Execute(wctx *WorkflowContext) (*WorkflowResult, error) {
	req := wctx.Request
	start := time.Now()

	jobID := req.JobID
	if jobID == "" {
		jobID = wctx.RunID
	}

	if req.UserID == "" {
		return w.fail(wctx, jobID, fmt.Errorf("%w: user_id is required", ErrInvalidRequest))
	}

	markdownFiles := req.MarkdownFiles()
	imageFiles := req.ImageFiles()
	log.Printf("[%s] Starting import: user=%s markdown=%d images=%d pre_uploaded=%d",
		wctx.RunID, req.UserID, len(markdownFiles), len(imageFiles), len(req.PreUploadedImages))

	// Step 1: record any pre-uploaded assets, bypassing re-upload
	preRecorded, err := runStep(wctx, "record_preuploaded", func(ctx context.Context) ([]importjob.AssetRecord, error) {
		return w.ingestor.RecordPreUploaded(ctx, wctx.RunID, req.UserID, jobID, req.PreUploadedImages), nil
	})
	if err != nil {
		return w.fail(wctx, jobID, fmt.Errorf("record pre-uploaded assets: %w", err))
	}

	// Step 2: upload the images that still need it
	uploaded, err := runStep(wctx, "ingest_assets", func(ctx context.Context) ([]importjob.AssetRecord, error) {
		return w.ingestor.IngestBatch(ctx, wctx.RunID, req.UserID, jobID, imageFiles)
	})
	if err != nil {
		return w.fail(wctx, jobID, fmt.Errorf("ingest assets: %w", err))
	}

	assetRecords := append(preRecorded, uploaded...)
	assetKeys := resolver.BuildAssetKeyMap(assetRecords)

	// Step 3: seed link resolution with the user's pre-existing pages
	seedTitles, err := runStep(wctx, "seed_page_titles", func(ctx context.Context) (resolver.PageTitleMap, error) {
		existing, err := w.pageLister.ListPagesByUser(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		titles := make(resolver.PageTitleMap, len(existing))
		for _, p := range existing {
			titles[p.Title] = resolver.PageRef{ID: p.ID, Title: p.Title}
		}
		return titles, nil
	})
	if err != nil {
		return w.fail(wctx, jobID, fmt.Errorf("seed page titles: %w", err))
	}

	// Step 4: materialize pages strictly in input order
	outcomes, err := runStep(wctx, "materialize_pages", func(ctx context.Context) ([]importjob.FileOutcome, error) {
		return w.materializer.MaterializePages(ctx, wctx.RunID, req.UserID, markdownFiles, assetKeys, seedTitles), nil
	})
	if err != nil {
		return w.fail(wctx, jobID, fmt.Errorf("materialize pages: %w", err))
	}

	// Step 5: summarize and notify
	summary := reporter.Summarize(assetRecords, outcomes)

	if err := w.reporter.ReportComplete(wctx.Ctx, wctx.RunID, req.UserID, summary); err != nil {
		// The job itself finished; a lost completion ping is logged, not fatal.
		log.Printf("[%s] %v", wctx.RunID, err)
	}

	w.metrics.ObserveSummary(summary.PagesCreated, summary.PagesFailed, summary.ImagesUploaded)
	w.metrics.JobsTotal.WithLabelValues("success").Inc()
	w.metrics.JobDuration.Observe(time.Since(start).Seconds())

	log.Printf("[%s] Import finished in %s", wctx.RunID, time.Since(start).Round(time.Millisecond))

	return &WorkflowResult{
		Success: true,
		Outputs: map[string]interface{}{
			"job_id":          jobID,
			"pages_created":   summary.PagesCreated,
			"pages_failed":    summary.PagesFailed,
			"images_uploaded": summary.ImagesUploaded,
			"errors":          summary.Errors,
		},
	}, nil
}

func (w *ImportWorkflow) fail(wctx *WorkflowContext, jobID string, cause error) (*WorkflowResult, error) {
	w.reporter.ReportFailure(wctx.Ctx, wctx.RunID, wctx.Request.UserID, jobID, cause)
	w.metrics.JobsTotal.WithLabelValues("failure").Inc()

	return &WorkflowResult{
		Success: false,
		Error:   cause,
	}, cause
}
