package reporter

import (
	"context"
	"fmt"
	"log"

	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// Notifier delivers user-facing import notifications
type Notifier interface {
	NotifyComplete(ctx context.Context, userID string, summary importjob.ImportSummary) error
	NotifyFailed(ctx context.Context, userID, jobID, reason string) error
}

// Diagnostics forwards unrecovered failures to error tracking
type Diagnostics interface {
	CaptureException(ctx context.Context, err error, context map[string]string)
}

// Reporter converts per-file results into a single summary and triggers the
// completion or failure notification. Exactly one notification per job.
type Reporter struct {
	notifier    Notifier
	diagnostics Diagnostics
}

// NewReporter creates an outcome reporter
func NewReporter(notifier Notifier, diagnostics Diagnostics) *Reporter {
	return &Reporter{
		notifier:    notifier,
		diagnostics: diagnostics,
	}
}

// Summarize folds asset records and file outcomes into one ImportSummary.
// PagesCreated + PagesFailed always equals len(outcomes).
func Summarize(assetRecords []importjob.AssetRecord, outcomes []importjob.FileOutcome) importjob.ImportSummary {
	summary := importjob.ImportSummary{}

	for _, rec := range assetRecords {
		if rec.PublicURL != "" {
			summary.ImagesUploaded++
		} else if rec.Error != "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", rec.RelativePath, rec.Error))
		}
	}

	for _, outcome := range outcomes {
		if outcome.Error != "" {
			summary.PagesFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", outcome.Name, outcome.Error))
		} else {
			summary.PagesCreated++
		}
	}

	return summary
}

// ReportComplete sends the single completion notification for a finished job
func (r *Reporter) ReportComplete(ctx context.Context, runID, userID string, summary importjob.ImportSummary) error {
	log.Printf("[%s] Import complete: created=%d failed=%d images=%d errors=%d",
		runID, summary.PagesCreated, summary.PagesFailed, summary.ImagesUploaded, len(summary.Errors))

	if err := r.notifier.NotifyComplete(ctx, userID, summary); err != nil {
		return fmt.Errorf("completion notification failed: %w", err)
	}
	return nil
}

// ReportFailure handles a total, unrecovered workflow failure: one failure
// notification plus a diagnostic capture with job context.
func (r *Reporter) ReportFailure(ctx context.Context, runID, userID, jobID string, cause error) {
	log.Printf("[%s] Import failed: job_id=%s err=%v", runID, jobID, cause)

	if err := r.notifier.NotifyFailed(ctx, userID, jobID, cause.Error()); err != nil {
		log.Printf("[%s] Failure notification failed: %v", runID, err)
	}

	r.diagnostics.CaptureException(ctx, cause, map[string]string{
		"job_id":  jobID,
		"user_id": userID,
		"run_id":  runID,
	})
}
