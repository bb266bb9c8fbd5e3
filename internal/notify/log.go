package notify

import (
	"context"
	"log"

	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// LogNotifier writes notifications to the process log.
// Used in standalone mode where no webhook endpoint is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// NotifyComplete logs the import.complete event
func (n *LogNotifier) NotifyComplete(ctx context.Context, userID string, summary importjob.ImportSummary) error {
	log.Printf("NOTIFY import.complete: user=%s created=%d failed=%d images=%d",
		userID, summary.PagesCreated, summary.PagesFailed, summary.ImagesUploaded)
	return nil
}

// NotifyFailed logs the import.failed event
func (n *LogNotifier) NotifyFailed(ctx context.Context, userID, jobID, reason string) error {
	log.Printf("NOTIFY import.failed: user=%s job=%s reason=%s", userID, jobID, reason)
	return nil
}
