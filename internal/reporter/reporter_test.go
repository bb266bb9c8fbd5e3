package reporter

import (
	"context"
	"errors"
	"testing"

	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

type countingNotifier struct {
	complete int
	failed   int
	lastSummary importjob.ImportSummary
	lastJobID   string
}

func (n *countingNotifier) NotifyComplete(ctx context.Context, userID string, summary importjob.ImportSummary) error {
	n.complete++
	n.lastSummary = summary
	return nil
}

func (n *countingNotifier) NotifyFailed(ctx context.Context, userID, jobID, reason string) error {
	n.failed++
	n.lastJobID = jobID
	return nil
}

type countingDiagnostics struct {
	captured int
	lastTags map[string]string
}

func (d *countingDiagnostics) CaptureException(ctx context.Context, err error, tags map[string]string) {
	d.captured++
	d.lastTags = tags
}

func TestSummarizeCountsMatchInputs(t *testing.T) {
	assets := []importjob.AssetRecord{
		{RelativePath: "a.png", PublicURL: "https://cdn.example.com/a.png"},
		{RelativePath: "b.png", Error: "quota exceeded"},
	}
	outcomes := []importjob.FileOutcome{
		{Name: "A.md", PageID: "p-1"},
		{Name: "B.md", Error: "conversion failed"},
		{Name: "C.md", PageID: "p-2"},
	}

	summary := Summarize(assets, outcomes)

	if summary.PagesCreated+summary.PagesFailed != len(outcomes) {
		t.Fatalf("pages created+failed = %d, want %d", summary.PagesCreated+summary.PagesFailed, len(outcomes))
	}
	if summary.PagesCreated != 2 || summary.PagesFailed != 1 {
		t.Fatalf("unexpected page counts: %+v", summary)
	}
	if summary.ImagesUploaded != 1 {
		t.Fatalf("expected 1 image uploaded, got %d", summary.ImagesUploaded)
	}
	if len(summary.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", summary.Errors)
	}
}

func TestSummarizeEmptyJob(t *testing.T) {
	summary := Summarize(nil, nil)
	if summary.PagesCreated != 0 || summary.PagesFailed != 0 || summary.ImagesUploaded != 0 {
		t.Fatalf("empty job should produce zero summary: %+v", summary)
	}
}

func TestReportCompleteSendsOneNotification(t *testing.T) {
	notifier := &countingNotifier{}
	r := NewReporter(notifier, &countingDiagnostics{})

	summary := importjob.ImportSummary{PagesCreated: 3, ImagesUploaded: 1}
	if err := r.ReportComplete(context.Background(), "run-1", "u1", summary); err != nil {
		t.Fatalf("ReportComplete: %v", err)
	}

	if notifier.complete != 1 || notifier.failed != 0 {
		t.Fatalf("expected exactly one completion notification, got complete=%d failed=%d", notifier.complete, notifier.failed)
	}
	if notifier.lastSummary.PagesCreated != 3 {
		t.Fatalf("summary not forwarded: %+v", notifier.lastSummary)
	}
}

func TestReportFailureNotifiesAndCaptures(t *testing.T) {
	notifier := &countingNotifier{}
	diags := &countingDiagnostics{}
	r := NewReporter(notifier, diags)

	r.ReportFailure(context.Background(), "run-1", "u1", "job-7", errors.New("storage backend unreachable"))

	if notifier.failed != 1 || notifier.complete != 0 {
		t.Fatalf("expected exactly one failure notification, got complete=%d failed=%d", notifier.complete, notifier.failed)
	}
	if notifier.lastJobID != "job-7" {
		t.Fatalf("failure notification missing job id: %q", notifier.lastJobID)
	}
	if diags.captured != 1 {
		t.Fatalf("expected one diagnostic capture, got %d", diags.captured)
	}
	if diags.lastTags["job_id"] != "job-7" || diags.lastTags["user_id"] != "u1" {
		t.Fatalf("diagnostic context incomplete: %v", diags.lastTags)
	}
}
