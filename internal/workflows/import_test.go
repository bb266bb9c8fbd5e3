package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tendant/markdown-import-pipeline/internal/assets"
	"github.com/tendant/markdown-import-pipeline/internal/catalog"
	"github.com/tendant/markdown-import-pipeline/internal/converter"
	"github.com/tendant/markdown-import-pipeline/internal/importer"
	"github.com/tendant/markdown-import-pipeline/internal/pages"
	"github.com/tendant/markdown-import-pipeline/internal/quota"
	"github.com/tendant/markdown-import-pipeline/internal/reporter"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

type stubNotifier struct {
	complete int
	failed   int
	summary  importjob.ImportSummary
}

func (n *stubNotifier) NotifyComplete(ctx context.Context, userID string, summary importjob.ImportSummary) error {
	n.complete++
	n.summary = summary
	return nil
}

func (n *stubNotifier) NotifyFailed(ctx context.Context, userID, jobID, reason string) error {
	n.failed++
	return nil
}

type stubDiagnostics struct {
	captured int
}

func (d *stubDiagnostics) CaptureException(ctx context.Context, err error, tags map[string]string) {
	d.captured++
}

type memBlobStore struct {
	objects map[string][]byte
}

func (s *memBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data
	return true, nil
}

func (s *memBlobStore) PublicURL(key string) string {
	return "https://files.test/" + key
}

type testHarness struct {
	runner    *WorkflowRunner
	pageSvc   *pages.MemoryService
	notifier  *stubNotifier
	diags     *stubDiagnostics
	blobStore assets.BlobStore
}

func newTestHarness(store assets.BlobStore) *testHarness {
	pageSvc := pages.NewMemoryService()
	notifier := &stubNotifier{}
	diags := &stubDiagnostics{}

	ingestor := assets.NewIngestor(store, quota.NewMemoryStore(1<<20), catalog.NewMemoryStore())
	materializer := importer.NewMaterializer(converter.NewGoldmarkConverter(), pageSvc, 5*time.Second)
	rep := reporter.NewReporter(notifier, diags)

	runner := NewWorkflowRunner(nil)
	runner.Register(importjob.JobPageImport, NewImportWorkflow(ingestor, materializer, pageSvc, rep, nil))

	return &testHarness{
		runner:    runner,
		pageSvc:   pageSvc,
		notifier:  notifier,
		diags:     diags,
		blobStore: store,
	}
}

func (h *testHarness) run(t *testing.T, req importjob.ImportRequest) (*WorkflowResult, error) {
	t.Helper()
	wctx := &WorkflowContext{
		Ctx:     context.Background(),
		Request: req,
		RunID:   "run-test",
	}
	return h.runner.Run(wctx, importjob.JobPageImport)
}

func TestImportWorkflowSuccess(t *testing.T) {
	h := newTestHarness(&memBlobStore{})

	req := importjob.ImportRequest{
		JobID:  "job-1",
		UserID: "u1",
		Files: []importjob.FileDescriptor{
			{
				Name:         "diagram.png",
				RelativePath: "diagram.png",
				Type:         importjob.FileTypeImage,
				SizeBytes:    4,
				Content:      []byte{0x89, 'P', 'N', 'G'},
			},
			{
				Name:         "Welcome.md",
				RelativePath: "Welcome.md",
				Type:         importjob.FileTypeMarkdown,
				Content:      []byte("# Welcome\n\n![diagram](diagram.png)\n"),
			},
			{
				Name:         "Guide.md",
				RelativePath: "Guide.md",
				Type:         importjob.FileTypeMarkdown,
				Content:      []byte("Read [[Welcome]] first.\n"),
			},
		},
	}

	result, err := h.run(t, req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	if got := result.Outputs["pages_created"]; got != 2 {
		t.Fatalf("pages_created = %v, want 2", got)
	}
	if got := result.Outputs["pages_failed"]; got != 0 {
		t.Fatalf("pages_failed = %v, want 0", got)
	}
	if got := result.Outputs["images_uploaded"]; got != 1 {
		t.Fatalf("images_uploaded = %v, want 1", got)
	}

	if h.notifier.complete != 1 || h.notifier.failed != 0 {
		t.Fatalf("expected exactly one completion notification, got complete=%d failed=%d",
			h.notifier.complete, h.notifier.failed)
	}

	created, err := h.pageSvc.ListPagesByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListPagesByUser: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(created))
	}

	var welcomeID, guideID string
	for _, p := range created {
		switch p.Title {
		case "Welcome":
			welcomeID = p.ID
		case "Guide":
			guideID = p.ID
		}
	}
	if welcomeID == "" || guideID == "" {
		t.Fatalf("missing expected pages: %+v", created)
	}

	welcomeHTML := h.pageSvc.PageContent(welcomeID)
	imageKey := assets.StorageKey("u1", "job-1", "diagram.png")
	if !strings.Contains(welcomeHTML, "https://files.test/"+imageKey) {
		t.Fatalf("welcome page does not reference uploaded image URL:\n%s", welcomeHTML)
	}

	guideHTML := h.pageSvc.PageContent(guideID)
	if !strings.Contains(guideHTML, "/pages/"+welcomeID) {
		t.Fatalf("guide page does not link to welcome page:\n%s", guideHTML)
	}
}

func TestImportWorkflowLinksToPreExistingPage(t *testing.T) {
	h := newTestHarness(&memBlobStore{})

	existing, err := h.pageSvc.CreatePage(context.Background(), pages.CreateRequest{
		UserID:  "u1",
		Title:   "Changelog",
		Content: "<p>old</p>",
	})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	req := importjob.ImportRequest{
		JobID:  "job-2",
		UserID: "u1",
		Files: []importjob.FileDescriptor{
			{
				Name:         "Notes.md",
				RelativePath: "Notes.md",
				Type:         importjob.FileTypeMarkdown,
				Content:      []byte("See [[Changelog]].\n"),
			},
		},
	}

	result, err := h.run(t, req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := result.Outputs["pages_created"]; got != 1 {
		t.Fatalf("pages_created = %v, want 1", got)
	}

	created, _ := h.pageSvc.ListPagesByUser(context.Background(), "u1")
	var notesID string
	for _, p := range created {
		if p.Title == "Notes" {
			notesID = p.ID
		}
	}
	if notesID == "" {
		t.Fatalf("Notes page not created: %+v", created)
	}
	if html := h.pageSvc.PageContent(notesID); !strings.Contains(html, "/pages/"+existing.ID) {
		t.Fatalf("link to pre-existing page not resolved:\n%s", html)
	}
}

func TestImportWorkflowPerFileFailureIsData(t *testing.T) {
	h := newTestHarness(&memBlobStore{})

	// The second file references an image that was never part of the bundle;
	// resolution leaves it unchanged and the page is still created.
	req := importjob.ImportRequest{
		JobID:  "job-3",
		UserID: "u1",
		Files: []importjob.FileDescriptor{
			{
				Name:         "A.md",
				RelativePath: "A.md",
				Type:         importjob.FileTypeMarkdown,
				Content:      []byte("![missing](nowhere.png)\n"),
			},
			{
				Name:         "B.md",
				RelativePath: "B.md",
				Type:         importjob.FileTypeMarkdown,
				Content:      []byte("plain\n"),
			},
		},
	}

	result, err := h.run(t, req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := result.Outputs["pages_created"]; got != 2 {
		t.Fatalf("pages_created = %v, want 2", got)
	}
	if h.notifier.complete != 1 {
		t.Fatalf("expected completion notification, got %d", h.notifier.complete)
	}
}

func TestImportWorkflowMissingUserIDFails(t *testing.T) {
	h := newTestHarness(&memBlobStore{})

	result, err := h.run(t, importjob.ImportRequest{JobID: "job-4"})
	if err == nil {
		t.Fatal("expected error for missing user_id")
	}
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
	if result.Success {
		t.Fatal("result should not be successful")
	}

	if h.notifier.failed != 1 || h.notifier.complete != 0 {
		t.Fatalf("expected exactly one failure notification, got complete=%d failed=%d",
			h.notifier.complete, h.notifier.failed)
	}
	if h.diags.captured != 1 {
		t.Fatalf("expected one diagnostic capture, got %d", h.diags.captured)
	}
}

func TestImportWorkflowStorageNotConfiguredFails(t *testing.T) {
	h := newTestHarness(nil)

	req := importjob.ImportRequest{
		JobID:  "job-5",
		UserID: "u1",
		Files: []importjob.FileDescriptor{
			{
				Name:         "pic.png",
				RelativePath: "pic.png",
				Type:         importjob.FileTypeImage,
				SizeBytes:    2,
				Content:      []byte{1, 2},
			},
		},
	}

	result, err := h.run(t, req)
	if err == nil {
		t.Fatal("expected error when blob storage is not configured")
	}
	if !errors.Is(err, assets.ErrStorageNotConfigured) {
		t.Fatalf("error = %v, want ErrStorageNotConfigured", err)
	}
	if result.Success {
		t.Fatal("result should not be successful")
	}

	if h.notifier.failed != 1 || h.notifier.complete != 0 {
		t.Fatalf("expected exactly one failure notification, got complete=%d failed=%d",
			h.notifier.complete, h.notifier.failed)
	}
}

func TestRunUnknownJobType(t *testing.T) {
	runner := NewWorkflowRunner(nil)

	wctx := &WorkflowContext{
		Ctx:   context.Background(),
		RunID: "run-test",
	}
	_, err := runner.Run(wctx, "no_such_job")
	if !errors.Is(err, ErrWorkflowNotFound) {
		t.Fatalf("error = %v, want ErrWorkflowNotFound", err)
	}
}

func TestPreUploadedImagesResolve(t *testing.T) {
	h := newTestHarness(&memBlobStore{})

	req := importjob.ImportRequest{
		JobID:  "job-6",
		UserID: "u1",
		PreUploadedImages: []importjob.AssetRecord{
			{
				RelativePath: "shots/ui.png",
				PublicURL:    "https://files.test/pre/ui.png",
				SizeBytes:    10,
			},
		},
		Files: []importjob.FileDescriptor{
			{
				Name:         "Doc.md",
				RelativePath: "Doc.md",
				Type:         importjob.FileTypeMarkdown,
				Content:      []byte("![ui](shots/ui.png)\n"),
			},
		},
	}

	result, err := h.run(t, req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := result.Outputs["images_uploaded"]; got != 1 {
		t.Fatalf("images_uploaded = %v, want 1", got)
	}

	created, _ := h.pageSvc.ListPagesByUser(context.Background(), "u1")
	if len(created) != 1 {
		t.Fatalf("expected 1 page, got %d", len(created))
	}
	html := h.pageSvc.PageContent(created[0].ID)
	if !strings.Contains(html, "https://files.test/pre/ui.png") {
		t.Fatalf("pre-uploaded image URL not resolved:\n%s", html)
	}
}

func TestResultOutputsAreJSONFriendly(t *testing.T) {
	h := newTestHarness(&memBlobStore{})

	result, err := h.run(t, importjob.ImportRequest{JobID: "job-7", UserID: "u1"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	for _, key := range []string{"job_id", "pages_created", "pages_failed", "images_uploaded"} {
		if _, ok := result.Outputs[key]; !ok {
			t.Fatalf("missing output %q in %v", key, result.Outputs)
		}
	}
	if fmt.Sprint(result.Outputs["job_id"]) != "job-7" {
		t.Fatalf("job_id = %v, want job-7", result.Outputs["job_id"])
	}
}
