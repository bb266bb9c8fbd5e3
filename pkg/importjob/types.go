package importjob

// FileType classifies a file inside an import bundle
type FileType string

const (
	FileTypeMarkdown FileType = "markdown"
	FileTypeImage    FileType = "image"
)

// FileDescriptor describes one file in an import bundle.
// Immutable input; never mutated after the job starts.
type FileDescriptor struct {
	Name         string   `json:"name"`
	RelativePath string   `json:"relative_path"`
	Type         FileType `json:"type"`
	SizeBytes    int64    `json:"size_bytes"`
	Content      []byte   `json:"content"`
}

// AssetRecord is the result of uploading one image.
// PublicURL is set iff the upload succeeded, Error iff it failed.
type AssetRecord struct {
	RelativePath string `json:"relative_path"`
	PublicURL    string `json:"public_url,omitempty"`
	Error        string `json:"error,omitempty"`
	SizeBytes    int64  `json:"size_bytes"`
}

// FileOutcome is the per-markdown-file result. Exactly one outcome is
// produced per markdown file, success or failure.
type FileOutcome struct {
	Name   string `json:"name"`
	PageID string `json:"page_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ImportSummary aggregates a finished job.
// PagesCreated + PagesFailed always equals the markdown file count.
type ImportSummary struct {
	PagesCreated   int      `json:"pages_created"`
	PagesFailed    int      `json:"pages_failed"`
	ImagesUploaded int      `json:"images_uploaded"`
	Errors         []string `json:"errors,omitempty"`
}

// ImportRequest is one request to ingest a bundle of markdown/image files
type ImportRequest struct {
	JobID             string           `json:"job_id,omitempty"`
	UserID            string           `json:"user_id"`
	Files             []FileDescriptor `json:"files"`
	PreUploadedImages []AssetRecord    `json:"pre_uploaded_images,omitempty"`
}

// ImportResponse is returned when an import is enqueued
type ImportResponse struct {
	JobID string `json:"job_id"`
	RunID string `json:"run_id"`
}

// JobType constants
const (
	JobPageImport = "page_import"
)

// MarkdownFiles returns the markdown descriptors in input order
func (r *ImportRequest) MarkdownFiles() []FileDescriptor {
	var out []FileDescriptor
	for _, f := range r.Files {
		if f.Type == FileTypeMarkdown {
			out = append(out, f)
		}
	}
	return out
}

// ImageFiles returns the image descriptors in input order
func (r *ImportRequest) ImageFiles() []FileDescriptor {
	var out []FileDescriptor
	for _, f := range r.Files {
		if f.Type == FileTypeImage {
			out = append(out, f)
		}
	}
	return out
}
