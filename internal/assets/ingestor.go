package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/tendant/markdown-import-pipeline/internal/catalog"
	"github.com/tendant/markdown-import-pipeline/internal/quota"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// ErrStorageNotConfigured is returned when the blob storage backend is
// missing. Fatal to the whole batch, never attached to a single file.
var ErrStorageNotConfigured = errors.New("asset ingestor: blob storage not configured")

// BlobStore persists raw image bytes and exposes durable public URLs
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (bool, error)
	PublicURL(key string) string
}

// QuotaStore tracks per-user storage consumption
type QuotaStore interface {
	GetUsage(ctx context.Context, userID string) (quota.Usage, error)
	IncrementUsage(ctx context.Context, userID string, delta int64) error
}

// ImageCatalog persists durable image bookkeeping records
type ImageCatalog interface {
	SaveImage(ctx context.Context, rec catalog.ImageRecord) error
}

// Ingestor uploads image files, enforces the user's storage quota, and
// records one AssetRecord per file. A single file's failure never aborts
// its siblings.
type Ingestor struct {
	store         BlobStore
	quota         QuotaStore
	catalog       ImageCatalog
	thumbnailSize int
}

// NewIngestor creates an asset ingestor
func NewIngestor(store BlobStore, quotaStore QuotaStore, imageCatalog ImageCatalog) *Ingestor {
	return &Ingestor{
		store:         store,
		quota:         quotaStore,
		catalog:       imageCatalog,
		thumbnailSize: 300,
	}
}

// IngestBatch uploads each image and returns one AssetRecord per input file,
// in input order. Missing backend configuration fails the whole batch; every
// other failure is attached to that file's record only.
func (i *Ingestor) IngestBatch(ctx context.Context, runID, userID, jobID string, images []importjob.FileDescriptor) ([]importjob.AssetRecord, error) {
	if i.store == nil {
		return nil, ErrStorageNotConfigured
	}

	records := make([]importjob.AssetRecord, 0, len(images))
	for _, file := range images {
		rec := i.ingestOne(ctx, runID, userID, jobID, file)
		if rec.Error != "" {
			log.Printf("[%s] Image upload failed: path=%s err=%s", runID, file.RelativePath, rec.Error)
		} else {
			log.Printf("[%s] Image uploaded: path=%s url=%s", runID, file.RelativePath, rec.PublicURL)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (i *Ingestor) ingestOne(ctx context.Context, runID, userID, jobID string, file importjob.FileDescriptor) importjob.AssetRecord {
	rec := importjob.AssetRecord{
		RelativePath: file.RelativePath,
		SizeBytes:    file.SizeBytes,
	}

	usage, err := i.quota.GetUsage(ctx, userID)
	if err != nil {
		rec.Error = fmt.Sprintf("quota lookup failed: %v", err)
		return rec
	}

	if usage.StorageUsed+file.SizeBytes > usage.StorageLimit {
		rec.Error = fmt.Sprintf("storage quota exceeded: %d + %d > %d", usage.StorageUsed, file.SizeBytes, usage.StorageLimit)
		return rec
	}

	key := StorageKey(userID, jobID, file.RelativePath)
	contentType := ContentTypeForPath(file.RelativePath)

	confirmed, err := i.store.Put(ctx, key, file.Content, contentType)
	if err != nil {
		rec.Error = fmt.Sprintf("upload failed: %v", err)
		return rec
	}
	if !confirmed {
		rec.Error = "upload not confirmed by storage backend"
		return rec
	}

	publicURL := i.store.PublicURL(key)
	if publicURL == "" {
		rec.Error = "storage backend returned no public URL"
		return rec
	}

	width, height := i.generateThumbnail(ctx, runID, key, file.Content)

	if err := i.catalog.SaveImage(ctx, catalog.ImageRecord{
		UserID:       userID,
		JobID:        jobID,
		RelativePath: file.RelativePath,
		StorageKey:   key,
		PublicURL:    publicURL,
		SizeBytes:    file.SizeBytes,
		Width:        width,
		Height:       height,
	}); err != nil {
		rec.Error = fmt.Sprintf("failed to save image record: %v", err)
		return rec
	}

	if err := i.quota.IncrementUsage(ctx, userID, file.SizeBytes); err != nil {
		rec.Error = fmt.Sprintf("failed to update storage usage: %v", err)
		return rec
	}

	rec.PublicURL = publicURL
	return rec
}

// generateThumbnail writes a best-effort JPEG thumbnail variant next to the
// stored image and returns the source dimensions. Any failure here only
// costs the variant, never the upload.
func (i *Ingestor) generateThumbnail(ctx context.Context, runID, key string, data []byte) (int, int) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("[%s] Skipping thumbnail, image decode failed for %s: %v", runID, key, err)
		return 0, 0
	}

	bounds := img.Bounds()
	thumb := imaging.Fit(img, i.thumbnailSize, i.thumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		log.Printf("[%s] Skipping thumbnail, JPEG encode failed for %s: %v", runID, key, err)
		return bounds.Dx(), bounds.Dy()
	}

	thumbKey := ThumbnailKey(key)
	if _, err := i.store.Put(ctx, thumbKey, buf.Bytes(), "image/jpeg"); err != nil {
		log.Printf("[%s] Skipping thumbnail, write failed for %s: %v", runID, thumbKey, err)
	}

	return bounds.Dx(), bounds.Dy()
}

// StorageKey returns the deterministic object key for an uploaded image.
// A retried workflow step re-uploads to the same key instead of duplicating.
func StorageKey(userID, jobID, relativePath string) string {
	return fmt.Sprintf("imports/%s/%s/%s", userID, jobID, strings.TrimPrefix(relativePath, "/"))
}

// ThumbnailKey returns the object key for an image's thumbnail variant
func ThumbnailKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "_thumb.jpg"
}

// ContentTypeForPath resolves a content type from the file extension,
// defaulting to a generic binary type when unrecognized.
func ContentTypeForPath(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
