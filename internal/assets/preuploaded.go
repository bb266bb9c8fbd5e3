package assets

import (
	"context"
	"fmt"
	"log"

	"github.com/tendant/markdown-import-pipeline/internal/catalog"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// RecordPreUploaded records assets that were already uploaded elsewhere into
// the image catalog and the quota counter, bypassing re-upload. Records that
// arrive failed (no public URL) pass through unchanged; bookkeeping failures
// are attached per record.
func (i *Ingestor) RecordPreUploaded(ctx context.Context, runID, userID, jobID string, records []importjob.AssetRecord) []importjob.AssetRecord {
	out := make([]importjob.AssetRecord, 0, len(records))
	for _, rec := range records {
		if rec.PublicURL == "" {
			out = append(out, rec)
			continue
		}

		if err := i.catalog.SaveImage(ctx, catalog.ImageRecord{
			UserID:       userID,
			JobID:        jobID,
			RelativePath: rec.RelativePath,
			StorageKey:   StorageKey(userID, jobID, rec.RelativePath),
			PublicURL:    rec.PublicURL,
			SizeBytes:    rec.SizeBytes,
		}); err != nil {
			rec.Error = fmt.Sprintf("failed to save image record: %v", err)
			rec.PublicURL = ""
			out = append(out, rec)
			continue
		}

		// GetUsage creates the quota row for first-time users
		if _, err := i.quota.GetUsage(ctx, userID); err != nil {
			rec.Error = fmt.Sprintf("quota lookup failed: %v", err)
			rec.PublicURL = ""
			out = append(out, rec)
			continue
		}

		if err := i.quota.IncrementUsage(ctx, userID, rec.SizeBytes); err != nil {
			rec.Error = fmt.Sprintf("failed to update storage usage: %v", err)
			rec.PublicURL = ""
			out = append(out, rec)
			continue
		}

		log.Printf("[%s] Recorded pre-uploaded asset: path=%s", runID, rec.RelativePath)
		out = append(out, rec)
	}
	return out
}
