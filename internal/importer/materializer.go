package importer

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/tendant/markdown-import-pipeline/internal/converter"
	"github.com/tendant/markdown-import-pipeline/internal/pages"
	"github.com/tendant/markdown-import-pipeline/internal/resolver"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// Converter turns resolved markdown into a structured document
type Converter interface {
	Convert(markdown string) (converter.Document, error)
}

// Materializer creates pages from markdown files strictly one at a time, in
// input order. Each created page is added to the title map before the next
// file is processed, so later files can link to earlier ones. That ordering
// is the contract, not an optimization.
type Materializer struct {
	converter   Converter
	creator     pages.Creator
	callTimeout time.Duration
}

// NewMaterializer creates a page materializer.
// callTimeout bounds each external call; zero means the default of 30s.
func NewMaterializer(conv Converter, creator pages.Creator, callTimeout time.Duration) *Materializer {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Materializer{
		converter:   conv,
		creator:     creator,
		callTimeout: callTimeout,
	}
}

// MaterializePages processes the markdown files in the given order and
// returns exactly one FileOutcome per file. seedTitles holds the user's
// pre-existing pages; it is copied, never mutated. A failed file records its
// error and the batch continues.
func (m *Materializer) MaterializePages(
	ctx context.Context,
	runID string,
	userID string,
	files []importjob.FileDescriptor,
	assets resolver.AssetKeyMap,
	seedTitles resolver.PageTitleMap,
) []importjob.FileOutcome {
	titles := make(resolver.PageTitleMap, len(seedTitles))
	for k, v := range seedTitles {
		titles[k] = v
	}

	outcomes := make([]importjob.FileOutcome, 0, len(files))
	for _, file := range files {
		outcome := m.materializeOne(ctx, runID, userID, file, assets, titles)
		if outcome.Error != "" {
			log.Printf("[%s] Page creation failed: file=%s err=%s", runID, file.Name, outcome.Error)
		} else {
			log.Printf("[%s] Page created: file=%s page_id=%s", runID, file.Name, outcome.PageID)
			title := TitleFromFilename(file.Name)
			titles[title] = resolver.PageRef{ID: outcome.PageID, Title: title}
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (m *Materializer) materializeOne(
	ctx context.Context,
	runID string,
	userID string,
	file importjob.FileDescriptor,
	assets resolver.AssetKeyMap,
	titles resolver.PageTitleMap,
) importjob.FileOutcome {
	outcome := importjob.FileOutcome{Name: file.Name}
	title := TitleFromFilename(file.Name)

	resolved := resolver.Resolve(string(file.Content), assets, titles)

	doc, err := m.converter.Convert(resolved)
	if err != nil {
		outcome.Error = fmt.Sprintf("conversion failed: %v", err)
		return outcome
	}

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	page, err := m.creator.CreatePage(callCtx, pages.CreateRequest{
		Title:       title,
		Content:     string(doc.HTML),
		ContentType: doc.ContentType,
		UserID:      userID,
	})
	if err != nil {
		outcome.Error = fmt.Sprintf("page creation failed: %v", err)
		return outcome
	}

	outcome.PageID = page.ID
	return outcome
}

// TitleFromFilename derives a page title from a file name by stripping the
// extension.
func TitleFromFilename(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
