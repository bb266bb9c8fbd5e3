package resolver

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// AssetKeyMap maps every plausible reference spelling of an uploaded asset
// (literal filename, relative path, URL-encoded variants, basename variants)
// to its durable public URL. Built once per job, read-only afterwards.
type AssetKeyMap map[string]string

// PageRef identifies a created or pre-existing page by id and title
type PageRef struct {
	ID    string
	Title string
}

// PageTitleMap maps a page title to its identity. The materializer grows it
// incrementally as pages are created, so later files in a batch can link to
// earlier ones.
type PageTitleMap map[string]PageRef

var (
	embedRe = regexp.MustCompile(`!\[\[([^\[\]]+)\]\]`)
	imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^()]+)\)`)
	linkRe  = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`)
)

// BuildAssetKeyMap expands successful AssetRecords into a lookup map keyed by
// every spelling CandidateKeys can produce for the asset's relative path.
// Failed records contribute nothing.
func BuildAssetKeyMap(records []importjob.AssetRecord) AssetKeyMap {
	m := make(AssetKeyMap)
	for _, rec := range records {
		if rec.PublicURL == "" {
			continue
		}
		for _, key := range CandidateKeys(rec.RelativePath) {
			if _, ok := m[key]; !ok {
				m[key] = rec.PublicURL
			}
		}
		// Encoded spelling of the stored path, so a reference written the
		// way markdown editors escape spaces still matches.
		escaped := (&url.URL{Path: rec.RelativePath}).EscapedPath()
		if _, ok := m[escaped]; !ok {
			m[escaped] = rec.PublicURL
		}
	}
	return m
}

// CandidateKeys returns the ordered lookup spellings for a reference: the raw
// form, its URL-decoded form, the form with angle brackets stripped, and the
// basename of each. Duplicates are removed, order preserved.
func CandidateKeys(ref string) []string {
	ref = strings.TrimSpace(ref)

	variants := []string{ref}
	if decoded, err := url.PathUnescape(ref); err == nil && decoded != ref {
		variants = append(variants, decoded)
	}
	if stripped := strings.TrimSuffix(strings.TrimPrefix(ref, "<"), ">"); stripped != ref {
		variants = append(variants, stripped)
		if decoded, err := url.PathUnescape(stripped); err == nil && decoded != stripped {
			variants = append(variants, decoded)
		}
	}

	keys := make([]string, 0, len(variants)*2)
	seen := make(map[string]struct{})
	add := func(k string) {
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	for _, v := range variants {
		add(v)
	}
	for _, v := range variants {
		add(path.Base(v))
	}
	return keys
}

// Resolve rewrites embedded image references and intra-bundle page links in a
// markdown document. Pure: the same inputs always produce the same output,
// and references that match neither map are left byte-for-byte unchanged.
// Re-running Resolve on its own output is a no-op.
func Resolve(markdown string, assets AssetKeyMap, pages PageTitleMap) string {
	out := normalizeEmbeds(markdown)
	out = resolveImages(out, assets)
	out = resolvePageLinks(out, pages)
	return out
}

// normalizeEmbeds turns ![[name]] embeds into standard ![name](name) image
// syntax so the image pass only has one dialect to handle.
func normalizeEmbeds(markdown string) string {
	return embedRe.ReplaceAllStringFunc(markdown, func(match string) string {
		name := embedRe.FindStringSubmatch(match)[1]
		return fmt.Sprintf("![%s](%s)", name, name)
	})
}

func resolveImages(markdown string, assets AssetKeyMap) string {
	if len(assets) == 0 {
		return markdown
	}
	return imageRe.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := imageRe.FindStringSubmatch(match)
		alt, src := parts[1], parts[2]
		// Absolute URLs are already resolved (or external); matching one of
		// them by basename would rewrite a reference that isn't ours.
		if strings.Contains(src, "://") {
			return match
		}
		for _, key := range CandidateKeys(src) {
			if publicURL, ok := assets[key]; ok {
				return fmt.Sprintf("![%s](%s)", alt, publicURL)
			}
		}
		return match
	})
}

func resolvePageLinks(markdown string, pages PageTitleMap) string {
	if len(pages) == 0 {
		return markdown
	}
	return linkRe.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := linkRe.FindStringSubmatch(match)
		title := strings.TrimSpace(parts[1])
		ref, ok := pages[title]
		if !ok {
			return match
		}
		display := title
		if parts[2] != "" {
			display = strings.TrimSpace(parts[2])
		}
		return fmt.Sprintf("[%s](/pages/%s)", display, ref.ID)
	})
}
