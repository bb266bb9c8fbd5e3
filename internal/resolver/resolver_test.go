package resolver

import (
	"strings"
	"testing"

	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

func testAssetMap() AssetKeyMap {
	return BuildAssetKeyMap([]importjob.AssetRecord{
		{RelativePath: "assets/diagram.png", PublicURL: "https://cdn.example.com/u1/diagram.png"},
		{RelativePath: "images/my pic.png", PublicURL: "https://cdn.example.com/u1/my-pic.png"},
		{RelativePath: "broken.png", Error: "storage quota exceeded"},
	})
}

func TestResolveImageByRelativePath(t *testing.T) {
	out := Resolve("![diagram](assets/diagram.png)", testAssetMap(), nil)
	want := "![diagram](https://cdn.example.com/u1/diagram.png)"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestResolveImageByBasename(t *testing.T) {
	out := Resolve("![d](diagram.png)", testAssetMap(), nil)
	if !strings.Contains(out, "https://cdn.example.com/u1/diagram.png") {
		t.Fatalf("basename lookup failed: %q", out)
	}
}

func TestResolveImageURLEncoded(t *testing.T) {
	out := Resolve("![p](my%20pic.png)", testAssetMap(), nil)
	if !strings.Contains(out, "https://cdn.example.com/u1/my-pic.png") {
		t.Fatalf("URL-decoded lookup failed: %q", out)
	}
}

func TestResolveImageAngleBrackets(t *testing.T) {
	out := Resolve("![d](<assets/diagram.png>)", testAssetMap(), nil)
	if !strings.Contains(out, "https://cdn.example.com/u1/diagram.png") {
		t.Fatalf("angle-bracket lookup failed: %q", out)
	}
}

func TestResolveEmbedNormalization(t *testing.T) {
	out := Resolve("![[diagram.png]]", testAssetMap(), nil)
	want := "![diagram.png](https://cdn.example.com/u1/diagram.png)"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestUnresolvedImageUnchanged(t *testing.T) {
	in := "before ![x](missing.png) after"
	out := Resolve(in, testAssetMap(), nil)
	if out != in {
		t.Fatalf("unresolved reference was modified: %q", out)
	}
}

func TestFailedAssetContributesNoKeys(t *testing.T) {
	in := "![b](broken.png)"
	out := Resolve(in, testAssetMap(), nil)
	if out != in {
		t.Fatalf("failed asset resolved: %q", out)
	}
}

func TestResolvePageLink(t *testing.T) {
	pagesMap := PageTitleMap{
		"Welcome": {ID: "p-1", Title: "Welcome"},
	}

	out := Resolve("see [[Welcome]]", nil, pagesMap)
	want := "see [Welcome](/pages/p-1)"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestResolvePageLinkAlias(t *testing.T) {
	pagesMap := PageTitleMap{
		"Welcome": {ID: "p-1", Title: "Welcome"},
	}

	out := Resolve("see [[Welcome|the intro]]", nil, pagesMap)
	want := "see [the intro](/pages/p-1)"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestResolvePageLinkTrimsTitle(t *testing.T) {
	pagesMap := PageTitleMap{
		"Welcome": {ID: "p-1", Title: "Welcome"},
	}

	out := Resolve("[[ Welcome ]]", nil, pagesMap)
	if !strings.Contains(out, "/pages/p-1") {
		t.Fatalf("trimmed title lookup failed: %q", out)
	}
}

func TestUnresolvedPageLinkUnchanged(t *testing.T) {
	in := "see [[Nowhere]]"
	out := Resolve(in, nil, PageTitleMap{"Welcome": {ID: "p-1"}})
	if out != in {
		t.Fatalf("unresolved link was modified: %q", out)
	}
}

func TestResolveIdempotent(t *testing.T) {
	assets := testAssetMap()
	pagesMap := PageTitleMap{
		"Welcome": {ID: "p-1", Title: "Welcome"},
	}

	in := "![[diagram.png]]\n[[Welcome|intro]]\n![x](missing.png)\n[[Nowhere]]\n"
	once := Resolve(in, assets, pagesMap)
	twice := Resolve(once, assets, pagesMap)
	if once != twice {
		t.Fatalf("resolution not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestCandidateKeysOrder(t *testing.T) {
	keys := CandidateKeys("<images/my%20pic.png>")

	// Raw spelling first, decoded and stripped variants after, basenames last
	if keys[0] != "<images/my%20pic.png>" {
		t.Fatalf("first candidate should be the raw reference, got %q", keys[0])
	}

	found := map[string]bool{}
	for _, k := range keys {
		found[k] = true
	}
	for _, want := range []string{"images/my%20pic.png", "images/my pic.png", "my pic.png"} {
		if !found[want] {
			t.Fatalf("missing candidate %q in %v", want, keys)
		}
	}
}
