package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemStorePutAndExists(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}

	key := "imports/u1/job-1/diagram.png"
	confirmed, err := store.Put(context.Background(), key, []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !confirmed {
		t.Fatal("Put did not confirm write")
	}

	data, err := os.ReadFile(filepath.Join(store.BaseDir(), filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("stored content = %q", data)
	}

	exists, err := store.Exists(context.Background(), key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("stored key reported missing")
	}

	exists, err = store.Exists(context.Background(), "imports/u1/job-1/other.png")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("missing key reported present")
	}
}

func TestFilesystemStoreRejectsTraversal(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}

	if _, err := store.Put(context.Background(), "../../etc/passwd", []byte("x"), "text/plain"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestFilesystemStorePublicURL(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}

	got := store.PublicURL("imports/u1/job-1/a.png")
	want := "http://localhost:8080/files/imports/u1/job-1/a.png"
	if got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}
