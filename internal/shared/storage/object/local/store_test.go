package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveOpenDelete(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "case:case-1", "letters.pdf", bytes.NewReader([]byte("%PDF-1.4 test")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("%PDF-1.4 test")) {
		t.Fatalf("unexpected size %d", size)
	}
	if mimeType != "application/pdf" {
		t.Fatalf("unexpected mime type %s", mimeType)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "%PDF-1.4 test" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, key)); !os.IsNotExist(err) {
		t.Fatalf("expected object removed, stat err=%v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestDeleteRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Delete(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
