package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotelcare/internal/blob/blobtest"
	"hotelcare/internal/blob/core"
)

func TestStoreContract(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	blobtest.RunContract(t, store)
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "   ", "../escape", "/abs", "a/../../b"} {
		if _, err := cleanKey(key); err == nil {
			t.Fatalf("expected error for %q", key)
		}
	}
	if _, err := cleanKey("users/u1/doc.json.meta"); err == nil {
		t.Fatalf("expected sidecar suffix to be reserved")
	}
	if got, err := cleanKey("users/u1//doc.json"); err != nil || got != "users/u1/doc.json" {
		t.Fatalf("unexpected clean key %q %v", got, err)
	}
}

func TestPutKeepsCreatedAtAcrossOverwrite(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "doc.json", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	first, err := readSidecar(filepath.Join(root, "doc.json.meta"))
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if _, err := store.Put(ctx, "doc.json", strings.NewReader("bb"), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	second, err := readSidecar(filepath.Join(root, "doc.json.meta"))
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) || second.Size != 2 {
		t.Fatalf("unexpected metadata after overwrite: %+v", second)
	}
	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestHeadCorruptMeta(t *testing.T) {
	root := t.TempDir()
	store, _ := New(root)
	if err := os.WriteFile(filepath.Join(root, "bad.meta"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Head(context.Background(), "bad"); err == nil {
		t.Fatalf("expected decode error")
	}
	if store.Driver() != core.DriverFilesystem || store.Root() != root {
		t.Fatalf("unexpected driver/root")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestFailedPutKeepsPreviousBlob(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "users/u1/doc.json", strings.NewReader("old"), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "users/u1/doc.json", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected failed reader to abort the put")
	}
	info, rc, err := store.Get(ctx, "users/u1/doc.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "old" || info.Size != 3 || info.ContentType != "application/json" {
		t.Fatalf("previous blob not preserved: %q %+v", body, info)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "users", "u1"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
	listed, err := store.List(ctx, "users/")
	if err != nil || len(listed) != 1 || listed[0].Key != "users/u1/doc.json" {
		t.Fatalf("unexpected listing %+v %v", listed, err)
	}
}
