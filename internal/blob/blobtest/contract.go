// Package blobtest holds the behavioural checks every blob backend must pass.
package blobtest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"hotelcare/internal/blob/core"
)

// RunContract exercises put/overwrite/get/head/list/delete against store.
func RunContract(t *testing.T, store core.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Head(ctx, "users/missing/doc.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head missing: expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "users/missing/doc.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get missing: expected ErrNotFound, got %v", err)
	}
	if ok, err := store.Delete(ctx, "users/missing/doc.json"); err != nil || ok {
		t.Fatalf("delete missing: ok=%v err=%v", ok, err)
	}

	info, err := store.Put(ctx, "users/u1/doc.json", bytes.NewReader([]byte(`{"v":1}`)), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"version": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "users/u1/doc.json" || info.Size != 7 {
		t.Fatalf("unexpected put info: %+v", info)
	}

	if _, err := store.Put(ctx, "users/u1/doc.json", bytes.NewReader([]byte(`{"v":22}`)), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"version": "2"},
	}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	head, err := store.Head(ctx, "users/u1/doc.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Metadata["version"] != "2" {
		t.Fatalf("expected overwritten metadata, got %+v", head.Metadata)
	}
	got, rc, err := store.Get(ctx, "users/u1/doc.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"v":22}` || got.ContentType != "application/json" {
		t.Fatalf("unexpected get: %s %+v", body, got)
	}

	if _, err := store.Put(ctx, "users/u2/doc.json", bytes.NewReader([]byte(`{}`)), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "users/")
	if err != nil || len(list) != 2 || list[0].Key != "users/u1/doc.json" {
		t.Fatalf("list: %v %+v", err, list)
	}
	if list, err := store.List(ctx, "users/u2"); err != nil || len(list) != 1 {
		t.Fatalf("list prefix: %v %+v", err, list)
	}

	if ok, err := store.Delete(ctx, "users/u1/doc.json"); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if _, err := store.Head(ctx, "users/u1/doc.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted blob to be gone, got %v", err)
	}
}
