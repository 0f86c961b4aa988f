package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"hotelcare/internal/blob/blobtest"
	"hotelcare/internal/blob/core"
)

func TestStoreContract(t *testing.T) {
	blobtest.RunContract(t, New())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStore_PutReadErrorAndDriver(t *testing.T) {
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if _, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestStore_MetadataIsCopied(t *testing.T) {
	store := New()
	ctx := context.Background()
	md := map[string]string{"version": "1"}
	if _, err := store.Put(ctx, "k", readerOf("v"), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["version"] = "mutated"
	info, err := store.Head(ctx, "k")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.Metadata["version"] != "1" {
		t.Fatalf("metadata aliased caller map: %+v", info.Metadata)
	}
	info.Metadata["version"] = "again"
	again, _ := store.Head(ctx, "k")
	if again.Metadata["version"] != "1" {
		t.Fatalf("metadata aliased returned map: %+v", again.Metadata)
	}
}

func readerOf(s string) io.Reader { return strings.NewReader(s) }
