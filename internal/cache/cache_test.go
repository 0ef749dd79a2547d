package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Put("asin:B000TEST", "https://example.com/gp/aod/ajax?asin=B000TEST", time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got string
	if !c.Get("asin:B000TEST", &got) {
		t.Fatal("Get returned miss for stored key")
	}
	if got != "https://example.com/gp/aod/ajax?asin=B000TEST" {
		t.Errorf("got %q", got)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Put("k", "v", time.Nanosecond); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got string
	if c.Get("k", &got) {
		t.Error("expired entry should be a miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c1, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c1.Put("k", 42, 0); err != nil {
		t.Fatalf("Put: %v", err)
	}

	c2, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	var got int
	if !c2.Get("k", &got) || got != 42 {
		t.Errorf("reloaded cache: got %d, want 42", got)
	}
}

func TestCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := writeFile(path, "{not json"); err != nil {
		t.Fatal(err)
	}
	c, err := New(path)
	if err != nil {
		t.Fatalf("New should tolerate corrupt file: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("corrupt cache should start empty, len=%d", c.Len())
	}
}
