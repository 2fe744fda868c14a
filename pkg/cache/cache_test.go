package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCache_SetGet(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k1", []byte("hello"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || string(data) != "hello" {
		t.Errorf("Get() = %q, %v; want hello, true", data, ok)
	}
}

func TestFileCache_Miss(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() on absent key reported a hit")
	}
}

func TestFileCache_Expiration(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	_, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("expired entry reported a hit")
	}
}

func TestFileCache_Delete(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("deleted key reported a hit")
	}
	// Deleting an absent key is not an error.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() on absent key error = %v", err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)
	if err := c.(*FileCache).Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("cleared key reported a hit")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("null cache reported a hit")
	}
}

func TestDefaultKeyer_Deterministic(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.TreeKey("abc", TreeKeyOpts{Linkage: "average"})
	b := k.TreeKey("abc", TreeKeyOpts{Linkage: "average"})
	if a != b {
		t.Error("identical inputs produced different keys")
	}
	if c := k.TreeKey("abc", TreeKeyOpts{Linkage: "single"}); c == a {
		t.Error("different options produced the same key")
	}
	if !strings.HasPrefix(a, "tree:") {
		t.Errorf("TreeKey = %q, want tree: prefix", a)
	}
}

func TestKeyer_StagePrefixesDistinct(t *testing.T) {
	k := NewDefaultKeyer()
	p := k.PlacementKey("h", PlacementKeyOpts{Unit: 1})
	a := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if strings.SplitN(p, ":", 2)[0] == strings.SplitN(a, ":", 2)[0] {
		t.Error("placement and artifact keys share a prefix")
	}
}

func TestScopedKeyer(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "run:42:")

	got := scoped.TreeKey("abc", TreeKeyOpts{Linkage: "average"})
	want := "run:42:" + base.TreeKey("abc", TreeKeyOpts{Linkage: "average"})
	if got != want {
		t.Errorf("scoped key = %q, want %q", got, want)
	}
}

func TestHash_Stable(t *testing.T) {
	if Hash([]byte("x")) != Hash([]byte("x")) {
		t.Error("Hash is not stable")
	}
	if len(Hash([]byte("x"))) != 64 {
		t.Errorf("Hash length = %d, want 64", len(Hash([]byte("x"))))
	}
}
