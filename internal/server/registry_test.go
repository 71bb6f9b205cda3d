package server

import (
	"testing"
	"time"
)

func TestRegistry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var evicted []string
	reg := NewRegistry(func(v string) { evicted = append(evicted, v) })
	reg.now = func() time.Time { return now }

	reg.Put("a", "alice", "game a")
	reg.Put("b", "bob", "game b")

	if _, ok := reg.Get("a", "bob"); ok {
		t.Fatal("another owner must not see the entry")
	}
	if v, ok := reg.Get("a", "alice"); !ok || v != "game a" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	now = now.Add(30 * time.Minute)
	reg.Get("a", "alice")
	now = now.Add(45 * time.Minute)

	if n := reg.Reap(time.Hour); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if len(evicted) != 1 || evicted[0] != "game b" {
		t.Fatalf("evicted = %v", evicted)
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d, want 1", reg.Len())
	}

	reg.Remove("a")
	if reg.Len() != 0 || len(evicted) != 2 {
		t.Fatalf("remove did not evict: len %d, evicted %v", reg.Len(), evicted)
	}
}
