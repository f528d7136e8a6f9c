package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Set("a", "value")
	got, ok := c.Get("a")
	if !ok || got != "value" {
		t.Errorf("Get(a) = %q, %v; want value, true", got, ok)
	}
}

func TestExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after expired Get, want 0", c.Size())
	}
}

func TestEviction(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
	if _, ok := c.Get("k0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("newest entry should survive")
	}
}

func TestEvictionRespectsRecency(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now the most recent
	c.Set("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should have been evicted")
	}
}

func TestDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a") // deleting again is fine

	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry should miss")
	}
}

func TestDeleteFunc(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("1/2026-01", 1)
	c.Set("1/2026-02", 2)
	c.Set("2/2026-01", 3)

	n := c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "1/")
	})
	if n != 2 {
		t.Errorf("DeleteFunc removed %d entries, want 2", n)
	}
	if _, ok := c.Get("2/2026-01"); !ok {
		t.Error("non-matching entry should survive")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
