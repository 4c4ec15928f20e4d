package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](4, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported a hit")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry was evicted")
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRU[string](4, 10*time.Millisecond)

	c.Set("user-a", "summary")
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("user-a"); ok {
		t.Error("expired entry returned as hit")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after expiry access, want 0", c.Size())
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[int](4, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a") // deleting an absent key is harmless

	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry returned as hit")
	}
}

func TestLRUSetOverwrite(t *testing.T) {
	c := NewLRU[int](4, time.Minute)

	c.Set("a", 1)
	c.Set("a", 2)

	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRU[int](8, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(25 * time.Millisecond)
	c.Set("c", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("fresh entry removed by sweep")
	}
}

func TestManagerSweep(t *testing.T) {
	c := NewLRU[int](8, 5*time.Millisecond)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(10 * time.Millisecond)
	defer m.Stop()

	c.Set("a", 1)
	time.Sleep(40 * time.Millisecond)

	if c.Size() != 0 {
		t.Errorf("Size() = %d after sweep interval, want 0", c.Size())
	}
}
