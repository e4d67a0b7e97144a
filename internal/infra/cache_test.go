package infra

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("Get() miss for present key")
	}
	if v.(int) != 42 {
		t.Errorf("Get() = %v, want 42", v)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get() hit for absent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Get() hit for expired key")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after expiry purge, want 0", c.Len())
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("k", 1)
	c.Set("k", 2)
	v, _ := c.Get("k")
	if v.(int) != 2 {
		t.Errorf("Get() = %v after overwrite, want 2", v)
	}
}
