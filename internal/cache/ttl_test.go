package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestTTL_ExpiresAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTL[[]string](time.Minute, clock.Now)

	if _, ok := c.Get(); ok {
		t.Fatal("expected empty cache miss")
	}

	c.Set([]string{"a"})
	if got, ok := c.Get(); !ok || len(got) != 1 {
		t.Fatalf("expected hit, got %v %v", got, ok)
	}

	clock.Advance(59 * time.Second)
	if _, ok := c.Get(); !ok {
		t.Fatal("expected hit before ttl elapsed")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(); ok {
		t.Fatal("expected miss once ttl elapsed")
	}
}

func TestTTL_Invalidate(t *testing.T) {
	c := NewTTL[int](time.Hour, nil)
	c.Set(42)
	c.Invalidate()

	if _, ok := c.Get(); ok {
		t.Fatal("expected miss after Invalidate")
	}
	if !c.FetchedAt().IsZero() {
		t.Fatal("expected FetchedAt reset after Invalidate")
	}
}

func TestTTL_DisabledWithZeroTTL(t *testing.T) {
	c := NewTTL[int](0, nil)
	c.Set(1)
	if _, ok := c.Get(); ok {
		t.Fatal("zero ttl must never hit")
	}
}

func TestTTL_SetIfGenerationRejectsStaleValue(t *testing.T) {
	c := NewTTL[int](time.Hour, nil)
	gen := c.Generation()

	c.Invalidate()
	if c.SetIfGeneration(1, gen) {
		t.Fatal("value read before Invalidate must not be stored")
	}
	if _, ok := c.Get(); ok {
		t.Fatal("expected miss")
	}

	gen = c.Generation()
	if !c.SetIfGeneration(2, gen) {
		t.Fatal("expected store with current generation")
	}
	if got, ok := c.Get(); !ok || got != 2 {
		t.Fatalf("Get=%v, %v", got, ok)
	}
	if c.SetIfGeneration(3, gen) {
		t.Fatal("generation must advance on store")
	}
}
