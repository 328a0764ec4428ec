package cache

import (
	"sync"
	"time"
)

// TTL holds a single value together with the time it was fetched. It is
// owned by exactly one component; writers invalidate it explicitly.
type TTL[T any] struct {
	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool
	gen       uint64
	ttl       time.Duration
	now       func() time.Time
}

// NewTTL creates an empty cache. A zero or negative ttl disables caching.
func NewTTL[T any](ttl time.Duration, now func() time.Time) *TTL[T] {
	if now == nil {
		now = time.Now
	}
	return &TTL[T]{ttl: ttl, now: now}
}

// Get returns the cached value when it is still fresh.
func (c *TTL[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if !c.valid || c.ttl <= 0 {
		return zero, false
	}
	if c.now().Sub(c.fetchedAt) >= c.ttl {
		return zero, false
	}
	return c.value, true
}

// Set stores value and stamps it with the current time.
func (c *TTL[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store(value)
}

// Generation changes on every Set and Invalidate.
func (c *TTL[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration stores value only when nothing was stored or invalidated
// since gen was observed. It reports whether value was stored.
func (c *TTL[T]) SetIfGeneration(value T, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.store(value)
	return true
}

func (c *TTL[T]) store(value T) {
	c.value = value
	c.fetchedAt = c.now()
	c.valid = true
	c.gen++
}

// Invalidate drops the cached value.
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.valid = false
	c.fetchedAt = time.Time{}
	c.gen++
}

// FetchedAt returns when the current value was stored; zero when empty.
func (c *TTL[T]) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}
