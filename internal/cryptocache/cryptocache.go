// Package cryptocache implements a process-lifetime cache keyed by
// (key identity, algorithm) pair, whose values are built once and then
// reused, and a typed Pool for per-operation engines. It is a standalone
// building block: no other package of this module imports it, so the
// signers, verifiers and key wrappers of the jws, jwe and jwt packages are
// not cached and pool nothing.
package cryptocache

import "sync"

// Key is the cache lookup key: a Jwk's reference identity paired with a
// packed algorithm id. Two Keys with identical material but distinct Jwk
// instances are distinct cache entries, matching Jwk's reference-identity
// equality.
type Key struct {
	Identity any // always a pointer type; comparable by address
	Alg      uint32
}

// PackAlg combines an encryption algorithm id and a key-management
// algorithm id into the single id a key-wrapper/encryptor cache entry is
// keyed by.
func PackAlg(encID, kwID uint16) uint32 {
	return uint32(encID)<<16 | uint32(kwID)
}

// Cache maps Key to a long-lived value of type V, built lazily by
// GetOrCreate. Safe for concurrent use; entries are never evicted except
// via Delete.
type Cache[V any] struct {
	m sync.Map // Key -> V
}

// GetOrCreate returns the cached value for key, constructing it with
// create if absent. When two goroutines race to construct the same key,
// both constructed values exist momentarily but only one is installed;
// the loser's value is passed to dispose (if non-nil) instead of being
// returned to the caller — the last-writer-loses rule the cache
// implements.
func (c *Cache[V]) GetOrCreate(key Key, create func() V, dispose func(V)) V {
	if v, ok := c.m.Load(key); ok {
		return v.(V)
	}
	fresh := create()
	actual, loaded := c.m.LoadOrStore(key, fresh)
	if loaded {
		if dispose != nil {
			dispose(fresh)
		}
		return actual.(V)
	}
	return fresh
}

// Delete removes key from the cache, if present.
func (c *Cache[V]) Delete(key Key) {
	c.m.Delete(key)
}

// Range calls f for every entry currently in the cache. Used to dispose
// all entries when the cache owner itself is disposed.
func (c *Cache[V]) Range(f func(key Key, value V) bool) {
	c.m.Range(func(k, v any) bool {
		return f(k.(Key), v.(V))
	})
}

// Pool is a typed wrapper over sync.Pool for the thread-unsafe primitive
// engines (RSA/ECDSA handles) a Signer/Verifier/KeyWrapper checks out for
// the duration of one operation and returns on every exit path.
type Pool[E any] struct {
	p sync.Pool
}

// NewPool returns a Pool whose elements are constructed by new when the
// pool is empty.
func NewPool[E any](new func() E) *Pool[E] {
	return &Pool[E]{
		p: sync.Pool{
			New: func() any { return new() },
		},
	}
}

// Acquire removes an engine from the pool (constructing one if empty).
func (p *Pool[E]) Acquire() E {
	return p.p.Get().(E)
}

// Release returns an engine to the pool for reuse.
func (p *Pool[E]) Release(e E) {
	p.p.Put(e)
}
