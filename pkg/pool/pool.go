// Package pool provides typed object pooling for hot-path allocations.
package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// Pool is a type-safe wrapper around sync.Pool with an optional reset hook
// applied before an object is returned for reuse. Safe for concurrent use.
type Pool[T any] struct {
	pool      sync.Pool
	reset     func(T)
	allocated int64
}

// New creates a pool backed by the given factory. The reset function, when
// non-nil, runs on every Put before the object re-enters the pool.
func New[T any](factory func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.allocated, 1)
		return factory()
	}
	return p
}

// Get retrieves an object, allocating through the factory when the pool is
// empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns an object for reuse
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}

// Allocated returns the number of objects the factory has created
func (p *Pool[T]) Allocated() int64 {
	return atomic.LoadInt64(&p.allocated)
}

// Shared buffer pool for encoders and formatters
var buffers = New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
)

// GetBuffer retrieves a reset buffer from the shared pool
func GetBuffer() *bytes.Buffer {
	return buffers.Get()
}

// PutBuffer returns a buffer to the shared pool
func PutBuffer(b *bytes.Buffer) {
	buffers.Put(b)
}
