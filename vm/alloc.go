package vm

import (
	"errors"
	"sync"
)

// ErrOutOfMemory is returned by constructors when the allocator refuses
// an allocation. Callers fail the single operation and propagate; only
// class-table bootstrap treats it as unrecoverable.
var ErrOutOfMemory = errors.New("out of memory")

// AllocStats is a point-in-time view of allocator usage.
type AllocStats struct {
	Limit int // configured ceiling in bytes, 0 = unlimited
	Used  int // bytes currently charged
	Peak  int // high-water mark
	Live  int // number of live blocks
}

// Allocator is the accounting interface every heap-allocated core entity
// goes through: instances, procs, call frames, handler frames, containers.
// It does not hand out memory (Go's allocator does that); it enforces the
// embedded target's budget and provides the usage accounting the lifetime
// tests verify against.
type Allocator interface {
	Alloc(size int) error
	Free(size int)
	Stats() AllocStats
}

// Approximate per-entity charges, in bytes. The exact numbers only need
// to be stable: leak detection compares usage before and after, not
// absolute values.
const (
	instanceSize = 48
	procSize     = 64
	callinfoSize = 48
	handlerSize  = 40
	arrayBase    = 32
	stringBase   = 24
	rangeSize    = 40
	hashBase     = 32
	valueSize    = 16
)

// CountingAllocator is the default Allocator: a mutex-guarded byte
// counter with an optional limit.
type CountingAllocator struct {
	mu    sync.Mutex
	limit int
	used  int
	peak  int
	live  int
}

// NewCountingAllocator creates an allocator with the given byte limit.
// A limit of 0 means unlimited.
func NewCountingAllocator(limit int) *CountingAllocator {
	return &CountingAllocator{limit: limit}
}

// Alloc charges size bytes, or returns ErrOutOfMemory if the limit would
// be exceeded.
func (a *CountingAllocator) Alloc(size int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limit > 0 && a.used+size > a.limit {
		return ErrOutOfMemory
	}
	a.used += size
	a.live++
	if a.used > a.peak {
		a.peak = a.used
	}
	return nil
}

// Free returns size bytes to the budget.
func (a *CountingAllocator) Free(size int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.used -= size
	a.live--
	if a.used < 0 {
		// Accounting bug; clamp rather than wedge the VM.
		a.used = 0
	}
	if a.live < 0 {
		a.live = 0
	}
}

// Stats returns the current usage snapshot.
func (a *CountingAllocator) Stats() AllocStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AllocStats{Limit: a.limit, Used: a.used, Peak: a.peak, Live: a.live}
}
