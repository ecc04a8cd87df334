// Package chunk provides pooled fixed-capacity buffers of 32bit words for
// trace recording.
package chunk

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/yuuki0xff/ctrace/info"
)

var totalMemory uint64

// TotalMemoryConsumption returns the number of bytes currently allocated
// for trace chunks across the whole process. Buffers returned to a pool
// still count; only buffers released to the heap are subtracted.
func TotalMemoryConsumption() uint64 {
	return atomic.LoadUint64(&totalMemory)
}

// Chunk is an owning handle to a buffer of 32bit words. It keeps a
// non-owning reference to the allocator that produced it: on Release the
// buffer goes back to the pool if the allocator is still open, otherwise
// it is dropped and the process-wide counter is decremented.
//
// A chunk is owned by exactly one thread; none of its methods synchronize.
type Chunk struct {
	data  []uint32
	size  int
	alloc *Allocator
}

// Data returns the full backing buffer. Only Data()[:Size()] holds
// recorded words.
func (c *Chunk) Data() []uint32 { return c.data }

func (c *Chunk) Size() int     { return c.size }
func (c *Chunk) Capacity() int { return len(c.data) }

// SetSize updates the number of valid words. Called by the recorder when
// it switches away from a chunk or snapshots the scope.
func (c *Chunk) SetSize(words int) {
	if words < 0 || words > len(c.data) {
		log.Panicf("ctrace: corrupted chunk: size=%d capacity=%d", words, len(c.data))
	}
	c.size = words
}

// Release gives the buffer back. Safe to call on an empty chunk.
func (c *Chunk) Release() {
	if c.data == nil {
		return
	}
	if c.alloc != nil && !c.alloc.closed() {
		c.alloc.free(c.data)
	} else {
		atomic.AddUint64(&totalMemory, ^uint64(len(c.data)*4-1))
	}
	c.data = nil
	c.size = 0
	c.alloc = nil
}

// Allocator is a pooled allocator for trace chunks. The chunk size is
// fixed for the allocator's lifetime, so every buffer on the free list has
// the same capacity.
//
// Allocator is thread-safe: the free list is guarded by a mutex and true
// allocation happens outside of it.
type Allocator struct {
	chunkSize int

	mu       sync.Mutex
	freeList [][]uint32
	isClosed bool
}

// NewAllocator creates an allocator producing chunks of chunkSize words.
func NewAllocator(chunkSize int) *Allocator {
	if chunkSize <= 100+recordMargin {
		log.Panicf("ctrace: chunk size too small: %d words", chunkSize)
	}
	return &Allocator{
		chunkSize: chunkSize,
	}
}

// recordMargin is the maximum record size in words. Chunks must leave this
// much room after the end cursor so the largest record never overruns.
const recordMargin = 9

var (
	globalOnce  sync.Once
	globalAlloc *Allocator
)

// Global returns the lazily constructed process-wide default allocator.
func Global() *Allocator {
	globalOnce.Do(func() {
		globalAlloc = NewAllocator(info.DefaultChunkSize)
	})
	return globalAlloc
}

// ChunkSize returns the configured chunk size in words.
func (a *Allocator) ChunkSize() int { return a.chunkSize }

// Allocate returns an owned chunk backed by a recycled buffer if one is
// available, or by a fresh allocation. The outstanding-memory counter is
// incremented only on true allocation, never on reuse.
func (a *Allocator) Allocate() *Chunk {
	var data []uint32

	a.mu.Lock()
	if n := len(a.freeList); n > 0 {
		data = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	}
	a.mu.Unlock()

	if data == nil {
		data = make([]uint32, a.chunkSize)
		atomic.AddUint64(&totalMemory, uint64(a.chunkSize*4))
	}
	return &Chunk{
		data:  data,
		alloc: a,
	}
}

// Close empties the pool and detaches the allocator from its live chunks:
// buffers released after Close go to the heap instead of the free list.
func (a *Allocator) Close() {
	a.mu.Lock()
	freed := len(a.freeList)
	a.freeList = nil
	a.isClosed = true
	a.mu.Unlock()

	if freed > 0 {
		atomic.AddUint64(&totalMemory, ^uint64(freed*a.chunkSize*4-1))
	}
}

func (a *Allocator) free(data []uint32) {
	a.mu.Lock()
	if a.isClosed {
		a.mu.Unlock()
		atomic.AddUint64(&totalMemory, ^uint64(len(data)*4-1))
		return
	}
	a.freeList = append(a.freeList, data)
	a.mu.Unlock()
}

func (a *Allocator) closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isClosed
}
