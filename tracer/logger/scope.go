package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/yuuki0xff/ctrace/info"
	"github.com/yuuki0xff/ctrace/tracer/chunk"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

// warnOut receives alloc-threshold diagnostics. Swapped out in tests.
var warnOut io.Writer = os.Stderr

func warnf(format string, args ...interface{}) {
	fmt.Fprintf(warnOut, format, args...)
}

func panicf(format string, args ...interface{}) {
	log.Panicf("ctrace: "+format, args...)
}

// Scope is a per-thread arena. While it is the innermost scope of its
// thread, all events are directed into its chunks. Scopes must be closed
// in LIFO order on the thread that created them.
//
//	s := logger.NewScope("query", nil)
//	...
//	t := s.Snapshot()
//	s.Close()
type Scope struct {
	name  string
	alloc *chunk.Allocator

	chunks []*chunk.Chunk

	timeStart   time.Time
	cyclesStart uint64

	allocatedBytes uint64
	warnBytes      uint64

	isNull   bool
	orphaned bool

	th *Thread
}

// NewScope creates a scope on the current thread and makes it the event
// destination until Close. A nil allocator means the process default.
func NewScope(name string, alloc *chunk.Allocator) *Scope {
	if alloc == nil {
		alloc = chunk.Global()
	}
	return newScope(CurrentThread(), name, alloc, false)
}

// NewNullScope creates a scope that swallows events: it reuses one scratch
// chunk and discards its contents at every boundary. Use it to mask
// sub-call tracing of a block that should not be measured.
func NewNullScope() *NullScope {
	return &NullScope{
		s: newScope(CurrentThread(), "", chunk.Global(), true),
	}
}

// NullScope hides the Snapshot of its underlying scope: the scratch chunk
// holds overwritten garbage, never a consistent stream.
type NullScope struct {
	s *Scope
}

func (n *NullScope) Close() {
	n.s.Close()
}

func newScope(t *Thread, name string, alloc *chunk.Allocator, isNull bool) *Scope {
	s := &Scope{
		name:      name,
		alloc:     alloc,
		warnBytes: info.DefaultAllocWarnThreshold,
		isNull:    isNull,
		th:        t,
	}

	// after this point all events on t are directed into s
	t.pushScope(s)

	s.timeStart = time.Now()
	s.cyclesStart = cycles()
	return s
}

func (t *Thread) pushScope(s *Scope) {
	// the outer scope's chunk is final until this scope closes
	t.syncChunkSize()

	t.scopeStack = append(t.scopeStack, s)
	t.currentScope = s

	t.tdStack = append(t.tdStack, t.td)
	t.currentChunk = nil
	t.allocChunk()
}

// Close pops the scope, restores the outer scope's cursors, and returns
// the scope's chunks to their allocator. Snapshot before Close if the
// events are still needed. Closing out of order panics.
func (s *Scope) Close() {
	if s.orphaned {
		// scope of a finished thread; the finished list owns it
		return
	}
	t := s.th

	if len(t.scopeStack) < 2 {
		panicf("corrupted scope stack: root scope cannot be closed")
	}
	if t.scopeStack[len(t.scopeStack)-1] != s {
		panicf("corrupted scope stack: scopes must close in LIFO order")
	}

	t.syncChunkSize()

	t.scopeStack = t.scopeStack[:len(t.scopeStack)-1]
	t.currentScope = t.scopeStack[len(t.scopeStack)-1]
	t.td = t.tdStack[len(t.tdStack)-1]
	t.tdStack = t.tdStack[:len(t.tdStack)-1]
	t.currentChunk = t.currentScope.chunks[len(t.currentScope.chunks)-1]

	s.releaseChunks()
}

func (s *Scope) releaseChunks() {
	for _, c := range s.chunks {
		c.Release()
	}
	s.chunks = nil
}

// Name returns the scope name (thread name for root scopes).
func (s *Scope) Name() string { return s.name }

// AllocatedBytes returns the bytes currently allocated inside this scope,
// excluding nested scopes.
func (s *Scope) AllocatedBytes() uint64 { return s.allocatedBytes }

// SetAllocWarnThreshold sets the size after which new allocations warn.
func (s *Scope) SetAllocWarnThreshold(bytes uint64) { s.warnBytes = bytes }

// Snapshot copies the scope's live chunk prefixes into an immutable trace.
// Valid while the scope is still recording: the trace then ends with a
// zero terminator in place of the unwritten tail.
func (s *Scope) Snapshot() *types.Trace {
	timeEnd := time.Now()
	cyclesEnd := cycles()

	if !s.orphaned && s.th != nil {
		// finalize the innermost chunk's size. Sizes of outer scopes'
		// chunks were synced when their nested scopes were pushed.
		s.th.syncChunkSize()
	}

	cnt := 0
	for _, c := range s.chunks {
		cnt += c.Size()
	}
	data := make([]uint32, cnt)
	idx := 0
	for _, c := range s.chunks {
		idx += copy(data[idx:], c.Data()[:c.Size()])
	}

	return &types.Trace{
		Name:        s.name,
		Data:        data,
		TimeStart:   s.timeStart,
		TimeEnd:     timeEnd,
		CyclesStart: s.cyclesStart,
		CyclesEnd:   cyclesEnd,
	}
}
