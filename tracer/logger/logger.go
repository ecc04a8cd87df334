package logger

import (
	"runtime"
	"sync"

	"github.com/yuuki0xff/ctrace/tracer/chunk"
	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

var global = struct {
	sync.Mutex
	// allocator for root scopes of threads initialized henceforth.
	// nil means the builtin chunk.Global().
	allocator *chunk.Allocator
	// root scopes adopted from finished threads.
	finished []*Scope
}{}

// threads maps types.GID to *Thread.
var threads sync.Map

// threadData is the recorder state the hot path touches: the current
// chunk's words and two cursors. end is not the real end of the chunk; it
// leaves room for the largest record so one bounds check suffices.
type threadData struct {
	data []uint32
	curr int
	end  int
}

// Thread is the per-thread recorder. All methods must be called from the
// owning goroutine; none of them synchronize on the hot path.
type Thread struct {
	gid types.GID

	td threadData

	rootScope    *Scope
	scopeStack   []*Scope
	tdStack      []threadData
	currentScope *Scope
	currentChunk *chunk.Chunk
}

// CurrentThread returns the calling goroutine's recorder, initializing it
// on first use. Initialization constructs a root scope named after the
// goroutine id and allocates its first chunk.
func CurrentThread() *Thread {
	id := gid()
	if v, ok := threads.Load(id); ok {
		return v.(*Thread)
	}

	global.Lock()
	alloc := global.allocator
	global.Unlock()
	if alloc == nil {
		alloc = chunk.Global()
	}

	t := &Thread{gid: id}
	threads.Store(id, t)
	t.rootScope = newScope(t, id.String(), alloc, false)
	return t
}

// Enter records an entry event for loc.
func (t *Thread) Enter(loc *types.Location) {
	curr := t.td.curr
	if curr >= t.td.end {
		curr = t.allocChunk()
	}
	t.td.curr = curr + encoding.EnterRecordWords
	cc, cpu := cyclesAndCPU()
	encoding.PutEnter(t.td.data, curr, loc.ID(), cc, cpu)
}

// Exit records an exit event matching the most recent Enter.
func (t *Thread) Exit() {
	curr := t.td.curr
	if curr >= t.td.end {
		curr = t.allocChunk()
	}
	t.td.curr = curr + encoding.ExitRecordWords
	cc, cpu := cyclesAndCPU()
	encoding.PutExit(t.td.data, curr, cc, cpu)
}

// Done is the per-thread teardown. It adopts the root scope into the
// global finished list so its buffers outlive the goroutine, and
// unregisters the thread. Call it (usually deferred) before the goroutine
// returns; a goroutine that skips Done leaks its root scope but the
// process stays correct.
func (t *Thread) Done() {
	if t.rootScope == nil {
		return
	}
	if len(t.scopeStack) != 1 {
		panicf("thread finished with %d open scopes", len(t.scopeStack)-1)
	}

	t.syncChunkSize()

	s := t.rootScope
	s.orphaned = true
	s.alloc = nil
	s.th = nil
	t.rootScope = nil
	t.scopeStack = nil
	t.tdStack = nil
	t.currentScope = nil
	t.currentChunk = nil
	t.td = threadData{}

	threads.Delete(t.gid)

	global.Lock()
	global.finished = append(global.finished, s)
	global.Unlock()
}

// allocChunk is the cold path: runs once per chunk boundary.
func (t *Thread) allocChunk() int {
	t.syncChunkSize()

	s := t.currentScope
	if s == nil {
		panicf("thread is already finished")
	}
	var c *chunk.Chunk
	if !s.isNull || len(s.chunks) == 0 {
		c = s.alloc.Allocate()
		s.chunks = append(s.chunks, c)
		s.allocatedBytes += uint64(c.Capacity() * 4)
		if s.allocatedBytes > s.warnBytes {
			warnf("ctrace: scope %q allocates more than %d bytes\n", s.name, s.warnBytes)
		}
	} else {
		// null scope: overwrite the single scratch chunk
		c = s.chunks[len(s.chunks)-1]
	}

	t.currentChunk = c
	t.td.data = c.Data()
	t.td.curr = 0
	t.td.end = c.Capacity() - encoding.MaxRecordWords
	return 0
}

// syncChunkSize updates the current chunk's size from the cursor.
func (t *Thread) syncChunkSize() {
	if t.currentChunk == nil {
		return
	}
	t.currentChunk.SetSize(t.td.curr)
}

// Enter records an entry event on the current thread. Prefer the Thread
// methods in hot loops; this resolves the thread on every call.
func Enter(loc *types.Location) {
	CurrentThread().Enter(loc)
}

// Exit records an exit event on the current thread.
func Exit() {
	CurrentThread().Exit()
}

// Trace annotates the calling function: it records an entry at the call
// site and returns the matching exit.
//
//	func foo() {
//		defer logger.Trace("")()
//		...
//	}
func Trace(name string) func() {
	pc, _, _, _ := runtime.Caller(1)
	loc := types.LocationForPC(pc, name)
	t := CurrentThread()
	t.Enter(loc)
	return t.Exit
}

// SetDefaultAllocator sets the allocator used by root scopes of threads
// initialized from now on. nil resets to the builtin allocator.
func SetDefaultAllocator(a *chunk.Allocator) {
	global.Lock()
	global.allocator = a
	global.Unlock()
}

// SetThreadAllocator replaces the current thread's root-scope allocator.
// It takes effect at the next chunk boundary: chunks already recorded stay
// with their old allocator.
func SetThreadAllocator(a *chunk.Allocator) {
	t := CurrentThread()
	if a == nil {
		a = chunk.Global()
	}
	t.rootScope.alloc = a
}

// SetThreadName names the current thread's root scope.
func SetThreadName(name string) {
	CurrentThread().rootScope.name = name
}

// SetThreadAllocWarnThreshold sets the per-scope allocation size after
// which chunk allocations warn on stderr. Default is 1GiB.
func SetThreadAllocWarnThreshold(bytes uint64) {
	CurrentThread().rootScope.warnBytes = bytes
}

// GetTotalMemoryConsumption returns the bytes currently held by trace
// chunks process-wide.
func GetTotalMemoryConsumption() uint64 {
	return chunk.TotalMemoryConsumption()
}

// CurrentThreadTrace snapshots the current thread's root scope. The scope
// keeps recording; the snapshot is a consistent prefix.
func CurrentThreadTrace() *types.Trace {
	return CurrentThread().rootScope.Snapshot()
}

// FinishedThreadTraces snapshots every root scope adopted from finished
// threads.
func FinishedThreadTraces() []*types.Trace {
	global.Lock()
	defer global.Unlock()
	traces := make([]*types.Trace, 0, len(global.finished))
	for _, s := range global.finished {
		traces = append(traces, s.Snapshot())
	}
	return traces
}

// ClearFinishedThreadTraces drops the adopted root scopes and reclaims
// their chunks.
func ClearFinishedThreadTraces() {
	global.Lock()
	finished := global.finished
	global.finished = nil
	global.Unlock()

	for _, s := range finished {
		s.releaseChunks()
	}
}
