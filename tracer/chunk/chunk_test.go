package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yuuki0xff/ctrace/tracer/util"
)

func TestAllocator_reusesBuffers(t *testing.T) {
	a := NewAllocator(1024)

	before := TotalMemoryConsumption()
	c := a.Allocate()
	assert.Equal(t, before+1024*4, TotalMemoryConsumption(), "true allocation must be counted")

	c.Release()
	assert.Equal(t, before+1024*4, TotalMemoryConsumption(), "pooled buffers still count")

	// reuse must not allocate again
	for i := 0; i < 100; i++ {
		c := a.Allocate()
		c.Release()
	}
	assert.Equal(t, before+1024*4, TotalMemoryConsumption(), "pool reuse must not grow the counter")

	a.Close()
	assert.Equal(t, before, TotalMemoryConsumption(), "Close must release pooled buffers")
}

func TestAllocator_releaseAfterClose(t *testing.T) {
	a := NewAllocator(1024)
	before := TotalMemoryConsumption()

	c := a.Allocate()
	a.Close()

	// the allocator is gone; the buffer goes to the heap exactly once
	c.Release()
	assert.Equal(t, before, TotalMemoryConsumption())

	// releasing an empty chunk is a no-op
	c.Release()
	assert.Equal(t, before, TotalMemoryConsumption())
}

func TestChunk_setSize(t *testing.T) {
	a := NewAllocator(1024)
	defer a.Close()

	c := a.Allocate()
	defer c.Release()

	assert.Equal(t, 1024, c.Capacity())
	assert.Equal(t, 0, c.Size())

	c.SetSize(100)
	assert.Equal(t, 100, c.Size())

	err := util.PanicHandler(func() { c.SetSize(1025) })
	assert.Error(t, err, "size above capacity must panic")
}

func TestGlobal_isSingleton(t *testing.T) {
	if Global() != Global() {
		t.Fatal("Global() must return the same allocator")
	}
}
