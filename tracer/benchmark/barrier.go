package benchmark

import (
	"math"
	"sync/atomic"
)

// Sinks and sources are the anti-elision barriers: atomic loads and
// stores are ordinary memory operations to the optimizer's cost model but
// may not be removed. Custom types compose these per field.

var (
	sinkU64 uint64
	sinkI64 int64
	sinkF64 uint64
)

func SinkUint64(v uint64) {
	atomic.StoreUint64(&sinkU64, v)
}

func SinkInt(v int) {
	atomic.StoreInt64(&sinkI64, int64(v))
}

func SinkFloat64(v float64) {
	atomic.StoreUint64(&sinkF64, math.Float64bits(v))
}

func SinkBytes(b []byte) {
	var sum uint64
	for _, c := range b {
		sum = sum*131 + uint64(c)
	}
	atomic.StoreUint64(&sinkU64, sum)
}

// SourceUint64 rehydrates an input on every run.
type SourceUint64 struct {
	v uint64
}

func NewSourceUint64(v uint64) *SourceUint64 {
	return &SourceUint64{v: v}
}

func (s *SourceUint64) Load() uint64 {
	return atomic.LoadUint64(&s.v)
}

type SourceInt struct {
	v int64
}

func NewSourceInt(v int) *SourceInt {
	return &SourceInt{v: int64(v)}
}

func (s *SourceInt) Load() int {
	return int(atomic.LoadInt64(&s.v))
}

type SourceFloat64 struct {
	v uint64
}

func NewSourceFloat64(v float64) *SourceFloat64 {
	return &SourceFloat64{v: math.Float64bits(v)}
}

func (s *SourceFloat64) Load() float64 {
	return math.Float64frombits(atomic.LoadUint64(&s.v))
}
