package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yuuki0xff/ctrace/tracer/types"
)

type recordingVisitor struct {
	starts []uint64 // cycle stamps of starts
	ends   []uint64
	locs   []*types.Location
	cpus   []uint32
}

func (v *recordingVisitor) OnTraceStart(loc *types.Location, cycles uint64, cpu uint32) {
	v.locs = append(v.locs, loc)
	v.starts = append(v.starts, cycles)
	v.cpus = append(v.cpus, cpu)
}

func (v *recordingVisitor) OnTraceEnd(cycles uint64, cpu uint32) {
	v.ends = append(v.ends, cycles)
	v.cpus = append(v.cpus, cpu)
}

func TestVisit_roundtrip(t *testing.T) {
	loc := types.NewLocation("codec_test.go", "pkg.f", "", 10)

	words := make([]uint32, 64)
	at := PutEnter(words, 0, loc.ID(), 0x1_0000_0002, 3)
	at = PutExit(words, at, 0x1_0000_0009, 4)

	v := &recordingVisitor{}
	Visit(words[:at], v)

	assert.Equal(t, []uint64{0x1_0000_0002}, v.starts)
	assert.Equal(t, []uint64{0x1_0000_0009}, v.ends)
	assert.Equal(t, []uint32{3, 4}, v.cpus)
	if v.locs[0] != loc {
		t.Fatal("decoded location must be the registered one")
	}
}

func TestVisit_zeroWordTerminates(t *testing.T) {
	loc := types.NewLocation("codec_test.go", "pkg.f", "", 11)

	// one record, then uninitialised tail
	words := make([]uint32, 64)
	PutEnter(words, 0, loc.ID(), 100, 0)

	v := &recordingVisitor{}
	Visit(words, v)

	assert.Len(t, v.starts, 1)
	assert.Len(t, v.ends, 0)
}

func TestVisit_partialTrailingRecord(t *testing.T) {
	loc := types.NewLocation("codec_test.go", "pkg.f", "", 12)

	full := make([]uint32, EnterRecordWords)
	PutEnter(full, 0, loc.ID(), 100, 7)

	// cut the record after two words; the safe reader zero-fills the rest
	// and then halts on the zero first word of the next record
	v := &recordingVisitor{}
	Visit(full[:2], v)

	assert.Len(t, v.starts, 1)
	assert.Equal(t, uint64(0), v.starts[0])
}

func TestVisit_unknownIDYieldsNilLocation(t *testing.T) {
	words := make([]uint32, 16)
	// id far past the registry; its low half must be nonzero because a
	// zero first word ends the stream
	PutEnter(words, 0, 1<<40|1, 100, 0)

	v := &recordingVisitor{}
	Visit(words, v)

	assert.Len(t, v.locs, 1)
	assert.Nil(t, v.locs[0])
}

func TestCollectIDs_andRemap(t *testing.T) {
	locX := types.NewLocation("codec_test.go", "pkg.x", "", 20)
	locY := types.NewLocation("codec_test.go", "pkg.y", "", 21)

	words := make([]uint32, 64)
	at := PutEnter(words, 0, locX.ID(), 1, 0)
	at = PutEnter(words, at, locY.ID(), 2, 0)
	at = PutExit(words, at, 3, 0)
	at = PutEnter(words, at, locX.ID(), 4, 0)
	at = PutExit(words, at, 5, 0)
	at = PutExit(words, at, 6, 0)
	words = words[:at]

	assert.Equal(t, []uint64{locX.ID(), locY.ID()}, CollectIDs(words))

	RemapIDs(words, map[uint64]uint64{locX.ID(): locY.ID()})
	assert.Equal(t, []uint64{locY.ID()}, CollectIDs(words))

	v := &recordingVisitor{}
	Visit(words, v)
	assert.Equal(t, []uint64{1, 2, 4}, v.starts, "cycle stamps are untouched by remapping")
}

func TestWordsToBytes_roundtrip(t *testing.T) {
	words := []uint32{1, 0xFFFFFFFF, 0x01020304}
	assert.Equal(t, words, BytesToWords(WordsToBytes(words)))

	// little-endian layout
	b := WordsToBytes([]uint32{0x01020304})
	assert.Equal(t, []byte{4, 3, 2, 1}, b)

	// trailing partial word is dropped
	assert.Equal(t, []uint32{0x01020304}, BytesToWords(append(b, 0xAA, 0xBB)))
}
