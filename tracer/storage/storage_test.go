package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/logutil"
	"github.com/yuuki0xff/ctrace/tracer/types"
	"github.com/yuuki0xff/ctrace/tracer/util"
)

func sampleTrace(name string) *types.Trace {
	loc := types.NewLocation("storage_test.go", "pkg.f", name, 1)
	words := make([]uint32, 16)
	at := encoding.PutEnter(words, 0, loc.ID(), 10, 0)
	at = encoding.PutExit(words, at, 20, 0)

	start := time.Unix(1000, 0).UTC()
	return &types.Trace{
		Name:        name,
		Data:        words[:at],
		TimeStart:   start,
		TimeEnd:     start.Add(time.Second),
		CyclesStart: 5,
		CyclesEnd:   25,
	}
}

func TestSaveLoadTraces_roundtrip(t *testing.T) {
	util.WithTempFile(func(tmpfile string) {
		t1 := sampleTrace("first")
		t2 := sampleTrace("second")
		assert.NoError(t, SaveTraces(tmpfile, t1, t2))

		traces, err := LoadTraces(tmpfile)
		assert.NoError(t, err)
		assert.Len(t, traces, 2)
		assert.Equal(t, t1, traces[0])
		assert.Equal(t, t2, traces[1])

		// saved locations resolve after the roundtrip
		events := logutil.ComputeEvents(traces[0])
		assert.Len(t, events, 2)
		assert.Equal(t, "first", events[0].Loc.Name)
	})
}

func TestEncoder_appendsAcrossOpens(t *testing.T) {
	util.WithTempFile(func(tmpfile string) {
		assert.NoError(t, SaveTraces(tmpfile, sampleTrace("a")))
		assert.NoError(t, SaveTraces(tmpfile, sampleTrace("b")))

		traces, err := LoadTraces(tmpfile)
		assert.NoError(t, err)
		assert.Len(t, traces, 2)
		assert.Equal(t, "a", traces[0].Name)
		assert.Equal(t, "b", traces[1].Name)
	})
}

func TestDecoder_missingFile(t *testing.T) {
	_, err := LoadTraces("/nonexistent/path.ctrace")
	assert.Error(t, err)
}

func TestLoadTraces_emptyFile(t *testing.T) {
	util.WithTempFile(func(tmpfile string) {
		assert.NoError(t, os.Truncate(tmpfile, 0))
		traces, err := LoadTraces(tmpfile)
		assert.NoError(t, err)
		assert.Len(t, traces, 0)
	})
}
