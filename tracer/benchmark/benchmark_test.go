package benchmark

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResults_percentileSelection(t *testing.T) {
	r := &Results{
		Experiments: []Timing{
			{Samples: 10, Cycles: 3000, Seconds: 3.0},
			{Samples: 10, Cycles: 1000, Seconds: 1.0},
			{Samples: 10, Cycles: 2000, Seconds: 2.0},
		},
	}

	// default percentile selects the fastest experiment
	assert.InDelta(t, 0.1, r.SecondsPerSample(0), 1e-12)
	assert.InDelta(t, 100, r.CyclesPerSample(0), 1e-12)

	// ceil(3*0.7)=3, clamped to the last index
	assert.InDelta(t, 0.3, r.SecondsPerSample(0.7), 1e-12)
	assert.InDelta(t, 300, r.CyclesPerSample(0.7), 1e-12)

	// ceil(3*0.4)=2
	assert.InDelta(t, 0.3, r.SecondsPerSample(0.4), 1e-12)
}

func TestResults_emptyExperiments(t *testing.T) {
	r := &Results{}
	assert.Equal(t, -1.0, r.SecondsPerSample(0))
	assert.Equal(t, -1.0, r.CyclesPerSample(0))
	assert.Equal(t, 0.0, r.BaselineSecondsPerSample())
	assert.Equal(t, 0.0, r.BaselineCyclesPerSample())
}

func TestResults_baselineIsMinimum(t *testing.T) {
	r := &Results{
		Baselines: []Timing{
			{Samples: 1000, Cycles: 5000, Seconds: 5.0},
			{Samples: 1000, Cycles: 2000, Seconds: 2.0},
		},
	}
	assert.InDelta(t, 0.002, r.BaselineSecondsPerSample(), 1e-12)
	assert.InDelta(t, 2, r.BaselineCyclesPerSample(), 1e-12)
}

func TestRun_schedulesClusteredRunsForCheapCallables(t *testing.T) {
	src := NewSourceUint64(41)
	res := Run(func() {
		SinkUint64(src.Load() + 1)
	})

	assert.Len(t, res.Warmups, initialCheckCnt)
	assert.NotEmpty(t, res.Experiments)
	assert.Len(t, res.Baselines, baselineRunCnt)

	// a near-empty callable lands in one of the clustered tiers
	total := 0
	for _, e := range res.Experiments {
		total += e.Samples
	}
	assert.True(t, total >= shortRunCnt*shortClusterCnt, "cheap callables must be clustered, got %d samples", total)

	assert.True(t, res.SecondsPerSample(0) >= 0)
	assert.True(t, res.CyclesPerSample(0.7) >= res.CyclesPerSample(0))
}

func TestPrintSummary(t *testing.T) {
	r := &Results{
		Experiments: []Timing{{Samples: 100, Cycles: 60000, Seconds: 600e-9 * 100}},
		Baselines:   []Timing{{Samples: 100, Cycles: 10000, Seconds: 100e-9 * 100}},
	}

	var buf bytes.Buffer
	r.PrintSummary(&buf, "bench: ")

	out := buf.String()
	assert.Contains(t, out, "bench: ")
	assert.Contains(t, out, "/ sample")
	assert.Contains(t, out, "cycles / sample")
	// 600ns minus the 100ns baseline
	assert.Contains(t, out, "500 ns")
}

func TestSourcesAndSinks(t *testing.T) {
	assert.Equal(t, uint64(7), NewSourceUint64(7).Load())
	assert.Equal(t, -3, NewSourceInt(-3).Load())
	assert.Equal(t, 1.5, NewSourceFloat64(1.5).Load())

	// sinks must accept any value without observable effect
	SinkUint64(1)
	SinkInt(-1)
	SinkFloat64(2.5)
	SinkBytes([]byte("abc"))
}
