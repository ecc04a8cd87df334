// Package benchmark is an adaptive-repetition timing harness. It gauges
// the callable with a few probe runs, picks a repetition schedule from the
// probe, and reports percentile-robust per-sample statistics net of a
// measured baseline.
//
//	src := benchmark.NewSourceUint64(17)
//	res := benchmark.Run(func() {
//		benchmark.SinkUint64(fib(src.Load()))
//	})
//	res.PrintSummary(os.Stdout, "fib: ")
//
// Inputs should be read through a Source and results written to a Sink so
// the compiler can not elide the measured work.
package benchmark

import (
	"math"
	"sort"
	"time"
	_ "unsafe" // for go:linkname
)

//go:linkname runtimeNano runtime.nanotime
func runtimeNano() int64

const (
	initialCheckCnt = 3

	extraLongCycles = 100 * 1000 * 1000 // above this only the probe is kept
	longCycles      = 1000 * 1000       // above this a few individual runs
	mediumCycles    = 10000             // above this a few clustered runs
	shortCycles     = 500               // above this some clustered runs

	longRunCnt     = 5
	longClusterCnt = 1

	mediumRunCnt     = 5
	mediumClusterCnt = 5

	shortRunCnt     = 10
	shortClusterCnt = 100

	veryShortRunCnt     = 10
	veryShortClusterCnt = 1000

	baselineRunCnt     = 10
	baselineClusterCnt = 1000
)

// Timing is one experiment: a cluster of Samples back-to-back runs.
type Timing struct {
	Samples int
	Cycles  uint64
	Seconds float64
}

type Results struct {
	Experiments []Timing
	Warmups     []Timing
	Baselines   []Timing
}

func timeRuns(code func(), count int) Timing {
	tStart := time.Now()
	cStart := runtimeNano()
	for i := 0; i < count; i++ {
		code()
	}
	cEnd := runtimeNano()
	tEnd := time.Now()
	return Timing{
		Samples: count,
		Cycles:  uint64(cEnd - cStart),
		Seconds: tEnd.Sub(tStart).Seconds(),
	}
}

// Run benchmarks f with a noop baseline.
func Run(f func()) *Results {
	return RunBaseline(f, func() {})
}

// RunBaseline benchmarks f. baseline should perform only the source reads
// and sink writes of f; its measured cost is reported separately and
// subtracted by PrintSummary.
func RunBaseline(f, baseline func()) *Results {
	res := &Results{}

	// gauge function running time: three single-run probes, keep the
	// fastest as the schedule driver.
	var tInit Timing
	cMin := ^uint64(0)
	for i := 0; i < initialCheckCnt; i++ {
		t := timeRuns(f, 1)
		res.Warmups = append(res.Warmups, t)
		if t.Cycles < cMin {
			cMin = t.Cycles
			tInit = t
		}
	}

	switch {
	case tInit.Cycles > extraLongCycles:
		// function takes too long to do more than one run
		res.Experiments = append(res.Experiments, tInit)
	case tInit.Cycles > longCycles:
		// a few individual runs are ok
		res.Experiments = append(res.Experiments, tInit)
		for i := 0; i < longRunCnt; i++ {
			res.Experiments = append(res.Experiments, timeRuns(f, longClusterCnt))
		}
	case tInit.Cycles > mediumCycles:
		for i := 0; i < mediumRunCnt; i++ {
			res.Experiments = append(res.Experiments, timeRuns(f, mediumClusterCnt))
		}
	case tInit.Cycles > shortCycles:
		for i := 0; i < shortRunCnt; i++ {
			res.Experiments = append(res.Experiments, timeRuns(f, shortClusterCnt))
		}
	default:
		// heavily clustered runs
		for i := 0; i < veryShortRunCnt; i++ {
			res.Experiments = append(res.Experiments, timeRuns(f, veryShortClusterCnt))
		}
	}

	for i := 0; i < baselineRunCnt; i++ {
		res.Baselines = append(res.Baselines, timeRuns(baseline, baselineClusterCnt))
	}
	return res
}

// nthExperiment picks the index of the percentile-th smallest experiment:
// ceil(n*p), clamped to n-1.
func nthExperiment(n int, percentile float64) int {
	i := int(math.Ceil(float64(n) * percentile))
	if i > n-1 {
		i = n - 1
	}
	return i
}

// SecondsPerSample returns the per-sample wall time of the percentile-th
// fastest experiment. The default percentile 0 selects the fastest.
func (r *Results) SecondsPerSample(percentile float64) float64 {
	if len(r.Experiments) == 0 {
		return -1
	}
	exp := append([]Timing(nil), r.Experiments...)
	sort.Slice(exp, func(i, j int) bool { return exp[i].Seconds < exp[j].Seconds })
	t := exp[nthExperiment(len(exp), percentile)]
	return t.Seconds / float64(t.Samples)
}

// CyclesPerSample returns the per-sample cycle count of the percentile-th
// fastest experiment.
func (r *Results) CyclesPerSample(percentile float64) float64 {
	if len(r.Experiments) == 0 {
		return -1
	}
	exp := append([]Timing(nil), r.Experiments...)
	sort.Slice(exp, func(i, j int) bool { return exp[i].Cycles < exp[j].Cycles })
	t := exp[nthExperiment(len(exp), percentile)]
	return float64(t.Cycles) / float64(t.Samples)
}

func (r *Results) BaselineSecondsPerSample() float64 {
	if len(r.Baselines) == 0 {
		return 0
	}
	min := r.Baselines[0]
	for _, t := range r.Baselines[1:] {
		if t.Seconds < min.Seconds {
			min = t
		}
	}
	return min.Seconds / float64(min.Samples)
}

func (r *Results) BaselineCyclesPerSample() float64 {
	if len(r.Baselines) == 0 {
		return 0
	}
	min := r.Baselines[0]
	for _, t := range r.Baselines[1:] {
		if t.Cycles < min.Cycles {
			min = t
		}
	}
	return float64(min.Cycles) / float64(min.Samples)
}
