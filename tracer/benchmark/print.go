package benchmark

import (
	"fmt"
	"io"

	"github.com/yuuki0xff/ctrace/tracer/render"
)

// PrintAll dumps every experiment, warmup and baseline timing.
func (r *Results) PrintAll(w io.Writer, prefix string) {
	print := func(t Timing) {
		fmt.Fprintf(w, "%s  %d cycles, %s, %d sample(s)\n", prefix, t.Cycles, render.TimeString(t.Seconds), t.Samples)
	}

	fmt.Fprintf(w, "%sexperiments:\n", prefix)
	for _, t := range r.Experiments {
		print(t)
	}
	fmt.Fprintf(w, "%swarmup:\n", prefix)
	for _, t := range r.Warmups {
		print(t)
	}
	if len(r.Baselines) > 0 {
		fmt.Fprintf(w, "%sbaseline:\n", prefix)
		for _, t := range r.Baselines {
			print(t)
		}
	}
}

// PrintSummary prints the fastest-to-70th-percentile band per sample,
// with the baseline subtracted from the lower bound.
func (r *Results) PrintSummary(w io.Writer, prefix string) {
	bsps := r.BaselineSecondsPerSample()
	bcps := r.BaselineCyclesPerSample()
	spsMin := r.SecondsPerSample(0) - bsps
	if spsMin < 0 {
		spsMin = 0
	}
	cpsMin := r.CyclesPerSample(0) - bcps
	if cpsMin < 0 {
		cpsMin = 0
	}
	spsMax := r.SecondsPerSample(0.7)
	cpsMax := r.CyclesPerSample(0.7)

	fmt.Fprintf(w, "%s%s .. %s / sample, %.0f .. %.0f cycles / sample\n",
		prefix, render.TimeString(spsMin), render.TimeString(spsMax), cpsMin, cpsMax)
}
