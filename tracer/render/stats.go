package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/yuuki0xff/ctrace/tracer/logutil"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

// PrintUnit selects how PrintLocationStats renders cycle totals.
type PrintUnit int

const (
	UnitCycles PrintUnit = iota
	UnitTime
)

// PrintLocationStats prints per-location totals sorted by time, at most
// maxLocs rows. With UnitTime, cycles are scaled by the snapshot's
// wall-clock calibration.
//
// NOTE: totals of recursive locations include their nested invocations.
func PrintLocationStats(w io.Writer, t *types.Trace, maxLocs int, unit PrintUnit) {
	stats := logutil.ComputeLocationStats(t)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalCycles > stats[j].TotalCycles
	})
	if maxLocs > 0 && len(stats) > maxLocs {
		stats = stats[:maxLocs]
	}

	secPerCycle := 0.0
	if t.ElapsedCycles() > 0 {
		secPerCycle = t.ElapsedSeconds() / float64(t.ElapsedCycles())
	}

	for _, s := range stats {
		var total, avg string
		switch unit {
		case UnitTime:
			total = TimeString(float64(s.TotalCycles) * secPerCycle)
			avg = TimeString(float64(s.TotalCycles) * secPerCycle / float64(s.Samples))
		default:
			total = fmt.Sprintf("%d cycles", s.TotalCycles)
			avg = fmt.Sprintf("%d cycles", s.TotalCycles/uint64(s.Samples))
		}
		fmt.Fprintf(w, "%8d x %-40s total %s, avg %s\n", s.Samples, frameName(s.Loc), total, avg)
	}
}
