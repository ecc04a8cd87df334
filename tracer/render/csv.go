package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

type csvEntry struct {
	loc            *types.Location
	count          uint64
	cyclesTotal    uint64
	cyclesChildren uint64
	cyclesMin      uint64
	cyclesMax      uint64
}

type csvFrame struct {
	loc            *types.Location
	cycles         uint64
	cyclesChildren uint64
}

type csvVisitor struct {
	entries map[*types.Location]*csvEntry
	order   []*types.Location
	stack   []csvFrame
}

func (v *csvVisitor) OnTraceStart(loc *types.Location, cycles uint64, cpu uint32) {
	v.stack = append(v.stack, csvFrame{loc: loc, cycles: cycles})
}

func (v *csvVisitor) OnTraceEnd(cycles uint64, cpu uint32) {
	n := len(v.stack)
	if n == 0 {
		return
	}
	f := v.stack[n-1]
	v.stack = v.stack[:n-1]
	dt := cycles - f.cycles

	e, ok := v.entries[f.loc]
	if !ok {
		e = &csvEntry{loc: f.loc, cyclesMin: ^uint64(0)}
		v.entries[f.loc] = e
		v.order = append(v.order, f.loc)
	}
	e.count++
	e.cyclesTotal += dt
	e.cyclesChildren += f.cyclesChildren
	if dt < e.cyclesMin {
		e.cyclesMin = dt
	}
	if dt > e.cyclesMax {
		e.cyclesMax = dt
	}

	// accumulate our cycles on the parent frame
	if len(v.stack) > 0 {
		v.stack[len(v.stack)-1].cyclesChildren += dt
	}
}

// SummaryCSV writes one row per location:
// name,file,function,count,total,avg,min,max,total_body,avg_body
// where total_body excludes cycles spent in traced children.
func SummaryCSV(w io.Writer, t *types.Trace) error {
	v := &csvVisitor{entries: map[*types.Location]*csvEntry{}}
	encoding.Visit(t.Data, v)

	cw := csv.NewWriter(w)
	header := []string{"name", "file", "function", "count", "total", "avg", "min", "max", "total_body", "avg_body"}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}

	locs := v.order
	sort.SliceStable(locs, func(i, j int) bool {
		return v.entries[locs[i]].cyclesTotal > v.entries[locs[j]].cyclesTotal
	})

	for _, loc := range locs {
		e := v.entries[loc]
		body := e.cyclesTotal - e.cyclesChildren
		row := []string{
			locName(loc),
			fmt.Sprintf("%s:%d", frameFile(loc), frameLine(loc)),
			locFunc(loc),
			strconv.FormatUint(e.count, 10),
			strconv.FormatUint(e.cyclesTotal, 10),
			strconv.FormatUint(e.cyclesTotal/e.count, 10),
			strconv.FormatUint(e.cyclesMin, 10),
			strconv.FormatUint(e.cyclesMax, 10),
			strconv.FormatUint(body, 10),
			strconv.FormatUint(body/e.count, 10),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write csv row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

func locName(loc *types.Location) string {
	if loc == nil {
		return ""
	}
	return loc.Name
}

func locFunc(loc *types.Location) string {
	if loc == nil {
		return ""
	}
	return loc.Func
}
