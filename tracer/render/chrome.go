package render

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

// chrome trace event format ("JSON array format"). Load via
// chrome://tracing or https://ui.perfetto.dev.
type chromeEvent struct {
	Name string  `json:"name"`
	Cat  string  `json:"cat"`
	Ph   string  `json:"ph"`
	Pid  int     `json:"pid"`
	Tid  uint32  `json:"tid"`
	Ts   float64 `json:"ts"`
}

type chromeVisitor struct {
	events    []chromeEvent
	stack     []*types.Location
	minCycles uint64
}

func (v *chromeVisitor) OnTraceStart(loc *types.Location, cycles uint64, cpu uint32) {
	if cycles < v.minCycles {
		v.minCycles = cycles
	}
	v.stack = append(v.stack, loc)
	v.events = append(v.events, chromeEvent{
		Name: frameName(loc),
		Cat:  "PERF",
		Ph:   "B",
		Tid:  cpu,
		Ts:   float64(cycles),
	})
}

func (v *chromeVisitor) OnTraceEnd(cycles uint64, cpu uint32) {
	if cycles < v.minCycles {
		v.minCycles = cycles
	}
	var loc *types.Location
	if n := len(v.stack); n > 0 {
		loc = v.stack[n-1]
		v.stack = v.stack[:n-1]
	}
	v.events = append(v.events, chromeEvent{
		Name: frameName(loc),
		Cat:  "PERF",
		Ph:   "E",
		Tid:  cpu,
		Ts:   float64(cycles),
	})
}

// ChromeTracingJSON writes the trace as a Chrome trace-event array.
// Timestamps are microseconds: cycle offsets scaled by the wall-clock
// calibration the snapshot carries.
func ChromeTracingJSON(w io.Writer, t *types.Trace) error {
	v := &chromeVisitor{minCycles: ^uint64(0)}
	encoding.Visit(t.Data, v)

	// cycles -> microseconds
	scale := 0.0
	if t.ElapsedCycles() > 0 {
		scale = t.ElapsedSeconds() / float64(t.ElapsedCycles()) * 1e6
	}
	for i := range v.events {
		v.events[i].Ts = (v.events[i].Ts - float64(v.minCycles)) * scale
	}
	if v.events == nil {
		v.events = []chromeEvent{}
	}

	enc := json.NewEncoder(w)
	return errors.Wrap(enc.Encode(v.events), "failed to encode chrome tracing json")
}
