// Package render serializes decoded traces into viewer formats:
// speedscope JSON, Chrome tracing JSON, and a per-location CSV summary.
package render

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/yuuki0xff/ctrace/info"
	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

var ErrTooManyEvents = errors.New("too many events for speedscope export")

// speedscope file format v0.0.1
// https://github.com/jlfwong/speedscope/wiki/Importing-from-custom-sources
type speedscopeFile struct {
	Version  string              `json:"version"`
	Schema   string              `json:"$schema"`
	Shared   speedscopeShared    `json:"shared"`
	Profiles []speedscopeProfile `json:"profiles"`
}

type speedscopeShared struct {
	Frames []speedscopeFrame `json:"frames"`
}

type speedscopeFrame struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

type speedscopeProfile struct {
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	Unit       string            `json:"unit"`
	StartValue uint64            `json:"startValue"`
	EndValue   uint64            `json:"endValue"`
	Events     []speedscopeEvent `json:"events"`
}

type speedscopeEvent struct {
	Type  string `json:"type"`
	Frame int    `json:"frame"`
	At    uint64 `json:"at"`
}

type speedscopeVisitor struct {
	minCycles uint64
	maxCycles uint64
	frames    map[*types.Location]int
	locs      []*types.Location
	stack     []int
	events    []speedscopeEvent
}

func (v *speedscopeVisitor) frameOf(loc *types.Location) int {
	if f, ok := v.frames[loc]; ok {
		return f
	}
	f := len(v.locs)
	v.frames[loc] = f
	v.locs = append(v.locs, loc)
	return f
}

func (v *speedscopeVisitor) stamp(cycles uint64) {
	if cycles < v.minCycles {
		v.minCycles = cycles
	}
	if cycles > v.maxCycles {
		v.maxCycles = cycles
	}
}

func (v *speedscopeVisitor) OnTraceStart(loc *types.Location, cycles uint64, cpu uint32) {
	v.stamp(cycles)
	f := v.frameOf(loc)
	v.events = append(v.events, speedscopeEvent{Type: "O", Frame: f, At: cycles})
	v.stack = append(v.stack, f)
}

func (v *speedscopeVisitor) OnTraceEnd(cycles uint64, cpu uint32) {
	v.stamp(cycles)
	n := len(v.stack)
	if n == 0 {
		return
	}
	f := v.stack[n-1]
	v.stack = v.stack[:n-1]
	v.events = append(v.events, speedscopeEvent{Type: "C", Frame: f, At: cycles})
}

// closePending closes events still open at end of stream at the maximum
// observed cycle value.
func (v *speedscopeVisitor) closePending() {
	for len(v.stack) > 0 {
		v.OnTraceEnd(v.maxCycles, 0)
	}
}

// SpeedscopeJSON writes the trace as a speedscope evented profile. If the
// event count exceeds maxEvents (0 means the default cap) it refuses to
// write and returns ErrTooManyEvents.
func SpeedscopeJSON(w io.Writer, t *types.Trace, maxEvents int) error {
	if maxEvents <= 0 {
		maxEvents = info.DefaultMaxSpeedscopeEvents
	}

	v := &speedscopeVisitor{
		minCycles: ^uint64(0),
		frames:    map[*types.Location]int{},
	}
	encoding.Visit(t.Data, v)
	v.closePending()

	if len(v.events) > maxEvents {
		log.Printf("ctrace: refusing to write speedscope file: %d events exceed the cap of %d", len(v.events), maxEvents)
		return ErrTooManyEvents
	}
	if len(v.events) == 0 {
		v.minCycles = 0
	}

	frames := make([]speedscopeFrame, len(v.locs))
	for i, loc := range v.locs {
		frames[i] = speedscopeFrame{
			Name: frameName(loc),
			File: frameFile(loc),
			Line: frameLine(loc),
		}
	}
	for i := range v.events {
		v.events[i].At -= v.minCycles
	}

	name := t.Name
	if name == "" {
		name = info.AppName
	}
	file := speedscopeFile{
		Version: "0.0.1",
		Schema:  "https://www.speedscope.app/file-format-schema.json",
		Shared:  speedscopeShared{Frames: frames},
		Profiles: []speedscopeProfile{{
			Type:       "evented",
			Name:       name,
			Unit:       "none",
			StartValue: 0,
			EndValue:   v.maxCycles - v.minCycles,
			Events:     v.events,
		}},
	}

	enc := json.NewEncoder(w)
	return errors.Wrap(enc.Encode(&file), "failed to encode speedscope json")
}

// WriteSpeedscopeFile writes the trace to path. Open failure is logged
// and swallowed; the tracer is best-effort.
func WriteSpeedscopeFile(path string, t *types.Trace, maxEvents int) {
	f, err := os.Create(path)
	if err != nil {
		log.Printf("ctrace: can not open %s: %s", path, err)
		return
	}
	defer f.Close() // nolint: errcheck

	if err := SpeedscopeJSON(f, t, maxEvents); err != nil {
		log.Printf("ctrace: %s", err)
	}
}

func frameName(loc *types.Location) string {
	if loc == nil {
		return "<unknown>"
	}
	if loc.Name != "" {
		return loc.Name
	}
	return BeautifyFuncName(loc.Func)
}

func frameFile(loc *types.Location) string {
	if loc == nil {
		return ""
	}
	return strings.ReplaceAll(loc.File, "\\", "/")
}

func frameLine(loc *types.Location) int {
	if loc == nil {
		return 0
	}
	return loc.Line
}
