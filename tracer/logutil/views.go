// Package logutil reduces trace snapshots into derived views: flat event
// lists, matched scope pairs, per-location statistics, and filtered or
// rewritten traces.
//
// All views tolerate unbalanced streams. A snapshot of a running thread
// may end inside an open call: unmatched enters stay in the event list,
// matched-pair views drop them silently.
package logutil

import (
	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

type eventsVisitor struct {
	events []types.Event
	stack  []*types.Location
}

func (v *eventsVisitor) OnTraceStart(loc *types.Location, cycles uint64, cpu uint32) {
	v.stack = append(v.stack, loc)
	v.events = append(v.events, types.Event{Loc: loc, Cycles: cycles, CPU: cpu, Enter: true})
}

func (v *eventsVisitor) OnTraceEnd(cycles uint64, cpu uint32) {
	var loc *types.Location
	if n := len(v.stack); n > 0 {
		loc = v.stack[n-1]
		v.stack = v.stack[:n-1]
	}
	v.events = append(v.events, types.Event{Loc: loc, Cycles: cycles, CPU: cpu, Enter: false})
}

// ComputeEvents replays the stream into an ordered event list. An exit's
// Loc is its matching enter's location, or nil if the stream starts past
// the enter.
func ComputeEvents(t *types.Trace) []types.Event {
	v := &eventsVisitor{}
	encoding.Visit(t.Data, v)
	return v.events
}

type scopesVisitor struct {
	scopes []types.EventScope
	stack  []types.EventScope
}

func (v *scopesVisitor) OnTraceStart(loc *types.Location, cycles uint64, cpu uint32) {
	v.stack = append(v.stack, types.EventScope{Loc: loc, StartCycles: cycles, StartCPU: cpu})
}

func (v *scopesVisitor) OnTraceEnd(cycles uint64, cpu uint32) {
	n := len(v.stack)
	if n == 0 {
		return // exit without enter: dropped
	}
	s := v.stack[n-1]
	v.stack = v.stack[:n-1]
	s.EndCycles = cycles
	s.EndCPU = cpu
	v.scopes = append(v.scopes, s)
}

// ComputeEventScopes pairs enters with exits, one record per pair, in
// post-order: a scope appears after all scopes nested inside it. Pairs
// still open at end of stream are dropped.
func ComputeEventScopes(t *types.Trace) []types.EventScope {
	v := &scopesVisitor{}
	encoding.Visit(t.Data, v)
	return v.scopes
}

// ComputeLocationStats accumulates matched pairs per location, in
// first-seen order.
func ComputeLocationStats(t *types.Trace) []types.LocationStats {
	byLoc := map[*types.Location]int{}
	var stats []types.LocationStats

	for _, s := range ComputeEventScopes(t) {
		i, ok := byLoc[s.Loc]
		if !ok {
			i = len(stats)
			byLoc[s.Loc] = i
			stats = append(stats, types.LocationStats{Loc: s.Loc})
		}
		stats[i].Samples++
		stats[i].TotalCycles += s.Cycles()
	}
	return stats
}

// FilterSubscope returns a trace containing only the pairs whose entering
// location, or any ancestor open at entry time, satisfies pred. Start/end
// stamps are those of the input.
func FilterSubscope(t *types.Trace, pred func(*types.Location) bool) *types.Trace {
	v := &subscopeVisitor{
		pred:  pred,
		words: make([]uint32, len(t.Data)),
	}
	encoding.Visit(t.Data, v)

	out := *t
	out.Data = v.words[:v.curr]
	return &out
}

type subscopeVisitor struct {
	pred  func(*types.Location) bool
	words []uint32
	curr  int

	frames  []subscopeFrame
	matches int // open frames whose own predicate fired
}

type subscopeFrame struct {
	ownMatch bool
	emitted  bool
}

func (v *subscopeVisitor) OnTraceStart(loc *types.Location, cycles uint64, cpu uint32) {
	own := loc != nil && v.pred(loc)
	if own {
		v.matches++
	}
	emit := v.matches > 0 && loc != nil
	v.frames = append(v.frames, subscopeFrame{ownMatch: own, emitted: emit})
	if emit {
		v.curr = encoding.PutEnter(v.words, v.curr, loc.ID(), cycles, cpu)
	}
}

func (v *subscopeVisitor) OnTraceEnd(cycles uint64, cpu uint32) {
	n := len(v.frames)
	if n == 0 {
		return
	}
	f := v.frames[n-1]
	v.frames = v.frames[:n-1]
	if f.ownMatch {
		v.matches--
	}
	if f.emitted {
		v.curr = encoding.PutExit(v.words, v.curr, cycles, cpu)
	}
}

// RemapCPU returns a copy of the trace with every CPU field replaced by
// cpu. Location ids and cycle values are unchanged.
func RemapCPU(t *types.Trace, cpu uint32) *types.Trace {
	words := make([]uint32, len(t.Data))
	copy(words, t.Data)

	for i := 0; i < len(words); {
		w := words[i]
		if w == 0 {
			break
		}
		if w == encoding.EndSentinel {
			if i+encoding.ExitRecordWords > len(words) {
				break // trailing partial record
			}
			words[i+3] = cpu
			i += encoding.ExitRecordWords
		} else {
			if i+encoding.EnterRecordWords > len(words) {
				break
			}
			words[i+4] = cpu
			i += encoding.EnterRecordWords
		}
	}

	out := *t
	out.Data = words
	return &out
}
