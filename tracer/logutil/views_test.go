package logutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

var (
	locA = types.NewLocation("views_test.go", "pkg.a", "A", 1)
	locB = types.NewLocation("views_test.go", "pkg.b", "B", 2)
	locC = types.NewLocation("views_test.go", "pkg.c", "C", 3)
)

type op struct {
	loc    *types.Location
	cycles uint64
	cpu    uint32
	enter  bool
}

func enter(loc *types.Location, cycles uint64, cpu uint32) op {
	return op{loc: loc, cycles: cycles, cpu: cpu, enter: true}
}

func exit(cycles uint64, cpu uint32) op {
	return op{cycles: cycles, cpu: cpu}
}

func buildTrace(ops ...op) *types.Trace {
	words := make([]uint32, len(ops)*encoding.EnterRecordWords)
	at := 0
	for _, o := range ops {
		if o.enter {
			at = encoding.PutEnter(words, at, o.loc.ID(), o.cycles, o.cpu)
		} else {
			at = encoding.PutExit(words, at, o.cycles, o.cpu)
		}
	}
	start := time.Now()
	return &types.Trace{
		Name:        "test",
		Data:        words[:at],
		TimeStart:   start,
		TimeEnd:     start.Add(time.Millisecond),
		CyclesStart: 0,
		CyclesEnd:   1000 * 1000,
	}
}

func TestComputeEvents_singlePair(t *testing.T) {
	tr := buildTrace(
		enter(locA, 10, 1),
		exit(25, 1),
	)
	events := ComputeEvents(tr)

	assert.Len(t, events, 2)
	assert.Equal(t, types.Event{Loc: locA, Cycles: 10, CPU: 1, Enter: true}, events[0])
	assert.Equal(t, types.Event{Loc: locA, Cycles: 25, CPU: 1, Enter: false}, events[1])
	assert.True(t, events[1].Cycles >= events[0].Cycles)
}

func TestComputeEvents_balance(t *testing.T) {
	tr := buildTrace(
		enter(locA, 1, 0), enter(locB, 2, 0), exit(3, 0), exit(4, 0),
		enter(locC, 5, 0), exit(6, 0),
	)
	events := ComputeEvents(tr)

	enters := 0
	exits := 0
	for _, e := range events {
		if e.Enter {
			enters++
		} else {
			exits++
		}
	}
	assert.Equal(t, enters, exits)
}

func TestComputeEvents_toleratesUnbalancedStream(t *testing.T) {
	// snapshot taken while locB is still open
	tr := buildTrace(
		enter(locA, 1, 0), enter(locB, 2, 0), exit(3, 0),
	)
	events := ComputeEvents(tr)
	assert.Len(t, events, 3)

	// exit with no matching enter at all
	tr = buildTrace(exit(9, 0))
	events = ComputeEvents(tr)
	assert.Len(t, events, 1)
	assert.Nil(t, events[0].Loc)
}

func TestComputeEventScopes_postOrder(t *testing.T) {
	// B nested in A: B must precede A
	tr := buildTrace(
		enter(locA, 1, 0), enter(locB, 2, 1), exit(3, 1), exit(4, 0),
	)
	scopes := ComputeEventScopes(tr)

	assert.Len(t, scopes, 2)
	assert.Equal(t, types.EventScope{Loc: locB, StartCycles: 2, EndCycles: 3, StartCPU: 1, EndCPU: 1}, scopes[0])
	assert.Equal(t, types.EventScope{Loc: locA, StartCycles: 1, EndCycles: 4}, scopes[1])
	assert.Equal(t, uint64(1), scopes[0].Cycles())
}

func TestComputeEventScopes_dropsOpenPairs(t *testing.T) {
	tr := buildTrace(
		enter(locA, 1, 0), enter(locB, 2, 0), exit(3, 0),
	)
	scopes := ComputeEventScopes(tr)
	assert.Len(t, scopes, 1)
	assert.Equal(t, locB, scopes[0].Loc)
}

func TestComputeLocationStats_identity(t *testing.T) {
	tr := buildTrace(
		enter(locA, 0, 0), exit(10, 0),
		enter(locA, 20, 0), exit(25, 0),
		enter(locB, 30, 0), exit(32, 0),
	)
	stats := ComputeLocationStats(tr)
	scopes := ComputeEventScopes(tr)

	samples := 0
	var cycles uint64
	for _, s := range stats {
		samples += s.Samples
		cycles += s.TotalCycles
	}
	assert.Equal(t, len(scopes), samples)

	var want uint64
	for _, s := range scopes {
		want += s.Cycles()
	}
	assert.Equal(t, want, cycles)

	assert.Equal(t, types.LocationStats{Loc: locA, Samples: 2, TotalCycles: 15}, stats[0])
	assert.Equal(t, types.LocationStats{Loc: locB, Samples: 1, TotalCycles: 2}, stats[1])
}

func TestFilterSubscope_constPredicates(t *testing.T) {
	tr := buildTrace(
		enter(locA, 1, 0), enter(locB, 2, 0), exit(3, 0), exit(4, 0),
	)

	all := FilterSubscope(tr, func(*types.Location) bool { return true })
	assert.Equal(t, ComputeEvents(tr), ComputeEvents(all), "const-true filter must be an identity")
	assert.Equal(t, tr.CyclesStart, all.CyclesStart)
	assert.Equal(t, tr.TimeEnd, all.TimeEnd)

	none := FilterSubscope(tr, func(*types.Location) bool { return false })
	assert.Len(t, ComputeEvents(none), 0, "const-false filter must drop everything")
}

func TestFilterSubscope_keepsDescendantsOfMatches(t *testing.T) {
	// A, B, C (child of B), A — filter by B keeps the B and C pairs
	tr := buildTrace(
		enter(locA, 1, 0), exit(2, 0),
		enter(locB, 3, 0),
		enter(locC, 4, 0), exit(5, 0),
		exit(6, 0),
		enter(locA, 7, 0), exit(8, 0),
	)

	got := FilterSubscope(tr, func(l *types.Location) bool { return l == locB })
	events := ComputeEvents(got)

	assert.Len(t, events, 4)
	assert.Equal(t, locB, events[0].Loc)
	assert.Equal(t, locC, events[1].Loc)
	assert.Equal(t, locC, events[2].Loc)
	assert.Equal(t, locB, events[3].Loc)
}

func TestRemapCPU(t *testing.T) {
	tr := buildTrace(
		enter(locA, 1, 3), enter(locB, 2, 4), exit(3, 5), exit(4, 6),
	)

	got := RemapCPU(tr, 9)
	orig := ComputeEvents(tr)
	events := ComputeEvents(got)

	assert.Len(t, events, len(orig))
	for i, e := range events {
		assert.Equal(t, uint32(9), e.CPU)
		assert.Equal(t, orig[i].Loc, e.Loc)
		assert.Equal(t, orig[i].Cycles, e.Cycles)
		assert.Equal(t, orig[i].Enter, e.Enter)
	}

	// input unchanged
	assert.Equal(t, uint32(3), ComputeEvents(tr)[0].CPU)
}
