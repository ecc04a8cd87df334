package types

import (
	"fmt"
	"runtime"
	"sync"
)

// Location is an immutable descriptor of an annotated source location.
// Two annotations are the same location if and only if their *Location
// pointers are equal. Locations are created once and live for the whole
// process; the registry hands out a process-unique id that the event
// stream stores instead of a raw pointer.
type Location struct {
	File string
	Func string
	// Name is the user-supplied label. May be empty; renderers fall back
	// to a beautified Func.
	Name string
	Line int

	id uint64
}

// ID returns the registry handle of this location.
// The low 32 bits are never 0 and never 0xFFFFFFFF.
func (l *Location) ID() uint64 {
	return l.id
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown location>"
	}
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

var locReg = struct {
	sync.Mutex
	locs   []*Location
	byFile map[string]*Location
	byPC   map[uintptr]*Location
}{
	byFile: map[string]*Location{},
	byPC:   map[uintptr]*Location{},
}

// NewLocation registers a location. Repeated calls with the same (file, line)
// return the same *Location; the first registration wins.
func NewLocation(file, function, name string, line int) *Location {
	key := fmt.Sprintf("%s:%d", file, line)

	locReg.Lock()
	defer locReg.Unlock()
	if l, ok := locReg.byFile[key]; ok {
		return l
	}
	l := register(&Location{
		File: file,
		Func: function,
		Name: name,
		Line: line,
	})
	locReg.byFile[key] = l
	return l
}

// LocationForPC registers a location for a program counter, resolving file,
// function and line through the runtime. Repeated calls with the same pc
// return the same *Location.
func LocationForPC(pc uintptr, name string) *Location {
	locReg.Lock()
	if l, ok := locReg.byPC[pc]; ok {
		locReg.Unlock()
		return l
	}
	locReg.Unlock()

	fn := runtime.FuncForPC(pc)
	var function, file string
	var line int
	if fn != nil {
		function = fn.Name()
		file, line = fn.FileLine(pc)
	}

	locReg.Lock()
	defer locReg.Unlock()
	if l, ok := locReg.byPC[pc]; ok {
		return l
	}
	l := register(&Location{
		File: file,
		Func: function,
		Name: name,
		Line: line,
	})
	locReg.byPC[pc] = l
	return l
}

// register assigns the next id. Caller must hold locReg.
// ids start at 1, so the low half of an id reaches 0 or 0xFFFFFFFF only
// after 2^32-1 registrations. The event codec relies on this.
func register(l *Location) *Location {
	l.id = uint64(len(locReg.locs) + 1)
	locReg.locs = append(locReg.locs, l)
	return l
}

// LocationByID resolves a registry handle. Unknown ids (e.g. from an
// adversarial buffer) yield nil, false.
func LocationByID(id uint64) (*Location, bool) {
	locReg.Lock()
	defer locReg.Unlock()
	if id == 0 || id > uint64(len(locReg.locs)) {
		return nil, false
	}
	return locReg.locs[id-1], true
}
