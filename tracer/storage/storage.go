// Package storage persists trace snapshots to container files so the CLI
// and the HTTP viewer can work on them after the traced process exited.
//
// A container file holds any number of gob-encoded traces, appended in
// order. The word stream is stored as little-endian bytes.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/yuuki0xff/ctrace/tracer/encoding"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

// fileTrace is the on-disk shape of one trace. Location ids are only
// meaningful inside the recording process, so the referenced locations
// travel with the stream and ids are remapped on load.
type fileTrace struct {
	Name        string
	Data        []byte // little-endian words
	Locations   []fileLocation
	TimeStart   time.Time
	TimeEnd     time.Time
	CyclesStart uint64
	CyclesEnd   uint64
}

type fileLocation struct {
	ID   uint64
	File string
	Func string
	Name string
	Line int
}

func toFileTrace(t *types.Trace) *fileTrace {
	var locs []fileLocation
	for _, id := range encoding.CollectIDs(t.Data) {
		loc, ok := types.LocationByID(id)
		if !ok {
			continue // adversarial or foreign stream; id stays as-is
		}
		locs = append(locs, fileLocation{
			ID:   id,
			File: loc.File,
			Func: loc.Func,
			Name: loc.Name,
			Line: loc.Line,
		})
	}
	return &fileTrace{
		Name:        t.Name,
		Data:        encoding.WordsToBytes(t.Data),
		Locations:   locs,
		TimeStart:   t.TimeStart,
		TimeEnd:     t.TimeEnd,
		CyclesStart: t.CyclesStart,
		CyclesEnd:   t.CyclesEnd,
	}
}

func (f *fileTrace) toTrace() *types.Trace {
	words := encoding.BytesToWords(f.Data)

	// register the saved locations here and rewrite the stream to this
	// process's ids
	remap := map[uint64]uint64{}
	for _, fl := range f.Locations {
		loc := types.NewLocation(fl.File, fl.Func, fl.Name, fl.Line)
		remap[fl.ID] = loc.ID()
	}
	encoding.RemapIDs(words, remap)

	return &types.Trace{
		Name:        f.Name,
		Data:        words,
		TimeStart:   f.TimeStart,
		TimeEnd:     f.TimeEnd,
		CyclesStart: f.CyclesStart,
		CyclesEnd:   f.CyclesEnd,
	}
}

// Encoder appends traces to a container file. Every record is framed by
// a length prefix and gob-encoded on its own, so containers written over
// several sessions still read back as one stream.
type Encoder struct {
	Path string

	a io.WriteCloser // AppendOnly
}

func (e *Encoder) Open() error {
	f, err := os.OpenFile(e.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "can not open %s", e.Path)
	}
	e.a = f
	return nil
}

func (e *Encoder) Append(t *types.Trace) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toFileTrace(t)); err != nil {
		return errors.Wrap(err, "failed to encode trace")
	}

	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(buf.Len()))
	if _, err := e.a.Write(length[:]); err != nil {
		return errors.Wrap(err, "failed to write trace frame")
	}
	if _, err := e.a.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write trace frame")
	}
	return nil
}

func (e *Encoder) Close() (err error) {
	if e.a != nil {
		err = e.a.Close()
		e.a = nil
	}
	return
}

// Decoder reads traces back from a container file.
type Decoder struct {
	Path string

	r io.ReadCloser // ReadOnly
}

func (d *Decoder) Open() error {
	f, err := os.Open(d.Path)
	if err != nil {
		return errors.Wrapf(err, "can not open %s", d.Path)
	}
	d.r = f
	return nil
}

// Walk calls callback for every trace in the container.
func (d *Decoder) Walk(callback func(*types.Trace) error) error {
	for {
		var length [8]byte
		if _, err := io.ReadFull(d.r, length[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "failed to read trace frame")
		}
		frame := make([]byte, binary.BigEndian.Uint64(length[:]))
		if _, err := io.ReadFull(d.r, frame); err != nil {
			return errors.Wrap(err, "failed to read trace frame")
		}

		var ft fileTrace
		if err := gob.NewDecoder(bytes.NewReader(frame)).Decode(&ft); err != nil {
			return errors.Wrap(err, "failed to decode trace")
		}
		if err := callback(ft.toTrace()); err != nil {
			return err
		}
	}
}

func (d *Decoder) Close() (err error) {
	if d.r != nil {
		err = d.r.Close()
		d.r = nil
	}
	return
}

// SaveTraces appends traces to the container at path.
func SaveTraces(path string, traces ...*types.Trace) error {
	enc := Encoder{Path: path}
	if err := enc.Open(); err != nil {
		return err
	}
	defer enc.Close() // nolint: errcheck

	for _, t := range traces {
		if err := enc.Append(t); err != nil {
			return err
		}
	}
	return enc.Close()
}

// LoadTraces reads every trace from the container at path.
func LoadTraces(path string) ([]*types.Trace, error) {
	dec := Decoder{Path: path}
	if err := dec.Open(); err != nil {
		return nil, err
	}
	defer dec.Close() // nolint: errcheck

	var traces []*types.Trace
	err := dec.Walk(func(t *types.Trace) error {
		traces = append(traces, t)
		return nil
	})
	return traces, err
}
