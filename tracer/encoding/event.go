// Package encoding defines the binary layout of trace event records and
// the visitor-driven decoder.
//
// A chunk's words hold a sequence of variable-length records:
//
//	entry: [idLo, idHi, ccLo, ccHi, cpu]  (5 words)
//	exit:  [EndSentinel, ccLo, ccHi, cpu] (4 words)
//
// Records carry no length prefix; the first word discriminates. A zero
// first word terminates the stream: the rest of the buffer is
// uninitialised, possibly a half-written record from a snapshot taken
// mid-execution.
package encoding

import (
	"encoding/binary"

	"github.com/yuuki0xff/ctrace/tracer/types"
)

const (
	// EndSentinel marks an exit record. No location id can have this
	// value in its low 32 bits (ids are small counters), so the first
	// word of a record is unambiguous.
	EndSentinel = 0xFFFFFFFF

	EnterRecordWords = 5
	ExitRecordWords  = 4

	// MaxRecordWords is the margin the recorder keeps free at the end of
	// every chunk so the largest record never overruns.
	MaxRecordWords = EnterRecordWords + ExitRecordWords
)

// Visitor receives decoded events in stream order.
// Loc is nil if the stream holds an id unknown to the location registry.
type Visitor interface {
	OnTraceStart(loc *types.Location, cycles uint64, cpu uint32)
	OnTraceEnd(cycles uint64, cpu uint32)
}

// PutEnter writes an entry record at words[at:] and returns the new cursor.
func PutEnter(words []uint32, at int, id uint64, cycles uint64, cpu uint32) int {
	words[at] = uint32(id)
	words[at+1] = uint32(id >> 32)
	words[at+2] = uint32(cycles)
	words[at+3] = uint32(cycles >> 32)
	words[at+4] = cpu
	return at + EnterRecordWords
}

// PutExit writes an exit record at words[at:] and returns the new cursor.
func PutExit(words []uint32, at int, cycles uint64, cpu uint32) int {
	words[at] = EndSentinel
	words[at+1] = uint32(cycles)
	words[at+2] = uint32(cycles >> 32)
	words[at+3] = cpu
	return at + ExitRecordWords
}

// Visit decodes the word stream and calls the visitor for each record.
// Reading past the end yields zero words, so a trailing partial record
// terminates cleanly.
func Visit(words []uint32, v Visitor) {
	idx := 0
	get := func() uint32 {
		if idx >= len(words) {
			return 0
		}
		w := words[idx]
		idx++
		return w
	}

	for {
		w0 := get()
		if w0 == 0 {
			return // rest is not written yet
		}
		if w0 != EndSentinel {
			w1 := get()
			id := uint64(w1)<<32 | uint64(w0)
			lo := get()
			hi := get()
			cpu := get()
			loc, _ := types.LocationByID(id)
			v.OnTraceStart(loc, uint64(hi)<<32|uint64(lo), cpu)
		} else {
			lo := get()
			hi := get()
			cpu := get()
			v.OnTraceEnd(uint64(hi)<<32|uint64(lo), cpu)
		}
	}
}

// CollectIDs returns the distinct location ids referenced by the stream,
// in first-seen order.
func CollectIDs(words []uint32) []uint64 {
	var ids []uint64
	seen := map[uint64]bool{}

	for i := 0; i < len(words); {
		w := words[i]
		if w == 0 {
			break
		}
		if w == EndSentinel {
			if i+ExitRecordWords > len(words) {
				break
			}
			i += ExitRecordWords
			continue
		}
		if i+EnterRecordWords > len(words) {
			break
		}
		id := uint64(words[i+1])<<32 | uint64(w)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		i += EnterRecordWords
	}
	return ids
}

// RemapIDs rewrites every entry record's location id through m, in place.
// Ids without a mapping are left untouched.
func RemapIDs(words []uint32, m map[uint64]uint64) {
	for i := 0; i < len(words); {
		w := words[i]
		if w == 0 {
			break
		}
		if w == EndSentinel {
			if i+ExitRecordWords > len(words) {
				break
			}
			i += ExitRecordWords
			continue
		}
		if i+EnterRecordWords > len(words) {
			break
		}
		id := uint64(words[i+1])<<32 | uint64(w)
		if to, ok := m[id]; ok {
			words[i] = uint32(to)
			words[i+1] = uint32(to >> 32)
		}
		i += EnterRecordWords
	}
}

// WordsToBytes serializes words as little-endian for on-disk storage.
func WordsToBytes(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// BytesToWords is the inverse of WordsToBytes. Trailing bytes that do not
// fill a word are dropped.
func BytesToWords(buf []byte) []uint32 {
	words := make([]uint32, len(buf)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return words
}
