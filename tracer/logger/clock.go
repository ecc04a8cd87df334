package logger

import (
	_ "unsafe" // for go:linkname
)

// The cycle counter is runtime.nanotime: a monotonic 64bit reading without
// the overhead of time.Now. On platforms with an uncalibrated TSC this is
// the portable substitute the trace format allows; "cycles" in the event
// stream are ticks of this clock.
//
//go:linkname runtimeNano runtime.nanotime
func runtimeNano() int64

func cycles() uint64 {
	return uint64(runtimeNano())
}

// cyclesAndCPU stamps an event: cycle reading plus the id of the CPU core
// the observation was made on.
func cyclesAndCPU() (uint64, uint32) {
	return uint64(runtimeNano()), currentCPU()
}
