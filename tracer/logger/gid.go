package logger

import (
	"bytes"
	"log"
	"runtime"
	"strconv"

	"github.com/yuuki0xff/ctrace/tracer/types"
)

// gid returns the current goroutine id by parsing the first line of the
// stack dump ("goroutine NNN [running]"). This is the slow part of thread
// resolution; CurrentThread callers pay it once per lookup, so hot loops
// should hold on to the *Thread.
func gid() types.GID {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		log.Panicf("ctrace: unexpected stack header: %q", buf[:n])
	}
	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		log.Panic(err)
	}
	return types.GID(id)
}
