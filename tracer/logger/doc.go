// Package logger is the in-process tracing engine: the Enter/Exit hot
// path, per-thread chunk arenas, scopes, and the lifetime management for
// threads whose buffers must outlive them.
//
// Usage:
//
//	defer logger.Trace("")()
//
// or, with an explicit thread handle to keep hot loops cheap:
//
//	th := logger.CurrentThread()
//	th.Enter(loc)
//	...
//	th.Exit()
//
// The hot path must not be re-entered on the same thread from a signal
// handler; there is no guarantee otherwise.
package logger
