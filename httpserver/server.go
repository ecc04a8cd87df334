// Package httpserver exposes traces over HTTP: per-site stats and
// speedscope JSON, either from saved container files or live from the
// tracer of the running process.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/yuuki0xff/ctrace/tracer/logger"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

// TraceSource provides the traces a server renders.
type TraceSource interface {
	Traces() []*types.Trace
}

// StaticSource serves a fixed trace list (e.g. loaded from files).
type StaticSource []*types.Trace

func (s StaticSource) Traces() []*types.Trace {
	return s
}

// LiveSource serves the running process's own traces: the current
// thread's root scope plus every finished thread.
type LiveSource struct{}

func (LiveSource) Traces() []*types.Trace {
	traces := logger.FinishedThreadTraces()
	return append(traces, logger.CurrentThreadTrace())
}

type Server struct {
	Addr   string
	Source TraceSource
	// MaxSpeedscopeEvents caps speedscope responses. 0 means default.
	MaxSpeedscopeEvents int

	listener net.Listener
	server   *http.Server
}

func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.server = &http.Server{
		Handler: s.router(),
	}
	return nil
}

// ActualAddr returns the bound address. Valid after Listen.
func (s *Server) ActualAddr() string {
	return s.listener.Addr().String()
}

// Serve blocks until Shutdown or SIGINT/SIGTERM.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	var eg errgroup.Group
	eg.Go(func() error {
		// unblock the signal watcher when the server stops for any reason
		defer cancel()
		err := s.server.Serve(s.listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		select {
		case <-sig:
		case <-ctx.Done():
		}
		return s.server.Shutdown(context.Background())
	})
	return eg.Wait()
}

func (s *Server) Shutdown() error {
	return s.server.Shutdown(context.Background())
}
