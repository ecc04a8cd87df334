package cmd

import (
	"github.com/pkg/errors"

	"github.com/yuuki0xff/ctrace/tracer/storage"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

var (
	errInvalidArgs = errors.New("invalid args")
)

// loadTraces reads every trace from the given container files.
func loadTraces(paths []string) ([]*types.Trace, error) {
	var traces []*types.Trace
	for _, path := range paths {
		ts, err := storage.LoadTraces(path)
		if err != nil {
			return nil, err
		}
		traces = append(traces, ts...)
	}
	return traces, nil
}
