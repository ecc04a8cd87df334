// Copyright © 2017 yuuki0xff <yuuki0xff@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yuuki0xff/ctrace/config"
	"github.com/yuuki0xff/ctrace/info"
	"github.com/yuuki0xff/ctrace/tracer/render"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <trace-file>",
	Short: "Convert a saved trace to a viewer format",
	RunE: wrap(func(conf *config.Config, cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errInvalidArgs
		}

		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return err
		}

		traces, err := loadTraces(args)
		if err != nil {
			return err
		}
		if len(traces) == 0 {
			return fmt.Errorf("%s holds no traces", args[0])
		}
		// container files may hold many thread traces; only the first one
		// is converted.
		t := traces[0]

		if output == "" {
			output = strings.TrimSuffix(args[0], info.TraceFileExt)
		}
		if all {
			return writeAllFormats(conf, t, output)
		}
		return writeFormat(conf, t, format, output+extOf(format))
	}),
}

func extOf(format string) string {
	switch format {
	case "chrome":
		return ".chrome.json"
	case "csv":
		return ".csv"
	default:
		return ".speedscope.json"
	}
}

func writeFormat(conf *config.Config, t *types.Trace, format, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() // nolint: errcheck

	switch format {
	case "speedscope":
		return render.SpeedscopeJSON(f, t, conf.Tracer.MaxSpeedscopeEvents)
	case "chrome":
		return render.ChromeTracingJSON(f, t)
	case "csv":
		return render.SummaryCSV(f, t)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeAllFormats(conf *config.Config, t *types.Trace, output string) error {
	var eg errgroup.Group
	for _, format := range []string{"speedscope", "chrome", "csv"} {
		format := format
		eg.Go(func() error {
			return writeFormat(conf, t, format, output+extOf(format))
		})
	}
	return eg.Wait()
}

func init() {
	RootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("format", "f", "speedscope", "output format (speedscope|chrome|csv)")
	convertCmd.Flags().StringP("output", "o", "", "output path without extension")
	convertCmd.Flags().Bool("all", false, "write every format")
}
