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
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yuuki0xff/ctrace/config"
	"github.com/yuuki0xff/ctrace/tracer/logutil"
	"github.com/yuuki0xff/ctrace/tracer/render"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <trace-file>...",
	Short: "Show per-location statistics of saved traces",
	RunE: wrap(func(conf *config.Config, cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errInvalidArgs
		}
		return runStats(cmd, args)
	}),
}

func runStats(cmd *cobra.Command, args []string) error {
	traces, err := loadTraces(args)
	if err != nil {
		return err
	}

	tbl := defaultTable(cmd.OutOrStdout())
	tbl.SetHeader([]string{
		"trace",
		"location",
		"samples",
		"total",
		"avg",
	})

	for _, t := range traces {
		stats := logutil.ComputeLocationStats(t)
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].TotalCycles > stats[j].TotalCycles
		})

		secPerCycle := 0.0
		if t.ElapsedCycles() > 0 {
			secPerCycle = t.ElapsedSeconds() / float64(t.ElapsedCycles())
		}
		for _, s := range stats {
			tbl.Append([]string{
				t.Name,
				s.Loc.String(),
				strconv.Itoa(s.Samples),
				render.TimeString(float64(s.TotalCycles) * secPerCycle),
				render.TimeString(float64(s.TotalCycles) * secPerCycle / float64(s.Samples)),
			})
		}
	}
	tbl.Render()
	return nil
}

func init() {
	RootCmd.AddCommand(statsCmd)
}
