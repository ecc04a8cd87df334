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
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yuuki0xff/ctrace/config"
	"github.com/yuuki0xff/ctrace/httpserver"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <trace-file>...",
	Short: "Serve saved traces over HTTP",
	RunE: wrap(func(conf *config.Config, cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errInvalidArgs
		}

		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return err
		}
		if addr == "" {
			addr = conf.Server.Addr
		}

		traces, err := loadTraces(args)
		if err != nil {
			return err
		}

		srv := &httpserver.Server{
			Addr:                addr,
			Source:              httpserver.StaticSource(traces),
			MaxSpeedscopeEvents: conf.Tracer.MaxSpeedscopeEvents,
		}
		if err := srv.Listen(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "serving %d traces on http://%s\n", len(traces), srv.ActualAddr())
		return srv.Serve(context.Background())
	}),
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
}
