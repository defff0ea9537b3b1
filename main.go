// Command ic runs intcode programs.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nf/ic/pipe"
)

func main() {
	log.SetPrefix("ic: ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// app holds the state shared by all commands.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	verbose bool
	stats   bool

	reg     *prometheus.Registry
	metrics *pipe.Metrics
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "ic",
		Short: "Run intcode programs",
		Long: `ic runs intcode programs, alone or connected together as pipelines
of concurrently running machines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.reg = prometheus.NewRegistry()
			a.metrics = pipe.NewMetrics(a.reg)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.stats {
				return nil
			}
			return printStats(a.stderr, a.reg)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"log machine start and halt events")
	root.PersistentFlags().BoolVar(&a.stats, "stats", false,
		"print machine counters when the command finishes")

	root.AddCommand(
		a.runCmd(),
		a.consoleCmd(),
		a.ampCmd(),
		a.pipeCmd(),
		a.arcadeCmd(),
		a.paintCmd(),
		a.devCmd(),
		a.debugCmd(),
		a.disasmCmd(),
	)
	return root
}

// options returns the pipeline options for a command.
func (a *app) options(trace bool) []pipe.Option {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	opts := []pipe.Option{
		pipe.WithLogger(logger),
		pipe.WithMetrics(a.metrics),
	}
	if trace {
		opts = append(opts, pipe.WithTrace(log.New(a.stderr, "", 0).Printf))
	}
	return opts
}

func printStats(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			v := m.GetCounter().GetValue()
			if gauge := m.GetGauge(); gauge != nil {
				v = gauge.GetValue()
			}
			fmt.Fprintf(w, "%s %g\n", name, v)
		}
	}
	return nil
}
