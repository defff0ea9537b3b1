package main

import (
	"bufio"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/nf/ic/intcode"
	"github.com/nf/ic/pipe"
)

func (a *app) consoleCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "console <program>",
		Short: "Run an ASCII program interactively",
		Long: `Run a program that talks ASCII, sending it each line read from
standard input and printing its output as it arrives. Output outside the
ASCII range is printed as a number on its own line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			g := pipe.NewGroup(cmd.Context(), a.options(trace)...)
			in, out := g.Connect("console.in"), g.Connect("console.out")
			g.Spawn("console", prog, in, out)
			term := pipe.NewTerminal(in, out)
			go readInput(a.stdin, term, in)
			writeOutput(a.stdout, out)
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "log every instruction executed")
	return cmd
}

// readInput sends each line of r to the machine, and closes its input at
// the end of r.
func readInput(r io.Reader, term *pipe.Terminal, in *pipe.Port) {
	defer in.Close()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := term.SendLine(sc.Text()); err != nil {
			// The machine has halted.
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Printf("reading input: %v", err)
	}
}

// writeOutput prints the machine's output until it halts, flushing
// whenever the machine has nothing more to say for now.
func writeOutput(w io.Writer, out *pipe.Port) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for {
		v, err := out.Recv()
		if err != nil {
			return
		}
		if v >= 0 && v < 128 {
			bw.WriteByte(byte(v))
		} else {
			fmt.Fprintf(bw, "\n%d\n", v)
		}
		if out.Len() == 0 {
			bw.Flush()
		}
	}
}
