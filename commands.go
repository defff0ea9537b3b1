package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nf/ic/intcode"
	"github.com/nf/ic/pipe"
)

type runFlags struct {
	inputs []int64
	text   []string
	ascii  bool
	trace  bool
	patch  map[string]int64
	peek   []int64
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64SliceVarP(&f.inputs, "input", "i", nil,
		"values to send to the program")
	cmd.Flags().StringArrayVarP(&f.text, "text", "t", nil,
		"a line of ASCII text to send to the program (repeatable)")
	cmd.Flags().BoolVar(&f.ascii, "ascii", false,
		"print the program's output as ASCII text")
	cmd.Flags().BoolVar(&f.trace, "trace", false,
		"log every instruction executed")
	cmd.Flags().StringToInt64Var(&f.patch, "patch", nil,
		"set memory before running, as addr=value pairs")
	cmd.Flags().Int64SliceVar(&f.peek, "peek", nil,
		"print the value at these addresses after the program halts")
}

// apply returns a copy of prog with the patches applied.
func (f *runFlags) apply(prog []int64) ([]int64, error) {
	prog = append([]int64(nil), prog...)
	addrs := make([]string, 0, len(f.patch))
	for k := range f.patch {
		addrs = append(addrs, k)
	}
	sort.Strings(addrs)
	for _, k := range addrs {
		addr, err := strconv.ParseInt(k, 0, 64)
		if err != nil || addr < 0 {
			return nil, fmt.Errorf("invalid patch address %q", k)
		}
		for int64(len(prog)) <= addr {
			prog = append(prog, 0)
		}
		prog[addr] = f.patch[k]
	}
	return prog, nil
}

// runResult is what a single machine left behind.
type runResult struct {
	outputs []int64
	m       *intcode.Machine
}

// runProgram runs one machine with the given input and collects its
// output. The input port is closed once the input is queued, so a program
// that wants more input halts instead of waiting forever.
func runProgram(ctx context.Context, prog []int64, f *runFlags, opts []pipe.Option) (runResult, error) {
	prog, err := f.apply(prog)
	if err != nil {
		return runResult{}, err
	}
	g := pipe.NewGroup(ctx, opts...)
	in, out := g.Connect("input"), g.Connect("output")
	term := pipe.NewTerminal(in, out)
	if err := term.Send(f.inputs...); err != nil {
		return runResult{}, err
	}
	for _, line := range f.text {
		if err := term.SendLine(line); err != nil {
			return runResult{}, err
		}
	}
	in.Close()
	m := g.Spawn("main", prog, in, out)
	r := runResult{outputs: term.RecvAll()}
	if err := g.Wait(); err != nil {
		return r, err
	}
	r.m = m
	return r, nil
}

func (r runResult) print(w io.Writer, f *runFlags) {
	printValues(w, r.outputs, f.ascii)
	if r.m == nil {
		return
	}
	for _, addr := range f.peek {
		var v int64
		if addr >= 0 && addr < int64(len(r.m.Mem)) {
			v = r.m.Mem[addr]
		}
		fmt.Fprintf(w, "[%d] = %d\n", addr, v)
	}
}

// printValues prints vals one per line, or as text if ascii is set.
// Values outside the ASCII range are printed as numbers on their own line.
func printValues(w io.Writer, vals []int64, ascii bool) {
	if !ascii {
		for _, v := range vals {
			fmt.Fprintln(w, v)
		}
		return
	}
	for len(vals) > 0 {
		s, err := pipe.DecodeASCII(vals)
		io.WriteString(w, s)
		vals = vals[len(s):]
		if ne, ok := pipe.IsNonASCII(err); ok {
			if len(s) > 0 && s[len(s)-1] != '\n' {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, ne.Value)
			vals = vals[1:]
		}
	}
}

func (a *app) runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program",
		Long: `Run a program on a single machine, sending it the given input and
printing its output. The program halts if it asks for more input than
was given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			r, err := runProgram(cmd.Context(), prog, &f, a.options(f.trace))
			r.print(a.stdout, &f)
			return err
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) ampCmd() *cobra.Command {
	var (
		loop   bool
		phases []int64
		trace  bool
	)
	cmd := &cobra.Command{
		Use:   "amp <program>",
		Short: "Find the best amplifier phase settings",
		Long: `Run a chain of amplifiers, one copy of the program per phase setting,
for every ordering of the phase settings, and print the highest signal
that reaches the end of the chain.

With --loop the last amplifier feeds the first. The default phase
settings are 0 to 4, or 5 to 9 with --loop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			if len(phases) == 0 {
				phases = []int64{0, 1, 2, 3, 4}
				if loop {
					phases = []int64{5, 6, 7, 8, 9}
				}
			}
			best, order, err := pipe.MaxSignal(cmd.Context(), prog, phases, loop, a.options(trace)...)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d (phases %v)\n", best, order)
			return nil
		},
	}
	cmd.Flags().BoolVar(&loop, "loop", false, "connect the amplifiers in a feedback loop")
	cmd.Flags().Int64SliceVar(&phases, "phases", nil, "phase settings to try")
	cmd.Flags().BoolVar(&trace, "trace", false, "log every instruction executed")
	return cmd
}

func (a *app) pipeCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "pipe <config.yaml>",
		Short: "Run a pipeline described by a config file",
		Long: `Run the machines described by a YAML config file as a chain or a
feedback loop, and print the output of the last machine.

	program: amp.txt      # shared program, relative to the config file
	topology: loop        # chain (default) or loop
	seed: [0]             # sent to the first machine after its inputs
	stages:
	  - {name: A, inputs: [9]}
	  - {name: B, inputs: [8], program: other.txt}
	  - {name: C, code: "3,0,4,0,99"}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := pipe.LoadConfig(args[0])
			if err != nil {
				return err
			}
			vals, err := c.Run(cmd.Context(), a.options(trace)...)
			printValues(a.stdout, vals, false)
			return err
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "log every instruction executed")
	return cmd
}

func (a *app) disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <program>",
		Short: "Print a program's instructions",
		Long: `Print a program as a listing of instructions. Words that do not decode
as instructions are printed as DATA.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			disasm(a.stdout, prog, nil)
			return nil
		},
	}
}

func disasm(w io.Writer, prog []int64, syms symbols) {
	m := intcode.NewMachine(prog, nil, nil)
	for addr := int64(0); addr < int64(len(prog)); {
		for _, s := range syms.forAddr(addr) {
			fmt.Fprintf(w, "%s:\n", s.label)
		}
		s, n := m.Disasm(addr)
		fmt.Fprintf(w, "%6d  %s\n", addr, s)
		addr += n
	}
}
