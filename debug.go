package main

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/nf/ic/intcode"
	"github.com/nf/ic/pipe"
)

func (a *app) debugCmd() *cobra.Command {
	var symFile string
	cmd := &cobra.Command{
		Use:   "debug <program>",
		Short: "Step through a program interactively",
		Long: `Load a program into an interactive debugger.

Commands:
  s, step          execute one instruction
  c, continue      run until a breakpoint, a halt, or input is needed
  b, break [addr]  set a breakpoint, or clear all breakpoints
  w, watch addr    show the value at addr
  i, input v,...   queue input values
  t, text line     queue a line of ASCII input
  r, reset         reload the program
  exit             quit

Addresses may be numbers or labels from the --sym file, which holds one
"address label" pair per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			var syms symbols
			if symFile != "" {
				if syms, err = parseSymbols(symFile); err != nil {
					return err
				}
			}
			d := newDebugger(prog, syms)
			log.SetPrefix("")
			log.SetOutput(d.log)
			defer func() {
				log.SetOutput(a.stderr)
				log.SetPrefix("ic: ")
			}()
			go d.loop()
			defer close(d.cmds)
			return d.Run()
		},
	}
	cmd.Flags().StringVar(&symFile, "sym", "", "labels `file`")
	return cmd
}

type stateKind int

const (
	pauseState stateKind = iota
	breakState
	inputState
	haltState
	faultState
)

type debugger struct {
	prog []int64
	m    *intcode.Machine
	in   *pipe.Port
	out  *pipe.Port
	syms symbols

	// Accessed only by the loop goroutine.
	brks    map[int64]symbol
	watches []symbol
	halted  bool
	text    strings.Builder
	pending string

	cmds chan string

	// update applies changes to the views.
	update func(func())

	log   *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application
}

func newDebugger(prog []int64, syms symbols) *debugger {
	d := &debugger{
		prog: prog,
		in:   pipe.NewPort("input"),
		out:  pipe.NewPort("output"),
		syms: syms,
		brks: make(map[int64]symbol),
		cmds: make(chan string, 16),
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	d.m = intcode.NewMachine(prog, d.in, d.out)
	d.update = func(f func()) { d.app.QueueUpdateDraw(f) }
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 3, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		if cmd, arg, ok := strings.Cut(t, " "); ok {
			switch cmd {
			case "b", "break", "w", "watch":
				for _, s := range d.syms.withLabelPrefix(arg) {
					entries = append(entries, cmd+" "+s.label)
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := d.input.GetText()
		if cmd == "" {
			return
		}
		d.input.SetText("")
		if cmd == "exit" {
			d.app.Stop()
			return
		}
		select {
		case d.cmds <- cmd:
		default:
			log.Printf("busy")
		}
	})
	return d
}

func (d *debugger) Run() error { return d.app.Run() }

func (d *debugger) loop() {
	d.show(pauseState)
	for cmd := range d.cmds {
		for cmd != "" {
			d.pending = ""
			d.exec(cmd)
			cmd = d.pending
		}
	}
}

func (d *debugger) exec(line string) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "s", "step":
		d.show(d.step())
		return
	case "c", "continue":
		d.show(d.cont())
		return
	case "b", "break":
		if arg == "" {
			d.brks = make(map[int64]symbol)
			log.Print("cleared breakpoints")
			break
		}
		s, ok := d.syms.resolve(arg)
		if !ok {
			log.Printf("invalid address %q", arg)
			return
		}
		d.brks[s.addr] = s
		log.Printf("set break %s", s)
	case "w", "watch":
		s, ok := d.syms.resolve(arg)
		if !ok {
			log.Printf("invalid address %q", arg)
			return
		}
		d.watches = append(d.watches, s)
		log.Printf("watching %s", s)
	case "i", "input":
		vals, err := intcode.ParseProgram(arg)
		if err != nil {
			log.Printf("input: %v", err)
			return
		}
		for _, v := range vals {
			d.in.Send(v)
		}
	case "t", "text":
		for i := 0; i < len(arg); i++ {
			d.in.Send(int64(arg[i]))
		}
		d.in.Send('\n')
	case "r", "reset":
		d.m.Reset(d.prog)
		d.halted = false
		d.text.Reset()
		for d.in.Len() > 0 {
			d.in.TryRecv()
		}
		log.Print("reset")
	default:
		log.Printf("unknown command %q", cmd)
		return
	}
	d.show(d.kind())
}

// kind reports the machine's state without running it.
func (d *debugger) kind() stateKind {
	switch {
	case d.halted:
		return haltState
	case d.wantsInput():
		return inputState
	case d.atBreak():
		return breakState
	}
	return pauseState
}

func (d *debugger) atBreak() bool {
	_, ok := d.brks[d.m.PC]
	return ok
}

func (d *debugger) wantsInput() bool {
	pc := d.m.PC
	if pc < 0 || pc >= int64(len(d.m.Mem)) {
		return false
	}
	in, err := intcode.Decode(d.m.Mem[pc])
	return err == nil && in.Op == intcode.IN && d.in.Len() == 0
}

// step executes one instruction. It does not execute an IN instruction
// until input has been queued.
func (d *debugger) step() stateKind {
	if d.halted {
		return haltState
	}
	if d.wantsInput() {
		return inputState
	}
	err := d.m.Step()
	d.flush()
	switch {
	case errors.Is(err, intcode.ErrHalt), errors.Is(err, intcode.ErrClosed):
		d.halted = true
		log.Printf("halt after %d steps", d.m.Steps)
		return haltState
	case err != nil:
		d.halted = true
		log.Print(err)
		return faultState
	}
	return d.kind()
}

// cont steps until the machine stops, reaches a breakpoint or needs
// input. A command arriving meanwhile pauses it and is executed next.
func (d *debugger) cont() stateKind {
	for n := 1; ; n++ {
		k := d.step()
		if k != pauseState {
			return k
		}
		if n%10000 == 0 {
			select {
			case cmd, ok := <-d.cmds:
				if ok {
					log.Printf("paused")
					d.pending = cmd
				}
				return pauseState
			default:
			}
		}
	}
}

// flush moves the machine's output to the log.
func (d *debugger) flush() {
	for {
		v, ok, _ := d.out.TryRecv()
		if !ok {
			return
		}
		if v >= 0 && v < 128 {
			if v == '\n' {
				log.Printf("out: %q", d.text.String())
				d.text.Reset()
			} else {
				d.text.WriteByte(byte(v))
			}
			continue
		}
		log.Printf("out: %d", v)
	}
}

func (d *debugger) show(k stateKind) {
	var (
		state = stateMsg(d.syms, d.m, k)
		watch = d.watchContent()
	)
	d.update(func() {
		switch k {
		case pauseState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case breakState, inputState:
			d.state.SetTextColor(tcell.ColorYellow)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case haltState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case faultState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.watch.SetText(watch)
		d.state.SetText(state)
	})
}

func stateMsg(syms symbols, m *intcode.Machine, k stateKind) string {
	var (
		instr, _ = m.Disasm(m.PC)
		pcSym    string
	)
	if s := syms.forAddr(m.PC); len(s) > 0 {
		pcSym = s[0].label + ": "
	}
	kind := "       "
	switch k {
	case breakState:
		kind = "[break]"
	case inputState:
		kind = "[input]"
	case haltState:
		kind = "[halt] "
	case faultState:
		kind = "[FAULT]"
	}
	last := "-"
	if v, ok := m.LastOutput(); ok {
		last = fmt.Sprint(v)
	}
	return fmt.Sprintf("%6d %s %s%s\nrb: %d  steps: %d  mem: %d\nlast output: %s",
		m.PC, kind, pcSym, instr, m.RelBase, m.Steps, len(m.Mem), last)
}

func (d *debugger) watchContent() string {
	var b strings.Builder
	brks := make([]symbol, 0, len(d.brks))
	for _, s := range d.brks {
		brks = append(brks, s)
	}
	sort.Slice(brks, func(i, j int) bool { return brks[i].addr < brks[j].addr })
	for _, s := range brks {
		fmt.Fprintf(&b, "%s [%d] brk!\n", s.label, s.addr)
	}
	for _, w := range d.watches {
		var v int64
		if w.addr < int64(len(d.m.Mem)) {
			v = d.m.Mem[w.addr]
		}
		fmt.Fprintf(&b, "%s [%d] %d\n", w.label, w.addr, v)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
