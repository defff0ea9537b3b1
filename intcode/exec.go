// Package intcode provides an implementation of an intcode computer,
// called Machine, that executes programs made of signed 64-bit integers.
package intcode

import (
	"errors"
	"fmt"
)

// Machine is an intcode computer.
//
// A Machine is not safe for concurrent use. While Run is executing, only
// the goroutine calling Run may touch Mem and the registers.
type Machine struct {
	Mem     []int64
	PC      int64
	RelBase int64
	In      Input
	Out     Output

	// Steps counts the instructions executed since the last Reset.
	Steps int64

	last    int64
	hasLast bool
}

// Input supplies values to the IN instruction.
// Recv blocks until a value is available. It returns an error wrapping
// ErrClosed when no more values will ever arrive.
type Input interface {
	Recv() (int64, error)
}

// Output accepts values from the OUT instruction.
// Send returns an error wrapping ErrClosed when the value cannot be
// delivered because the consumer has gone away.
type Output interface {
	Send(v int64) error
}

var (
	// ErrHalt is returned by Step when it executes HLT.
	ErrHalt = errors.New("halt")

	// ErrClosed reports that a port was closed. Step returns it when an
	// IN or OUT instruction finds its port closed; the machine stops
	// without advancing PC.
	ErrClosed = errors.New("port closed")
)

// NewMachine returns a Machine loaded with a copy of program and connected
// to the given ports. A nil port behaves as a closed one.
func NewMachine(program []int64, in Input, out Output) *Machine {
	m := &Machine{In: in, Out: out}
	m.Reset(program)
	return m
}

// Reset reloads memory from program and clears the registers, the step
// count and the last output. The ports are kept.
func (m *Machine) Reset(program []int64) {
	m.Mem = append(m.Mem[:0], program...)
	m.PC = 0
	m.RelBase = 0
	m.Steps = 0
	m.last, m.hasLast = 0, false
}

// LastOutput returns the most recent value passed to OUT, including a
// value that could not be delivered because the output port was closed.
func (m *Machine) LastOutput() (int64, bool) {
	return m.last, m.hasLast
}

// Run executes instructions until the machine halts, either by executing
// HLT or by finding one of its ports closed, in which case it returns nil.
// It returns a Fault if an instruction cannot be executed, or the error
// returned by a port if that error does not wrap ErrClosed.
// If logf is non-nil it is called with a trace of each instruction.
func (m *Machine) Run(logf func(string, ...any)) error {
	for {
		if logf != nil {
			s, _ := m.Disasm(m.PC)
			logf("%6d rb=%-6d %s", m.PC, m.RelBase, s)
		}
		if err := m.Step(); err != nil {
			if errors.Is(err, ErrHalt) || errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// Step executes the instruction at m.PC. It returns ErrHalt if that
// instruction is HLT, ErrClosed if it is an IN or OUT whose port is closed,
// and a Fault if the instruction is malformed or addresses negative memory.
func (m *Machine) Step() (err error) {
	var (
		pc   = m.PC
		word int64
	)
	defer func() {
		if e := recover(); e != nil {
			if code, ok := e.(FaultCode); ok {
				err = Fault{FaultCode: code, Instr: word, Addr: pc}
			} else {
				panic(e)
			}
		}
	}()

	word = m.load(pc)
	in, err := Decode(word)
	if err != nil {
		f := err.(Fault)
		f.Addr = pc
		return f
	}

	// Resolve every parameter before anything is written.
	var (
		n    = in.Op.Params()
		w    = in.Op.Writes()
		args [3]int64
	)
	for i := 0; i < n; i++ {
		raw := m.load(pc + 1 + int64(i))
		if i == w {
			args[i] = m.addr(in.Modes[i], raw)
		} else {
			args[i] = m.value(in.Modes[i], raw)
		}
	}
	next := pc + 1 + int64(n)

	switch in.Op {
	case HLT:
		return ErrHalt
	case ADD:
		m.store(args[2], args[0]+args[1])
	case MUL:
		m.store(args[2], args[0]*args[1])
	case LT:
		m.store(args[2], boolInt(args[0] < args[1]))
	case EQ:
		m.store(args[2], boolInt(args[0] == args[1]))
	case IN:
		if m.In == nil {
			return ErrClosed
		}
		v, err := m.In.Recv()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return ErrClosed
			}
			return fmt.Errorf("input at %d: %w", pc, err)
		}
		m.store(args[0], v)
	case OUT:
		m.last, m.hasLast = args[0], true
		if m.Out == nil {
			return ErrClosed
		}
		if err := m.Out.Send(args[0]); err != nil {
			if errors.Is(err, ErrClosed) {
				return ErrClosed
			}
			return fmt.Errorf("output at %d: %w", pc, err)
		}
	case JNZ:
		if args[0] != 0 {
			next = args[1]
		}
	case JZ:
		if args[0] == 0 {
			next = args[1]
		}
	case ARB:
		m.RelBase += args[0]
	default:
		panic(fmt.Errorf("internal error: %v not implemented", in.Op))
	}

	m.PC = next
	m.Steps++
	return nil
}

// value resolves an input parameter.
func (m *Machine) value(mode Mode, raw int64) int64 {
	switch mode {
	case Immediate:
		return raw
	case Relative:
		return m.load(m.RelBase + raw)
	default:
		return m.load(raw)
	}
}

// addr resolves a write target.
func (m *Machine) addr(mode Mode, raw int64) int64 {
	switch mode {
	case Immediate:
		panic(ImmediateWrite)
	case Relative:
		return m.RelBase + raw
	default:
		return raw
	}
}

// load returns mem[addr]; memory past the end reads as zero.
func (m *Machine) load(addr int64) int64 {
	if addr < 0 {
		panic(BadAddress)
	}
	if addr >= int64(len(m.Mem)) {
		return 0
	}
	return m.Mem[addr]
}

// MaxMem is the largest memory size, in words, a Machine grows to.
// A write at or beyond it faults with BadAddress.
const MaxMem = 1 << 24

// store sets mem[addr], growing memory to addr+1 if necessary.
func (m *Machine) store(addr, v int64) {
	if addr < 0 || addr >= MaxMem {
		panic(BadAddress)
	}
	if n := addr + 1 - int64(len(m.Mem)); n > 0 {
		m.Mem = append(m.Mem, make([]int64, n)...)
	}
	m.Mem[addr] = v
}

// Disasm renders the instruction at addr and returns its length in words.
// A word that does not decode is rendered as data with length 1.
func (m *Machine) Disasm(addr int64) (string, int64) {
	if addr < 0 {
		return "??", 1
	}
	word := m.load(addr)
	in, err := Decode(word)
	if err != nil {
		return fmt.Sprintf("DATA %d", word), 1
	}
	args := make([]int64, in.Op.Params())
	for i := range args {
		args[i] = m.load(addr + 1 + int64(i))
	}
	return in.Format(args), int64(len(args)) + 1
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Fault is returned by Step and Run if an instruction cannot be executed.
type Fault struct {
	FaultCode
	Instr int64
	Addr  int64
}

func (e Fault) Error() string {
	return fmt.Sprintf("%s executing %d at %d", e.FaultCode, e.Instr, e.Addr)
}

// FaultCode signifies the type of condition that stopped execution.
type FaultCode byte

const (
	InvalidOpcode  FaultCode = 0x01
	InvalidMode    FaultCode = 0x02
	BadAddress     FaultCode = 0x03
	ImmediateWrite FaultCode = 0x04
)

func (c FaultCode) String() string {
	if s, ok := map[FaultCode]string{
		InvalidOpcode:  "invalid opcode",
		InvalidMode:    "invalid parameter mode",
		BadAddress:     "negative address",
		ImmediateWrite: "immediate write target",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}
