package intcode

import "fmt"

// Op represents an intcode opcode.
type Op int64

const (
	ADD Op = 1  // mem[c] = a + b
	MUL Op = 2  // mem[c] = a * b
	IN  Op = 3  // mem[a] = input
	OUT Op = 4  // output a
	JNZ Op = 5  // if a != 0 { pc = b }
	JZ  Op = 6  // if a == 0 { pc = b }
	LT  Op = 7  // mem[c] = a < b
	EQ  Op = 8  // mem[c] = a == b
	ARB Op = 9  // relative base += a
	HLT Op = 99 // stop
)

var opNames = map[Op]string{
	ADD: "ADD",
	MUL: "MUL",
	IN:  "IN",
	OUT: "OUT",
	JNZ: "JNZ",
	JZ:  "JZ",
	LT:  "LT",
	EQ:  "EQ",
	ARB: "ARB",
	HLT: "HLT",
}

// Valid reports whether o is a known opcode.
func (o Op) Valid() bool {
	_, ok := opNames[o]
	return ok
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("OP%d", int64(o))
}

// Params reports the number of parameters that follow the opcode.
func (o Op) Params() int {
	switch o {
	case ADD, MUL, LT, EQ:
		return 3
	case JNZ, JZ:
		return 2
	case IN, OUT, ARB:
		return 1
	}
	return 0
}

// Writes reports the index of the parameter that names a write target,
// or -1 if the operation does not write memory.
func (o Op) Writes() int {
	switch o {
	case ADD, MUL, LT, EQ:
		return 2
	case IN:
		return 0
	}
	return -1
}

// Mode is a parameter addressing mode.
type Mode byte

const (
	Position  Mode = 0 // value is an address
	Immediate Mode = 1 // value is a literal
	Relative  Mode = 2 // value is an offset from the relative base
)

func (m Mode) String() string {
	switch m {
	case Position:
		return "position"
	case Immediate:
		return "immediate"
	case Relative:
		return "relative"
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// Instr is a decoded instruction.
type Instr struct {
	Op    Op
	Modes [3]Mode
}

// Decode splits an instruction word into its opcode and parameter modes.
// It returns a Fault (with zero Addr) if either is not recognized.
func Decode(v int64) (Instr, error) {
	in := Instr{Op: Op(v % 100)}
	if !in.Op.Valid() {
		return in, Fault{FaultCode: InvalidOpcode, Instr: v}
	}
	modes := v / 100
	for i := range in.Modes {
		switch m := Mode(modes % 10); m {
		case Position, Immediate, Relative:
			in.Modes[i] = m
		default:
			return in, Fault{FaultCode: InvalidMode, Instr: v}
		}
		modes /= 10
	}
	return in, nil
}

// Encode returns the instruction word for in.
func (in Instr) Encode() int64 {
	v := int64(in.Op)
	scale := int64(100)
	for _, m := range in.Modes {
		v += int64(m) * scale
		scale *= 10
	}
	return v
}

// Format renders the instruction with the given raw parameter values.
func (in Instr) Format(args []int64) string {
	s := in.Op.String()
	for i, a := range args {
		if i >= len(in.Modes) {
			break
		}
		switch in.Modes[i] {
		case Position:
			s += fmt.Sprintf(" [%d]", a)
		case Immediate:
			s += fmt.Sprintf(" #%d", a)
		case Relative:
			s += fmt.Sprintf(" [rb%+d]", a)
		}
	}
	return s
}
