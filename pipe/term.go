package pipe

import (
	"errors"
	"fmt"
	"strings"
)

// NonASCIIError reports a value outside the ASCII range where text was
// expected. Programs often finish a text transcript with a single large
// number, such as a score.
type NonASCIIError struct {
	Value int64
	Text  string // text received before Value
}

func (e NonASCIIError) Error() string {
	return fmt.Sprintf("non-ASCII output %d", e.Value)
}

// Terminal is the host side of a text conversation with a machine.
type Terminal struct {
	to   *Port
	from *Port
}

// NewTerminal returns a terminal that sends to the machine's input port
// and receives from its output port.
func NewTerminal(toMachine, fromMachine *Port) *Terminal {
	return &Terminal{to: toMachine, from: fromMachine}
}

// Send sends values to the machine.
func (t *Terminal) Send(vals ...int64) error {
	for _, v := range vals {
		if err := t.to.Send(v); err != nil {
			return err
		}
	}
	return nil
}

// SendString sends each byte of s to the machine.
func (t *Terminal) SendString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := t.to.Send(int64(s[i])); err != nil {
			return err
		}
	}
	return nil
}

// SendLine sends s followed by a newline.
func (t *Terminal) SendLine(s string) error {
	if err := t.SendString(s); err != nil {
		return err
	}
	return t.to.Send('\n')
}

// Recv receives one value from the machine.
func (t *Terminal) Recv() (int64, error) {
	return t.from.Recv()
}

// RecvAll receives values until the machine's output is closed.
func (t *Terminal) RecvAll() []int64 {
	var vals []int64
	for {
		v, err := t.from.Recv()
		if err != nil {
			return vals
		}
		vals = append(vals, v)
	}
}

// RecvAvailable receives the values already queued, without waiting.
func (t *Terminal) RecvAvailable() []int64 {
	var vals []int64
	for {
		v, ok, _ := t.from.TryRecv()
		if !ok {
			return vals
		}
		vals = append(vals, v)
	}
}

// RecvLine receives ASCII text up to and excluding a newline.
// If the output closes before a newline, the partial line is returned with
// ErrClosed. A non-ASCII value ends the line with a NonASCIIError.
func (t *Terminal) RecvLine() (string, error) {
	var b strings.Builder
	for {
		v, err := t.from.Recv()
		if err != nil {
			return b.String(), err
		}
		if !isASCII(v) {
			return b.String(), NonASCIIError{Value: v, Text: b.String()}
		}
		if v == '\n' {
			return b.String(), nil
		}
		b.WriteByte(byte(v))
	}
}

// DecodeASCII converts vals to text. It stops at the first non-ASCII
// value, returning the text so far and a NonASCIIError.
func DecodeASCII(vals []int64) (string, error) {
	var b strings.Builder
	for _, v := range vals {
		if !isASCII(v) {
			return b.String(), NonASCIIError{Value: v, Text: b.String()}
		}
		b.WriteByte(byte(v))
	}
	return b.String(), nil
}

// IsNonASCII reports whether err is a NonASCIIError, and returns it.
func IsNonASCII(err error) (NonASCIIError, bool) {
	var ne NonASCIIError
	ok := errors.As(err, &ne)
	return ne, ok
}

func isASCII(v int64) bool { return v >= 0 && v < 128 }
