package intcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ProgramError reports a malformed token in program text.
type ProgramError struct {
	Index int    // zero-based position of the token
	Token string // the token as it appeared, trimmed
	Err   error
}

func (e *ProgramError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("program value %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("program value %d %q: %v", e.Index, e.Token, e.Err)
}

func (e *ProgramError) Unwrap() error { return e.Err }

// ErrEmpty is wrapped by ProgramError for empty tokens and empty programs.
var ErrEmpty = errors.New("empty")

// ParseProgram parses comma-separated base-10 integers. Whitespace
// around the program and around each value is ignored.
func ParseProgram(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &ProgramError{Err: ErrEmpty}
	}
	fields := strings.Split(s, ",")
	prog := make([]int64, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, &ProgramError{Index: i, Err: ErrEmpty}
		}
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); ok {
				err = ne.Err
			}
			return nil, &ProgramError{Index: i, Token: f, Err: err}
		}
		prog[i] = v
	}
	return prog, nil
}

// ReadProgram reads all of r and parses it with ParseProgram.
func ReadProgram(r io.Reader) ([]int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseProgram(string(b))
}

// LoadProgram reads and parses the named file.
func LoadProgram(name string) ([]int64, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	prog, err := ParseProgram(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return prog, nil
}
