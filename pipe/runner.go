package pipe

import "github.com/nf/ic/intcode"

// Runner keeps a machine and its goroutine alive across many runs.
// After each run the machine waits for a Reset, which reloads it with a
// new program while keeping its ports, or a Quit.
//
// Neither Reset nor Quit returns until the current run has finished; a
// machine that is blocked waiting for input that never comes blocks them
// forever. Close the machine's input port to make it halt.
type Runner struct {
	options
	name string
	m    *intcode.Machine

	// halted, if set, is called from the runner's goroutine at the end of
	// every run with the run's error.
	halted func(error)

	reset     chan []int64
	resetDone chan error
	quit      chan bool
	quitDone  chan error
}

// NewRunner returns a runner for a machine loaded with program and
// connected to in and out. The machine does not start until Start.
func NewRunner(name string, program []int64, in, out *Port, opts ...Option) *Runner {
	return &Runner{
		options:   newOptions(opts),
		name:      name,
		m:         newMachine(program, in, out),
		reset:     make(chan []int64),
		resetDone: make(chan error),
		quit:      make(chan bool),
		quitDone:  make(chan error),
	}
}

// Start begins the first run.
func (r *Runner) Start() {
	go r.loop()
}

func (r *Runner) loop() {
	for {
		err := runMachine(&r.options, r.name, r.m)
		if r.halted != nil {
			r.halted(err)
		}
		select {
		case prog := <-r.reset:
			r.m.Reset(prog)
			r.resetDone <- err
		case <-r.quit:
			r.quitDone <- err
			return
		}
	}
}

// Reset waits for the current run to finish, reloads the machine with
// program and starts it again. It returns the error from the finished run.
func (r *Runner) Reset(program []int64) error {
	r.reset <- program
	return <-r.resetDone
}

// Quit waits for the current run to finish and stops the runner.
// It returns the error from the finished run.
func (r *Runner) Quit() error {
	r.quit <- true
	return <-r.quitDone
}
