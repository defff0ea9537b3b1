// Package pipe connects intcode machines with blocking ports and runs them
// concurrently, one goroutine per machine.
package pipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nf/ic/intcode"
)

// Option configures a Group or a Runner.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
	logf    func(string, ...any)
}

// WithLogger sets the logger for machine lifecycle events.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records machine activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTrace passes a trace of every executed instruction to logf,
// prefixed by the machine name.
func WithTrace(logf func(string, ...any)) Option {
	return func(o *options) { o.logf = logf }
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

func (o *options) trace(name string) func(string, ...any) {
	if o.logf == nil {
		return nil
	}
	return func(format string, args ...any) {
		o.logf(name+": "+format, args...)
	}
}

// Group runs a set of machines, each on its own goroutine.
//
// When a machine returns, its input and output ports are closed so that
// its neighbours observe the disconnection and halt. If a machine faults,
// or the context passed to NewGroup is cancelled, every port known to the
// group is closed so that no machine is left waiting forever.
//
// Wait must be called once all machines have been spawned.
type Group struct {
	options
	ctx context.Context
	eg  *errgroup.Group

	mu    sync.Mutex
	ports []*Port
	done  bool
}

// NewGroup returns an empty group bound to ctx.
func NewGroup(ctx context.Context, opts ...Option) *Group {
	eg, ctx := errgroup.WithContext(ctx)
	g := &Group{
		options: newOptions(opts),
		ctx:     ctx,
		eg:      eg,
	}
	go func() {
		<-ctx.Done()
		g.closeAll()
	}()
	return g
}

// Connect returns a new port owned by the group.
func (g *Group) Connect(name string) *Port {
	p := NewPort(name)
	g.track(p)
	return p
}

func (g *Group) track(ports ...*Port) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range ports {
		if p == nil {
			continue
		}
		g.ports = append(g.ports, p)
		if g.done {
			p.Close()
		}
	}
}

func (g *Group) closeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.done = true
	for _, p := range g.ports {
		p.Close()
	}
}

// Spawn starts a machine running program, reading from in and writing to
// out. Either port may be nil, which the machine sees as a closed port.
// The returned machine must not be inspected until Wait returns.
func (g *Group) Spawn(name string, program []int64, in, out *Port) *intcode.Machine {
	return g.spawn(name, program, in, out, nil)
}

func (g *Group) spawn(name string, program []int64, in, out *Port, done func(*intcode.Machine)) *intcode.Machine {
	m := newMachine(program, in, out)
	g.track(in, out)
	g.eg.Go(func() error {
		defer closePorts(in, out)
		err := runMachine(&g.options, name, m)
		g.metrics.port(out)
		if done != nil {
			done(m)
		}
		return err
	})
	return m
}

// Wait blocks until every spawned machine has returned. It returns the
// first fault, wrapped with the name of the machine that raised it.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

func newMachine(program []int64, in, out *Port) *intcode.Machine {
	m := intcode.NewMachine(program, nil, nil)
	if in != nil {
		m.In = in
	}
	if out != nil {
		m.Out = out
	}
	return m
}

func closePorts(ports ...*Port) {
	for _, p := range ports {
		if p != nil {
			p.Close()
		}
	}
}

func runMachine(o *options, name string, m *intcode.Machine) error {
	o.logger.Debug("machine start", "machine", name, "size", len(m.Mem))
	o.metrics.start()
	err := m.Run(o.trace(name))
	o.metrics.observe(name, m, err)
	if err != nil {
		o.logger.Error("machine fault", "machine", name, "pc", m.PC, "err", err)
		return fmt.Errorf("machine %s: %w", name, err)
	}
	last, ok := m.LastOutput()
	o.logger.Debug("machine halt", "machine", name, "pc", m.PC, "steps", m.Steps,
		"last_output", last, "has_output", ok)
	return nil
}

// Stage describes one machine in a pipeline.
type Stage struct {
	Name    string
	Program []int64

	// Inputs are queued on the stage's input port before anything else,
	// such as a phase setting.
	Inputs []int64
}

func (s Stage) name(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%c", 'A'+rune(i%26))
}

// inputPorts creates one input port per stage and queues each stage's
// initial inputs, followed by seed on the first port.
func inputPorts(g *Group, stages []Stage, seed []int64) []*Port {
	ports := make([]*Port, len(stages))
	for i, s := range stages {
		ports[i] = g.Connect(s.name(i) + ".in")
		for _, v := range s.Inputs {
			ports[i].Send(v)
		}
	}
	for _, v := range seed {
		ports[0].Send(v)
	}
	return ports
}

// Chain spawns the stages as a linear pipeline in which each stage's
// output feeds the next stage's input, sends seed to the first stage,
// and returns the output port of the last stage. The returned port is
// closed when the last stage halts.
func Chain(g *Group, stages []Stage, seed ...int64) *Port {
	if len(stages) == 0 {
		p := g.Connect("output")
		for _, v := range seed {
			p.Send(v)
		}
		p.Close()
		return p
	}
	ports := inputPorts(g, stages, seed)
	out := g.Connect("output")
	for i, s := range stages {
		next := out
		if i+1 < len(stages) {
			next = ports[i+1]
		}
		g.Spawn(s.name(i), s.Program, ports[i], next)
	}
	return out
}

// Loop spawns the stages as a feedback loop in which the last stage's
// output feeds the first stage's input, and sends seed to the first stage.
// It returns a port that receives the last value output by the last stage
// once that stage halts, and is then closed.
func Loop(g *Group, stages []Stage, seed ...int64) *Port {
	results := g.Connect("results")
	if len(stages) == 0 {
		results.Close()
		return results
	}
	ports := inputPorts(g, stages, seed)
	for i, s := range stages {
		var (
			next = ports[(i+1)%len(ports)]
			done func(*intcode.Machine)
		)
		if i == len(stages)-1 {
			done = func(m *intcode.Machine) {
				if v, ok := m.LastOutput(); ok {
					results.Send(v)
				}
				results.Close()
			}
		}
		g.spawn(s.name(i), s.Program, ports[i], next, done)
	}
	return results
}

// RunChain runs the stages as a linear pipeline and returns every value
// output by the last stage.
func RunChain(ctx context.Context, stages []Stage, seed []int64, opts ...Option) ([]int64, error) {
	g := NewGroup(ctx, opts...)
	out := Chain(g, stages, seed...)
	var vals []int64
	for {
		v, err := out.Recv()
		if err != nil {
			break
		}
		vals = append(vals, v)
	}
	if err := g.Wait(); err != nil {
		return vals, err
	}
	return vals, nil
}

// ErrNoOutput is returned by RunLoop if the last stage never output a value.
var ErrNoOutput = errors.New("pipeline produced no output")

// RunLoop runs the stages as a feedback loop until every stage halts and
// returns the last value output by the last stage.
func RunLoop(ctx context.Context, stages []Stage, seed []int64, opts ...Option) (int64, error) {
	g := NewGroup(ctx, opts...)
	results := Loop(g, stages, seed...)
	v, recvErr := results.Recv()
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if recvErr != nil {
		return 0, ErrNoOutput
	}
	return v, nil
}
