package pipe

import (
	"fmt"
	"sync"

	"github.com/nf/ic/intcode"
)

// ErrClosed is returned by Port operations after the port has been closed.
var ErrClosed = intcode.ErrClosed

// Port is an unbounded FIFO queue of integers connecting one producer to
// one consumer. Send never blocks. Recv blocks until a value is available
// or the port is closed.
//
// Either end may close a Port. Values already queued can still be received
// after Close; once they are drained Recv reports ErrClosed. Send on a
// closed port reports ErrClosed and drops the value.
type Port struct {
	name string

	mu     sync.Mutex
	cond   sync.Cond
	buf    []int64
	closed bool
	sent   int64
}

var (
	_ intcode.Input  = (*Port)(nil)
	_ intcode.Output = (*Port)(nil)
)

// NewPort returns an open, empty port. The name is used in errors and logs.
func NewPort(name string) *Port {
	p := &Port{name: name}
	p.cond.L = &p.mu
	return p
}

func (p *Port) String() string { return p.name }

// Send queues v for the consumer.
func (p *Port) Send(v int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("send on %s: %w", p.name, ErrClosed)
	}
	p.buf = append(p.buf, v)
	p.sent++
	p.cond.Signal()
	return nil
}

// Recv returns the oldest queued value, waiting for one if necessary.
func (p *Port) Recv() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.buf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.buf) == 0 {
		return 0, fmt.Errorf("receive on %s: %w", p.name, ErrClosed)
	}
	return p.pop(), nil
}

// TryRecv is like Recv but does not wait. It reports ok == false if no
// value is queued; err is ErrClosed if none ever will be.
func (p *Port) TryRecv() (v int64, ok bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) > 0 {
		return p.pop(), true, nil
	}
	if p.closed {
		return 0, false, fmt.Errorf("receive on %s: %w", p.name, ErrClosed)
	}
	return 0, false, nil
}

func (p *Port) pop() int64 {
	v := p.buf[0]
	p.buf[0] = 0
	p.buf = p.buf[1:]
	if len(p.buf) == 0 {
		p.buf = nil
	}
	return v
}

// Close marks the port closed and wakes any waiting receiver.
// Closing a closed port has no effect.
func (p *Port) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.cond.Broadcast()
	}
}

// reopen discards any queued values and reopens the port.
func (p *Port) reopen() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = nil
	p.closed = false
}

// Closed reports whether Close has been called.
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Len returns the number of queued values.
func (p *Port) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// Sent returns the number of values accepted by Send.
func (p *Port) Sent() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}
