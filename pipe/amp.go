package pipe

import (
	"context"
	"fmt"
)

// Permutations returns every ordering of vals, generated by Heap's
// algorithm. The first permutation is vals itself.
func Permutations(vals []int64) [][]int64 {
	if len(vals) == 0 {
		return nil
	}
	var (
		a   = append([]int64(nil), vals...)
		out [][]int64
	)
	var gen func(k int)
	gen = func(k int) {
		if k == 1 {
			out = append(out, append([]int64(nil), a...))
			return
		}
		gen(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				a[i], a[k-1] = a[k-1], a[i]
			} else {
				a[0], a[k-1] = a[k-1], a[0]
			}
			gen(k - 1)
		}
	}
	gen(len(a))
	return out
}

func ampStages(program []int64, phases []int64) []Stage {
	stages := make([]Stage, len(phases))
	for i, p := range phases {
		stages[i] = Stage{Program: program, Inputs: []int64{p}}
	}
	return stages
}

// Amplify runs one copy of program per phase setting, each given its
// phase as its first input, and sends 0 to the first. If loop is set the
// last amplifier feeds the first. It returns the last signal output by
// the last amplifier.
func Amplify(ctx context.Context, program []int64, phases []int64, loop bool, opts ...Option) (int64, error) {
	if loop {
		return RunLoop(ctx, ampStages(program, phases), []int64{0}, opts...)
	}
	vals, err := RunChain(ctx, ampStages(program, phases), []int64{0}, opts...)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, ErrNoOutput
	}
	return vals[len(vals)-1], nil
}

// MaxSignal tries every ordering of settings and returns the highest
// signal Amplify produces, along with the phases that produced it.
func MaxSignal(ctx context.Context, program []int64, settings []int64, loop bool, opts ...Option) (int64, []int64, error) {
	perms := Permutations(settings)
	if len(perms) == 0 {
		return 0, nil, ErrNoOutput
	}
	if !loop {
		return maxChain(ctx, program, perms, opts)
	}
	var (
		best   int64
		phases []int64
	)
	for i, p := range perms {
		v, err := Amplify(ctx, program, p, true, opts...)
		if err != nil {
			return 0, nil, fmt.Errorf("phases %v: %w", p, err)
		}
		if i == 0 || v > best {
			best, phases = v, p
		}
	}
	return best, phases, nil
}

// maxChain searches linear pipelines with one long-lived Runner per
// amplifier, resetting each after every permutation. As in a Group, an
// amplifier that halts closes its input and output ports, and a fault
// closes them all.
func maxChain(ctx context.Context, program []int64, perms [][]int64, opts []Option) (best int64, phases []int64, err error) {
	n := len(perms[0])
	ports := make([]*Port, n+1)
	for i := range ports {
		ports[i] = NewPort(fmt.Sprintf("amp%d", i))
	}
	closeAll := func() {
		for _, p := range ports {
			p.Close()
		}
	}

	finished := make(chan error, n)
	runners := make([]*Runner, n)
	for i := range runners {
		runners[i] = NewRunner(Stage{}.name(i), program, ports[i], ports[i+1], opts...)
		runners[i].halted = func(err error) {
			ports[i].Close()
			ports[i+1].Close()
			finished <- err
		}
		runners[i].Start()
	}
	defer func() {
		closeAll()
		for _, r := range runners {
			if qerr := r.Quit(); err == nil && qerr != nil {
				err = qerr
			}
		}
		if err != nil {
			best, phases = 0, nil
		}
	}()

	// await waits until every runner has finished its run and returns the
	// first fault.
	await := func() error {
		var (
			first error
			done  = ctx.Done()
		)
		for k := 0; k < n; {
			select {
			case err := <-finished:
				k++
				if err != nil && first == nil {
					first = err
					closeAll()
				}
			case <-done:
				done = nil
				closeAll()
			}
		}
		return first
	}

	end := ports[n]
	for i, p := range perms {
		for j := n - 1; j >= 0; j-- {
			ports[j].Send(p[j])
		}
		ports[0].Send(0)

		if err := await(); err != nil {
			return 0, nil, fmt.Errorf("phases %v: %w", p, err)
		}
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		v, ok := lastValue(end)
		if !ok {
			return 0, nil, fmt.Errorf("phases %v: %w", p, ErrNoOutput)
		}
		if i == 0 || v > best {
			best, phases = v, p
		}

		// Every machine is idle; nothing from this run may reach the next.
		for _, port := range ports {
			port.reopen()
		}
		for _, r := range runners {
			if rerr := r.Reset(program); rerr != nil {
				return 0, nil, fmt.Errorf("phases %v: %w", p, rerr)
			}
		}
	}
	return best, phases, nil
}

// lastValue drains p and returns the last value it held.
func lastValue(p *Port) (v int64, ok bool) {
	for {
		w, got, _ := p.TryRecv()
		if !got {
			return v, ok
		}
		v, ok = w, true
	}
}
