package pipe

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nf/ic/intcode"
)

func mustParse(t *testing.T, s string) []int64 {
	t.Helper()
	prog, err := intcode.ParseProgram(s)
	require.NoError(t, err)
	return prog
}

func TestPermutations(t *testing.T) {
	assert.Nil(t, Permutations(nil))
	assert.Equal(t, [][]int64{{7}}, Permutations([]int64{7}))

	in := []int64{1, 2, 3}
	perms := Permutations(in)
	assert.Len(t, perms, 6)
	assert.Equal(t, in, perms[0])
	assert.Equal(t, []int64{1, 2, 3}, in, "input modified")
	seen := map[string]bool{}
	for _, p := range perms {
		assert.ElementsMatch(t, in, p)
		seen[fmt.Sprint(p)] = true
	}
	assert.Len(t, seen, 6)

	assert.Len(t, Permutations([]int64{0, 1, 2, 3, 4}), 120)
}

func TestMaxSignal(t *testing.T) {
	for _, c := range []struct {
		prog   string
		loop   bool
		want   int64
		phases []int64
	}{
		{
			prog:   "3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0",
			want:   43210,
			phases: []int64{4, 3, 2, 1, 0},
		},
		{
			prog:   "3,23,3,24,1002,24,10,24,1002,23,-1,23,101,5,23,23,1,24,23,23,4,23,99,0,0",
			want:   54321,
			phases: []int64{0, 1, 2, 3, 4},
		},
		{
			prog: "3,26,1001,26,-4,26,3,27,1002,27,2,27,1,27,26,27,4,27,1001,28,-1,28," +
				"1005,28,6,99,0,0,5",
			loop:   true,
			want:   139629729,
			phases: []int64{9, 8, 7, 6, 5},
		},
		{
			prog: "3,52,1001,52,-5,52,3,53,1,52,56,54,1007,54,5,55,1005,55,26,1001,54," +
				"-5,54,1105,1,12,1,53,54,53,1008,54,0,55,1001,55,1,55,2,53,55,53,4," +
				"53,1001,56,-1,56,1005,56,6,99,0,0,0,0,10",
			loop:   true,
			want:   18216,
			phases: []int64{9, 7, 8, 5, 6},
		},
	} {
		settings := []int64{0, 1, 2, 3, 4}
		if c.loop {
			settings = []int64{5, 6, 7, 8, 9}
		}
		prog := mustParse(t, c.prog)
		var (
			got    int64
			phases []int64
			err    error
		)
		waitDone(t, func() {
			got, phases, err = MaxSignal(context.Background(), prog, settings, c.loop)
		})
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
		assert.Equal(t, c.phases, phases)

		waitDone(t, func() {
			got, err = Amplify(context.Background(), prog, c.phases, c.loop)
		})
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestMaxSignalFault(t *testing.T) {
	var err error
	waitDone(t, func() {
		_, _, err = MaxSignal(context.Background(), []int64{3, 0, 42}, []int64{0, 1}, false)
	})
	var f intcode.Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, intcode.InvalidOpcode, f.FaultCode)

	waitDone(t, func() {
		_, _, err = MaxSignal(context.Background(), []int64{3, 0, 42}, []int64{5, 6}, true)
	})
	require.ErrorAs(t, err, &f)
}

func TestMaxSignalCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var err error
	waitDone(t, func() {
		// The amplifiers read forever, so only cancellation ends the search.
		_, _, err = MaxSignal(ctx, []int64{3, 0, 1105, 1, 0}, []int64{0, 1}, false)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaxSignalNoOutput(t *testing.T) {
	silent := []int64{3, 0, 3, 0, 99}
	for _, loop := range []bool{false, true} {
		var err error
		waitDone(t, func() {
			_, _, err = MaxSignal(context.Background(), silent, []int64{0, 1, 2}, loop)
		})
		assert.ErrorIs(t, err, ErrNoOutput, "loop %v", loop)

		waitDone(t, func() {
			_, err = Amplify(context.Background(), silent, []int64{0, 1, 2}, loop)
		})
		assert.ErrorIs(t, err, ErrNoOutput, "loop %v", loop)
	}
}

func TestMaxSignalMatchesAmplify(t *testing.T) {
	// Each amplifier outputs 0 and then its phase plus its signal, so the
	// first amplifier's second output is never read downstream.
	prog := mustParse(t, "3,100,3,101,104,0,1,100,101,102,4,102,99")
	settings := []int64{0, 1, 2}

	var (
		want    int64
		wantPhs []int64
	)
	for i, p := range Permutations(settings) {
		var (
			v   int64
			err error
		)
		waitDone(t, func() {
			v, err = Amplify(context.Background(), prog, p, false)
		})
		require.NoError(t, err)
		assert.Equal(t, p[len(p)-1], v, "phases %v", p)
		if i == 0 || v > want {
			want, wantPhs = v, p
		}
	}

	var (
		got    int64
		phases []int64
		err    error
	)
	waitDone(t, func() {
		got, phases, err = MaxSignal(context.Background(), prog, settings, false)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
	assert.Equal(t, want, got)
	assert.Equal(t, wantPhs, phases)
}

func TestMaxSignalEmpty(t *testing.T) {
	_, _, err := MaxSignal(context.Background(), addOne, nil, false)
	assert.ErrorIs(t, err, ErrNoOutput)
}
