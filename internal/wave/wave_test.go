package wave

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashRangeAndDeterminism(t *testing.T) {
	for i := 0; i <= 2000; i++ {
		seeds := []float64{float64(i), float64(i) + 0.5, float64(i) * 7, -float64(i)}
		for _, s := range seeds {
			h := Hash(s)
			require.GreaterOrEqual(t, h, 0.0)
			require.Less(t, h, 1.0)
			require.Equal(t, h, Hash(s))
		}
	}
}

func TestHashIsNotConstant(t *testing.T) {
	seen := map[int]bool{}
	for i := 1; i <= 100; i++ {
		seen[int(Hash(float64(i))*10)] = true
	}
	require.GreaterOrEqual(t, len(seen), 8, "hash should spread line indices across buckets")
}

func TestDisplacementZeroComplexity(t *testing.T) {
	p := Params{Amplitude: 0.3, Frequency: 12, Complexity: 0, Desync: 1}
	for _, u := range []float64{0, 0.25, 0.5, 1} {
		for line := 0; line < 20; line++ {
			require.Zero(t, Displacement(p, u, line, 3.7))
		}
	}
}

func TestDisplacementZeroAmplitude(t *testing.T) {
	p := Params{Amplitude: 0, Frequency: 40, Complexity: 8, Desync: 1}
	for line := 0; line < 20; line++ {
		require.Zero(t, Displacement(p, 0.4, line, 12.5))
	}
}

func TestDisplacementIsBounded(t *testing.T) {
	for _, amp := range []float64{0.01, 0.1, 0.5, 2, 10} {
		for _, n := range []int{1, 4, 16, 32} {
			p := Params{Amplitude: amp, Frequency: 25, Complexity: n, Desync: 1}
			bound := Bound(p)
			for line := 0; line < 30; line++ {
				for u := 0.0; u <= 1; u += 0.05 {
					d := Displacement(p, u, line, 1.234)
					require.LessOrEqual(t, math.Abs(d), bound+1e-12)
				}
			}
		}
	}
}

func TestBoundGrowsSublinearlyWithAmplitude(t *testing.T) {
	low := Bound(Params{Amplitude: 1, Complexity: 10})
	high := Bound(Params{Amplitude: 100, Complexity: 10})
	require.Greater(t, high, low)
	// Each term saturates at 2 as amplitude grows.
	require.Less(t, high, 2*10.0)
}

func TestStabilityDecreasesWithAmplitude(t *testing.T) {
	prev := Stability(0)
	require.Equal(t, 1.0, prev)
	for a := 0.1; a < 5; a += 0.1 {
		s := Stability(a)
		require.Less(t, s, prev)
		prev = s
	}
}

func TestStableTimeQuantizes(t *testing.T) {
	rate := TimeRate(0)
	require.Equal(t, 20.0, rate)
	require.Equal(t, StableTime(1.0, 0), StableTime(1.0+0.5/rate, 0))
	require.NotEqual(t, StableTime(1.0, 0), StableTime(1.0+1.5/rate, 0))
}

func TestEvaluator32MatchesHostEvaluator(t *testing.T) {
	cases := []Params{
		{Amplitude: 0.05, Frequency: 10, Complexity: 3, Desync: 0.5},
		{Amplitude: 0.2, Frequency: 30, Complexity: 8, Desync: 1},
		{Amplitude: 1.5, Frequency: 4, Complexity: 16, Desync: 0.1},
	}
	const rows = 120
	var e Evaluator32
	for _, p := range cases {
		for _, tm := range []float64{0, 0.016, 5.5, 123.4} {
			e.Prepare(p, rows, tm)
			for line := 0; line < rows; line += 7 {
				for u := 0.0; u <= 1; u += 0.1 {
					want := Displacement(p, u, line, tm)
					got := e.Displacement(float32(u), line)
					require.InDelta(t, want, float64(got), 1e-4, "amp=%v line=%d u=%v t=%v", p.Amplitude, line, u, tm)
				}
			}
		}
	}
}

func TestEvaluator32ZeroOutsidePreparedRows(t *testing.T) {
	var e Evaluator32
	e.Prepare(Params{Amplitude: 0.2, Frequency: 5, Complexity: 2}, 4, 1)
	require.Zero(t, e.Displacement(0.5, 4))
	require.Zero(t, e.Displacement(0.5, -1))

	e.Prepare(Params{Amplitude: 0.2, Frequency: 5, Complexity: 0}, 4, 1)
	require.Zero(t, e.Displacement(0.5, 1))
}
