package version

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(n uint32) Version { return MustFrom(n) }

func TestRangeContains(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for range 500 {
		a := rng.Uint32N(100) + 1
		b := a + rng.Uint32N(100) + 1
		x := rng.Uint32N(250) + 1
		r := NewRange(v(a), v(b))
		want := a <= x && x < b
		require.Equal(t, want, r.Contains(v(x)), "%s contains %d", r, x)
	}
	r := NewRange(v(3), PosInf)
	assert.True(t, r.Contains(Head))
	assert.True(t, r.Contains(Legacy))
	assert.False(t, r.Contains(PosInf))
}

func TestNewRangePanicsWhenEmpty(t *testing.T) {
	assert.Panics(t, func() { NewRange(v(2), v(2)) })
	assert.Panics(t, func() { NewRange(v(3), v(2)) })
}

func TestIntersectRanges(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Range
		want   Range
		wantOK bool
	}{
		{name: "disjoint", a: NewRange(v(1), v(3)), b: NewRange(v(5), v(7))},
		{name: "touching", a: NewRange(v(1), v(3)), b: NewRange(v(3), v(7))},
		{name: "overlap", a: NewRange(v(1), v(5)), b: NewRange(v(3), v(7)), want: NewRange(v(3), v(5)), wantOK: true},
		{name: "nested", a: NewRange(v(1), PosInf), b: NewRange(v(3), v(7)), want: NewRange(v(3), v(7)), wantOK: true},
		{name: "legacy", a: NewRange(NegInf, PosInf), b: NewRange(Legacy, PosInf), want: NewRange(Legacy, PosInf), wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IntersectRanges(tt.a, tt.b)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
			got2, ok2 := IntersectRanges(tt.b, tt.a)
			assert.Equal(t, ok, ok2)
			assert.Equal(t, got, got2)
		})
	}
}

func TestSetContains(t *testing.T) {
	s := NewSetPair(NewRange(v(2), v(5)), NewRange(Legacy, PosInf))
	assert.False(t, s.Contains(v(1)))
	assert.True(t, s.Contains(v(2)))
	assert.False(t, s.Contains(v(5)))
	assert.False(t, s.Contains(Head))
	assert.True(t, s.Contains(Legacy))
	assert.Panics(t, func() { NewSetPair(NewRange(v(2), Legacy), NewRange(Legacy, PosInf)) })
}

// availabilityShapedSet returns a set the way Availability.Set builds one: a
// primary range ending before LEGACY and, optionally, [LEGACY, +inf).
func availabilityShapedSet(rng *rand.Rand) Set {
	bounds := []Version{NegInf, v(1), v(2), v(3), v(5), v(8), v(13), Next, Head, PosInf}
	i := rng.IntN(len(bounds) - 1)
	j := i + 1 + rng.IntN(len(bounds)-i-1)
	primary := NewRange(bounds[i], bounds[j])
	if primary.Hi() != PosInf && rng.IntN(2) == 0 {
		return NewSetPair(primary, NewRange(Legacy, PosInf))
	}
	return NewSet(primary)
}

func TestIntersectSetsNeverExceedsTwoPieces(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	probes := []Version{NegInf, v(1), v(2), v(4), v(7), v(12), v(20), Next, Head, Legacy}
	for range 2000 {
		a, b := availabilityShapedSet(rng), availabilityShapedSet(rng)
		var got Set
		var ok bool
		require.NotPanics(t, func() { got, ok = IntersectSets(a, b) }, "%s ∩ %s", a, b)
		for _, p := range probes {
			want := a.Contains(p) && b.Contains(p)
			if !ok {
				require.False(t, want, "%s ∩ %s should contain %s", a, b, p)
				continue
			}
			require.Equal(t, want, got.Contains(p), "(%s ∩ %s) = %s at %s", a, b, got, p)
		}
	}
}

func TestIntersectSetsPanicsOnThreePieces(t *testing.T) {
	a := NewSetPair(NewRange(v(1), v(10)), NewRange(v(20), v(30)))
	b := NewSetPair(NewRange(v(5), v(8)), NewRange(v(9), v(25)))
	assert.Panics(t, func() { IntersectSets(a, b) })
}
