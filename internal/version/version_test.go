package version

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelOrder(t *testing.T) {
	ordered := []Version{NegInf, MustFrom(1), MustFrom(2), MustFrom(MaxNormal), Next, Head, Legacy, PosInf}
	for i := range ordered {
		for j := range ordered {
			a, b := ordered[i], ordered[j]
			switch {
			case i < j:
				assert.True(t, a.Less(b), "%s < %s", a, b)
				assert.False(t, b.Less(a), "%s < %s", b, a)
			case i == j:
				assert.Equal(t, 0, a.Compare(b))
			}
		}
	}
}

func TestFrom(t *testing.T) {
	tests := []struct {
		in   uint32
		want Version
		ok   bool
	}{
		{in: 0, ok: false},
		{in: 1, want: Version{1}, ok: true},
		{in: MaxNormal, want: Version{MaxNormal}, ok: true},
		{in: MaxNormal + 1, ok: false},
		{in: 0xFFD00000, want: Next, ok: true},
		{in: 0xFFE00000, want: Head, ok: true},
		{in: 0xFFF00000, want: Legacy, ok: true},
		{in: 0xFFFFFFFF, ok: false},
	}
	for _, tt := range tests {
		got, ok := From(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("From(%d) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		ok   bool
	}{
		{in: "", ok: false},
		{in: "0", ok: false},
		{in: "1", want: MustFrom(1), ok: true},
		{in: "2147483647", want: MustFrom(MaxNormal), ok: true},
		{in: "2147483648", ok: false},
		{in: "NEXT", want: Next, ok: true},
		{in: "HEAD", want: Head, ok: true},
		{in: "LEGACY", want: Legacy, ok: true},
		{in: "head", ok: false},
		{in: "-inf", ok: false},
		{in: "+1", ok: false},
		{in: "0x10", ok: false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("Parse(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	samples := []Version{MustFrom(1), MustFrom(MaxNormal), Next, Head, Legacy}
	for range 200 {
		samples = append(samples, MustFrom(rng.Uint32N(MaxNormal)+1))
	}
	for _, v := range samples {
		got, ok := Parse(v.String())
		require.True(t, ok, "Parse(%q)", v.String())
		require.Equal(t, v, got)
	}
}

func TestPredecessorSuccessor(t *testing.T) {
	assert.Equal(t, MustFrom(MaxNormal), Next.Predecessor())
	assert.Equal(t, Next, Head.Predecessor())
	assert.Equal(t, Head, Legacy.Predecessor())
	assert.Equal(t, MustFrom(4), MustFrom(5).Predecessor())

	assert.Equal(t, Next, MustFrom(MaxNormal).Successor())
	assert.Equal(t, Head, Next.Successor())
	assert.Equal(t, Legacy, Head.Successor())
	assert.Equal(t, MustFrom(6), MustFrom(5).Successor())

	for _, v := range []Version{NegInf, PosInf, MustFrom(1)} {
		assert.Panics(t, func() { v.Predecessor() }, "%s.Predecessor()", v)
	}
	for _, v := range []Version{NegInf, PosInf, Legacy} {
		assert.Panics(t, func() { v.Successor() }, "%s.Successor()", v)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "-inf", NegInf.String())
	assert.Equal(t, "+inf", PosInf.String())
	assert.Equal(t, "42", MustFrom(42).String())
	assert.Equal(t, "HEAD", Head.String())
	assert.Panics(t, func() { _ = MustFrom(3).Name() })
}
