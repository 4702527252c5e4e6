// Package version implements the API level algebra used by availability
// tracking: ordered versions with sentinels, half-open ranges, and sets of at
// most two ranges.
package version

import (
	"fmt"
	"strconv"
)

// MaxNormal is the largest normal (numbered) version.
const MaxNormal uint32 = 1<<31 - 1

// Version is an API level. Normal versions are 1..MaxNormal; the remaining
// values are sentinels ordered NegInf < normal < Next < Head < Legacy < PosInf.
// The zero Version is NegInf.
type Version struct {
	value uint32
}

var (
	// NegInf is below every other version.
	NegInf = Version{0}
	// Next is the in-development level.
	Next = Version{0xFFD00000}
	// Head is the latest level.
	Head = Version{0xFFE00000}
	// Legacy is the level at which removed legacy elements reappear.
	Legacy = Version{0xFFF00000}
	// PosInf is above every other version.
	PosInf = Version{0xFFFFFFFF}
)

// named lists the sentinels that have a source spelling, in order.
var named = [...]Version{Next, Head, Legacy}

// From converts a number to a version. It accepts normal numbers and the
// encodings of the named sentinels.
func From(number uint32) (Version, bool) {
	for _, v := range named {
		if number == v.value {
			return v, true
		}
	}
	if number == 0 || number > MaxNormal {
		return Version{}, false
	}
	return Version{number}, true
}

// MustFrom is like From but panics on invalid numbers. Intended for tests and
// constant tables.
func MustFrom(number uint32) Version {
	v, ok := From(number)
	if !ok {
		panic(fmt.Sprintf("version: invalid number %d", number))
	}
	return v
}

// Parse parses a decimal version or one of NEXT, HEAD, LEGACY.
func Parse(text string) (Version, bool) {
	if text == "" {
		return Version{}, false
	}
	for _, v := range named {
		if text == v.Name() {
			return v, true
		}
	}
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return Version{}, false
	}
	return From(uint32(n))
}

// Number returns the underlying encoding.
func (v Version) Number() uint32 { return v.value }

// IsNormal reports whether v is a numbered version.
func (v Version) IsNormal() bool { return v.value >= 1 && v.value <= MaxNormal }

// IsNamed reports whether v is NEXT, HEAD or LEGACY.
func (v Version) IsNamed() bool {
	for _, n := range named {
		if v == n {
			return true
		}
	}
	return false
}

// Name returns the source spelling of a named sentinel.
func (v Version) Name() string {
	switch v {
	case Next:
		return "NEXT"
	case Head:
		return "HEAD"
	case Legacy:
		return "LEGACY"
	default:
		panic(fmt.Sprintf("version: %d is not a named version", v.value))
	}
}

// String formats the version.
func (v Version) String() string {
	switch v {
	case NegInf:
		return "-inf"
	case PosInf:
		return "+inf"
	case Next, Head, Legacy:
		return v.Name()
	default:
		return strconv.FormatUint(uint64(v.value), 10)
	}
}

// Compare returns -1, 0 or +1.
func (v Version) Compare(other Version) int {
	switch {
	case v.value < other.value:
		return -1
	case v.value > other.value:
		return 1
	default:
		return 0
	}
}

// Less reports v < other.
func (v Version) Less(other Version) bool { return v.value < other.value }

// Predecessor returns the version immediately before v.
func (v Version) Predecessor() Version {
	if v == NegInf || v == PosInf || v == (Version{1}) {
		panic(fmt.Sprintf("version: %s has no predecessor", v))
	}
	if v == named[0] {
		return Version{MaxNormal}
	}
	for i := 1; i < len(named); i++ {
		if v == named[i] {
			return named[i-1]
		}
	}
	return Version{v.value - 1}
}

// Successor returns the version immediately after v.
func (v Version) Successor() Version {
	if v == NegInf || v == PosInf || v == named[len(named)-1] {
		panic(fmt.Sprintf("version: %s has no successor", v))
	}
	if v.value == MaxNormal {
		return named[0]
	}
	for i := 0; i < len(named)-1; i++ {
		if v == named[i] {
			return named[i+1]
		}
	}
	return Version{v.value + 1}
}

// Max returns the larger of a and b.
func Max(a, b Version) Version {
	if a.Less(b) {
		return b
	}
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Version) Version {
	if b.Less(a) {
		return b
	}
	return a
}
