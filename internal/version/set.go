package version

import "fmt"

// Range is the half-open interval [lo, hi) with lo < hi.
type Range struct {
	lo, hi Version
}

// NewRange returns [lo, hi). It panics unless lo < hi.
func NewRange(lo, hi Version) Range {
	if !lo.Less(hi) {
		panic(fmt.Sprintf("version: invalid range [%s, %s)", lo, hi))
	}
	return Range{lo: lo, hi: hi}
}

// Pair returns the range bounds.
func (r Range) Pair() (Version, Version) { return r.lo, r.hi }

// Lo returns the inclusive lower bound.
func (r Range) Lo() Version { return r.lo }

// Hi returns the exclusive upper bound.
func (r Range) Hi() Version { return r.hi }

// Contains reports lo <= v < hi.
func (r Range) Contains(v Version) bool {
	return !v.Less(r.lo) && v.Less(r.hi)
}

// String formats the range as [lo, hi).
func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.lo, r.hi)
}

// IntersectRanges returns the overlap of a and b, if any.
func IntersectRanges(a, b Range) (Range, bool) {
	if !a.lo.Less(b.hi) || !b.lo.Less(a.hi) {
		return Range{}, false
	}
	return Range{lo: Max(a.lo, b.lo), hi: Min(a.hi, b.hi)}, true
}

// Set is one range, or two sorted disjoint ranges. The second range models
// reappearance at [LEGACY, +inf).
type Set struct {
	first     Range
	second    Range
	hasSecond bool
}

// NewSet returns a set made of a single range.
func NewSet(r Range) Set {
	return Set{first: r}
}

// NewSetPair returns a set made of two ranges. It panics unless first ends
// strictly before second starts.
func NewSetPair(first, second Range) Set {
	if !first.hi.Less(second.lo) {
		panic(fmt.Sprintf("version: set ranges %s and %s must be sorted and disjoint", first, second))
	}
	return Set{first: first, second: second, hasSecond: true}
}

// Ranges returns the first range and, when present, the second.
func (s Set) Ranges() (Range, Range, bool) {
	return s.first, s.second, s.hasSecond
}

// Slice returns the ranges in order.
func (s Set) Slice() []Range {
	if s.hasSecond {
		return []Range{s.first, s.second}
	}
	return []Range{s.first}
}

// Contains reports whether any range contains v.
func (s Set) Contains(v Version) bool {
	return s.first.Contains(v) || (s.hasSecond && s.second.Contains(v))
}

// String formats the set.
func (s Set) String() string {
	if s.hasSecond {
		return s.first.String() + " ∪ " + s.second.String()
	}
	return s.first.String()
}

// IntersectSets returns the intersection of a and b, if non-empty. Inputs
// shaped like availabilities never produce more than two pieces; anything
// else is a bug and panics.
func IntersectSets(a, b Set) (Set, bool) {
	var pieces []Range
	for _, x := range a.Slice() {
		for _, y := range b.Slice() {
			r, ok := IntersectRanges(x, y)
			if !ok {
				continue
			}
			if len(pieces) == 2 {
				panic("version: set intersection is more than two pieces")
			}
			pieces = append(pieces, r)
		}
	}
	switch len(pieces) {
	case 0:
		return Set{}, false
	case 1:
		return NewSet(pieces[0]), true
	default:
		return Set{first: pieces[0], second: pieces[1], hasSecond: true}, true
	}
}
