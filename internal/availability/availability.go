// Package availability tracks when a declaration or member is added,
// deprecated, removed or replaced, and whether it reappears at LEGACY.
package availability

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jacoelho/idlc/internal/version"
)

// State is the lifecycle position of an Availability.
type State uint8

const (
	StateUnset State = iota
	StateInitialized
	StateInherited
	StateNarrowed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateInitialized:
		return "initialized"
	case StateInherited:
		return "inherited"
	case StateNarrowed:
		return "narrowed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Legacy records whether a removed element reappears at LEGACY.
type Legacy uint8

const (
	legacyUnset Legacy = iota
	// LegacyNotApplicable is used when the element is never removed.
	LegacyNotApplicable
	// LegacyNo means the element does not reappear.
	LegacyNo
	// LegacyYes means the element reappears at LEGACY.
	LegacyYes
)

func (l Legacy) String() string {
	switch l {
	case LegacyNotApplicable:
		return "n/a"
	case LegacyNo:
		return "no"
	case LegacyYes:
		return "yes"
	default:
		return "_"
	}
}

// Ending records how the element's presence ends.
type Ending uint8

const (
	endingUnset Ending = iota
	// EndingNone means the element is never removed.
	EndingNone
	// EndingRemoved means the element is removed without replacement.
	EndingRemoved
	// EndingReplaced means the element is removed and replaced.
	EndingReplaced
	// EndingSplit means narrowing cut the element's range short.
	EndingSplit
	// EndingInherited means removal comes from an ancestor.
	EndingInherited
)

func (e Ending) String() string {
	switch e {
	case EndingNone:
		return "none"
	case EndingRemoved:
		return "removed"
	case EndingReplaced:
		return "replaced"
	case EndingSplit:
		return "split"
	case EndingInherited:
		return "inherited"
	default:
		return "_"
	}
}

var (
	// ErrReplacedWithoutRemoved is returned when replaced is given without removed.
	ErrReplacedWithoutRemoved = errors.New("cannot set replaced without removed")
	// ErrSentinelArgument is returned when -inf, +inf or LEGACY is given directly.
	ErrSentinelArgument = errors.New("availability versions cannot be -inf, +inf or LEGACY")
	// ErrInvalidOrder is returned unless added <= deprecated < removed.
	ErrInvalidOrder = errors.New("availability must have added <= deprecated < removed")
)

// InitArgs are the explicit arguments of an element. The zero Version means
// the argument is absent.
type InitArgs struct {
	Added      version.Version
	Deprecated version.Version
	Removed    version.Version
	Replaced   bool
}

// Availability is the versioning state of one element. The zero value is
// Unset. A zero Version field means "not set".
type Availability struct {
	state      State
	added      version.Version
	deprecated version.Version
	removed    version.Version
	legacy     Legacy
	ending     Ending
}

// Unbounded returns an inherited availability spanning [-inf, +inf). It is
// the parent of library availabilities.
func Unbounded() Availability {
	return Availability{
		state:   StateInherited,
		added:   version.NegInf,
		removed: version.PosInf,
		legacy:  LegacyNotApplicable,
		ending:  EndingNone,
	}
}

// State returns the lifecycle state.
func (a *Availability) State() State { return a.state }

// Added returns the added version, if set.
func (a *Availability) Added() (version.Version, bool) {
	return a.added, a.added != version.NegInf
}

// Deprecated returns the deprecated version, if set.
func (a *Availability) Deprecated() (version.Version, bool) {
	return a.deprecated, a.deprecated != version.NegInf
}

// Removed returns the removed version, if set.
func (a *Availability) Removed() (version.Version, bool) {
	return a.removed, a.removed != version.NegInf
}

// Legacy returns the legacy policy. Only meaningful once inherited.
func (a *Availability) Legacy() Legacy { return a.legacy }

// Ending returns how the element ends. Only meaningful once inherited.
func (a *Availability) Ending() Ending { return a.ending }

// Fail marks an unset availability as failed.
func (a *Availability) Fail() {
	if a.state != StateUnset {
		panic("availability: called Fail in the wrong order")
	}
	a.state = StateFailed
}

// Init records explicit arguments. On error the state becomes Failed.
func (a *Availability) Init(args InitArgs) error {
	if a.state != StateUnset {
		panic("availability: called Init in the wrong order")
	}
	if args.Replaced && args.Removed == version.NegInf {
		a.state = StateFailed
		return ErrReplacedWithoutRemoved
	}
	for _, v := range []version.Version{args.Added, args.Deprecated, args.Removed} {
		if v == version.PosInf || v == version.Legacy {
			a.state = StateFailed
			return fmt.Errorf("%w: got %s", ErrSentinelArgument, v)
		}
	}
	a.added = args.Added
	a.deprecated = args.Deprecated
	a.removed = args.Removed
	if args.Removed != version.NegInf {
		a.ending = EndingRemoved
		if args.Replaced {
			a.ending = EndingReplaced
		}
	}
	if !a.validOrder() {
		a.state = StateFailed
		return ErrInvalidOrder
	}
	a.state = StateInitialized
	return nil
}

func (a *Availability) validOrder() bool {
	added := a.added
	deprecated := a.deprecated
	if deprecated == version.NegInf {
		deprecated = added
	}
	removed := a.removed
	if removed == version.NegInf {
		removed = version.PosInf
	}
	return !deprecated.Less(added) && deprecated.Less(removed)
}

// Status is the outcome of inheriting one field.
type Status uint8

const (
	StatusOK Status = iota
	StatusBeforeParentAdded
	StatusAfterParentRemoved
	StatusAfterParentDeprecated
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBeforeParentAdded:
		return "before parent added"
	case StatusAfterParentRemoved:
		return "after parent removed"
	case StatusAfterParentDeprecated:
		return "after parent deprecated"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// InheritResult reports per-field inheritance violations.
type InheritResult struct {
	Added      Status
	Deprecated Status
	Removed    Status
}

// OK reports whether inheritance succeeded.
func (r InheritResult) OK() bool {
	return r.Added == StatusOK && r.Deprecated == StatusOK && r.Removed == StatusOK
}

// Inherit fills unset fields from parent and validates the child against it.
// The parent must already be inherited.
func (a *Availability) Inherit(parent *Availability) InheritResult {
	if a.state != StateInitialized {
		panic("availability: called Inherit in the wrong order")
	}
	if parent.state != StateInherited {
		panic("availability: must call Inherit on parent first")
	}
	var result InheritResult

	switch {
	case a.added == version.NegInf:
		a.added = parent.added
	case a.added.Less(parent.added):
		result.Added = StatusBeforeParentAdded
	case !a.added.Less(parent.removed):
		result.Added = StatusAfterParentRemoved
	}

	switch {
	case a.removed == version.NegInf:
		a.removed = parent.removed
	case !parent.added.Less(a.removed):
		result.Removed = StatusBeforeParentAdded
	case parent.removed.Less(a.removed):
		result.Removed = StatusAfterParentRemoved
	}

	switch {
	case a.deprecated == version.NegInf:
		// Deprecation is only inherited if it happens before removal, and
		// it never precedes this element's own addition.
		if parent.deprecated != version.NegInf && parent.deprecated.Less(a.removed) {
			a.deprecated = version.Max(parent.deprecated, a.added)
		}
	case a.deprecated.Less(parent.added):
		result.Deprecated = StatusBeforeParentAdded
	case !a.deprecated.Less(parent.removed):
		result.Deprecated = StatusAfterParentRemoved
	case parent.deprecated != version.NegInf && parent.deprecated.Less(a.deprecated):
		result.Deprecated = StatusAfterParentDeprecated
	}

	switch {
	case a.ending == endingUnset:
		if parent.ending == EndingNone {
			a.ending = EndingNone
		} else {
			a.ending = EndingInherited
		}
	case a.ending == EndingReplaced && a.removed == parent.removed:
		result.Removed = StatusAfterParentRemoved
	}

	if a.legacy != legacyUnset {
		panic("availability: legacy cannot be set before Inherit")
	}
	if a.removed == parent.removed {
		// Removed together with the parent: reappear exactly as the parent does.
		a.legacy = parent.legacy
	} else {
		if a.removed == version.PosInf {
			panic("availability: child removed at +inf while parent is not")
		}
		a.legacy = LegacyNo
	}

	if !result.OK() {
		a.state = StateFailed
		return result
	}
	if a.added == version.NegInf || !a.validOrder() {
		panic(fmt.Sprintf("availability: invalid inherited state %s", a.Debug()))
	}
	a.state = StateInherited
	return result
}

// SetLegacy marks a removed, inherited element to reappear at LEGACY.
func (a *Availability) SetLegacy() {
	if a.state != StateInherited {
		panic("availability: called SetLegacy in the wrong order")
	}
	if a.removed == version.PosInf {
		panic("availability: called SetLegacy for non-removed element")
	}
	a.legacy = LegacyYes
}

// Narrow restricts an inherited availability to r: either a subrange of
// [added, removed) or exactly [LEGACY, +inf) for legacy elements.
func (a *Availability) Narrow(r version.Range) {
	if a.state != StateInherited {
		panic("availability: called Narrow in the wrong order")
	}
	lo, hi := r.Pair()
	if lo == version.Legacy {
		if hi != version.PosInf {
			panic("availability: legacy range must be [LEGACY, +inf)")
		}
		if a.legacy == LegacyNo {
			panic("availability: must be present at LEGACY")
		}
	} else if lo.Less(a.added) || a.removed.Less(hi) {
		panic(fmt.Sprintf("availability: must narrow to a subrange of [%s, %s), got %s", a.added, a.removed, r))
	}
	if hi == version.PosInf {
		a.ending = EndingNone
	} else if a.removed != hi {
		a.ending = EndingSplit
	}
	a.added = lo
	a.removed = hi
	if a.deprecated != version.NegInf && !lo.Less(a.deprecated) {
		a.deprecated = lo
	} else {
		a.deprecated = version.NegInf
	}
	if !version.Legacy.Less(lo) && version.Legacy.Less(hi) {
		a.legacy = LegacyNotApplicable
	} else {
		a.legacy = LegacyNo
	}
	a.state = StateNarrowed
}

// Narrowed returns a narrowed copy, leaving a untouched.
func (a Availability) Narrowed(r version.Range) Availability {
	a.Narrow(r)
	return a
}

// NarrowedAt returns a copy narrowed to the interval between consecutive
// Points that contains v. It reports false when the element does not exist
// at v.
func (a *Availability) NarrowedAt(v version.Version) (Availability, bool) {
	if !a.Set().Contains(v) {
		return Availability{}, false
	}
	points := a.Points()
	for i := 0; i+1 < len(points); i++ {
		if r := version.NewRange(points[i], points[i+1]); r.Contains(v) {
			return a.Narrowed(r), true
		}
	}
	return Availability{}, false
}

// Set returns every version at which the element exists.
func (a *Availability) Set() version.Set {
	a.requireInheritedOrNarrowed()
	r := version.NewRange(a.added, a.removed)
	if a.legacy == LegacyYes {
		return version.NewSetPair(r, version.NewRange(version.Legacy, version.PosInf))
	}
	return version.NewSet(r)
}

// Points returns the sorted versions at which an observable transition occurs.
func (a *Availability) Points() []version.Version {
	a.requireInheritedOrNarrowed()
	points := []version.Version{a.added, a.removed}
	if a.deprecated != version.NegInf {
		points = append(points, a.deprecated)
	}
	if a.legacy == LegacyYes {
		if slices.Contains(points, version.Legacy) || slices.Contains(points, version.PosInf) {
			panic("availability: legacy points collide")
		}
		points = append(points, version.Legacy, version.PosInf)
	}
	slices.SortFunc(points, version.Version.Compare)
	return slices.Compact(points)
}

// Range returns [added, removed) of a narrowed availability.
func (a *Availability) Range() version.Range {
	if a.state != StateNarrowed {
		panic("availability: Range requires a narrowed availability")
	}
	return version.NewRange(a.added, a.removed)
}

// IsDeprecated reports whether a narrowed availability is deprecated.
func (a *Availability) IsDeprecated() bool {
	if a.state != StateNarrowed {
		panic("availability: IsDeprecated requires a narrowed availability")
	}
	return a.deprecated != version.NegInf
}

func (a *Availability) requireInheritedOrNarrowed() {
	if a.state != StateInherited && a.state != StateNarrowed {
		panic(fmt.Sprintf("availability: expected inherited or narrowed state, got %s", a.state))
	}
}

// Debug formats "added deprecated removed legacy" with "_" for unset fields.
func (a *Availability) Debug() string {
	field := func(v version.Version) string {
		if v == version.NegInf && a.state < StateInherited {
			return "_"
		}
		if v == version.NegInf {
			return "-inf"
		}
		return v.String()
	}
	deprecated := "_"
	if a.deprecated != version.NegInf {
		deprecated = a.deprecated.String()
	}
	var b strings.Builder
	b.WriteString(field(a.added))
	b.WriteByte(' ')
	b.WriteString(deprecated)
	b.WriteByte(' ')
	b.WriteString(field(a.removed))
	b.WriteByte(' ')
	b.WriteString(a.legacy.String())
	return b.String()
}
