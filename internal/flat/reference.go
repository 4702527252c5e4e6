package flat

import (
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/version"
)

// Reference is a by-name edge to another declaration. It starts symbolic and
// is resolved into a Target by the resolve step. Reading the target of an
// unresolved reference is a programming error.
type Reference struct {
	Name   RefName
	Span   ast.Span
	target *Target
}

// NewReference returns an unresolved reference.
func NewReference(text string, span ast.Span) Reference {
	return Reference{Name: ParseRefName(text), Span: span}
}

// ResolvedReference returns a reference already bound to decl. Used for
// synthesized edges that never go through name lookup.
func ResolvedReference(decl *Decl, span ast.Span) Reference {
	r := Reference{Name: RefName{Library: decl.Library.Name, Decl: decl.Name}, Span: span}
	r.Resolve(Target{Library: decl.Library, Candidates: []*Decl{decl}})
	return r
}

// Resolve binds the reference.
func (r *Reference) Resolve(t Target) {
	if len(t.Candidates) == 0 {
		panic("flat: resolving " + r.Name.String() + " to no declarations")
	}
	r.target = &t
}

// IsResolved reports whether Resolve has been called.
func (r *Reference) IsResolved() bool { return r.target != nil }

// Target returns the resolved target.
func (r *Reference) Target() *Target {
	if r.target == nil {
		panic("flat: dereferencing unresolved reference " + r.Name.String())
	}
	return r.target
}

// Target is what a reference resolved to. A name may denote several
// declarations that exist at disjoint versions; they are all candidates.
type Target struct {
	Library    *Library
	Candidates []*Decl
	Member     string
}

// At returns the candidate present at v.
func (t *Target) At(v version.Version) (*Decl, bool) {
	for _, d := range t.Candidates {
		if d.Availability.Set().Contains(v) {
			return d, true
		}
	}
	return nil, false
}

// Decl returns the sole candidate, else the candidate present at HEAD, else
// the last one declared. A sole candidate is returned before its
// availability is known.
func (t *Target) Decl() *Decl {
	if len(t.Candidates) == 1 {
		return t.Candidates[0]
	}
	if d, ok := t.At(version.Head); ok {
		return d
	}
	return t.Candidates[len(t.Candidates)-1]
}

// IsMember reports whether the target names a bits or enum member.
func (t *Target) IsMember() bool { return t.Member != "" }
