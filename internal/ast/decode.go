package ast

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Decode reads one YAML-encoded File. Unknown fields are rejected.
func Decode(r io.Reader, path string) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: empty document", path)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if f.Path == "" {
		f.Path = path
	}
	f.fillSpans()
	return &f, nil
}

// fillSpans defaults missing span files to the file path so diagnostics
// point somewhere useful.
func (f *File) fillSpans() {
	fill := func(s *Span) {
		if s.File == "" {
			s.File = f.Path
		}
	}
	fill(&f.LibrarySpan)
	for i := range f.Attributes {
		fillAttribute(&f.Attributes[i], fill)
	}
	for i := range f.Using {
		fill(&f.Using[i].Span)
	}
	for i := range f.Decls {
		fillDecl(&f.Decls[i], fill)
	}
}

func fillAttribute(a *Attribute, fill func(*Span)) {
	fill(&a.Span)
	for i := range a.Args {
		fill(&a.Args[i].Span)
		fillConstant(&a.Args[i].Value, fill)
	}
}

func fillConstant(c *Constant, fill func(*Span)) {
	if c == nil {
		return
	}
	fill(&c.Span)
	fillConstant(c.Left, fill)
	fillConstant(c.Right, fill)
}

func fillTypeCtor(t *TypeCtor, fill func(*Span)) {
	if t == nil {
		return
	}
	fill(&t.Span)
	fillTypeCtor(t.Element, fill)
	fillConstant(t.Size, fill)
	fillConstant(t.Subtype, fill)
	if t.Inline != nil {
		fillDecl(t.Inline, fill)
	}
}

func fillDecl(d *Decl, fill func(*Span)) {
	fill(&d.Span)
	for i := range d.Attributes {
		fillAttribute(&d.Attributes[i], fill)
	}
	fillTypeCtor(d.Type, fill)
	fillConstant(d.Value, fill)
	for _, members := range [][]Member{d.Members, d.Properties} {
		for i := range members {
			m := &members[i]
			fill(&m.Span)
			for j := range m.Attributes {
				fillAttribute(&m.Attributes[j], fill)
			}
			fillTypeCtor(m.Type, fill)
			fillConstant(m.Value, fill)
			fillConstant(m.Default, fill)
		}
	}
	for i := range d.Methods {
		m := &d.Methods[i]
		fill(&m.Span)
		for j := range m.Attributes {
			fillAttribute(&m.Attributes[j], fill)
		}
		fillTypeCtor(m.Request, fill)
		fillTypeCtor(m.Response, fill)
		fillTypeCtor(m.Error, fill)
	}
	for i := range d.Compose {
		fill(&d.Compose[i].Span)
		for j := range d.Compose[i].Attributes {
			fillAttribute(&d.Compose[i].Attributes[j], fill)
		}
	}
}
