package main

import (
	"github.com/jacoelho/idlc/internal/compiler"
)

type summary struct {
	Library          string              `json:"library"`
	Platform         string              `json:"platform"`
	Version          string              `json:"version"`
	Declarations     map[string][]string `json:"declarations"`
	DeclarationOrder []string            `json:"declaration_order"`
	ExternalStructs  []string            `json:"external_structs,omitempty"`
	Dependencies     []dependencySummary `json:"dependencies,omitempty"`
}

type dependencySummary struct {
	Library      string              `json:"library"`
	Version      string              `json:"version"`
	Declarations map[string][]string `json:"declarations"`
}

func summarize(c *compiler.Compilation) summary {
	s := summary{
		Library:      c.LibraryName,
		Platform:     c.Platform.String(),
		Version:      c.Version.String(),
		Declarations: declarationNames(c.Declarations),
	}
	for _, f := range c.DeclarationOrder {
		s.DeclarationOrder = append(s.DeclarationOrder, f.Name())
	}
	for _, d := range c.ExternalStructs {
		s.ExternalStructs = append(s.ExternalStructs, d.FullName())
	}
	for _, dep := range c.Dependencies {
		s.Dependencies = append(s.Dependencies, dependencySummary{
			Library:      dep.Name,
			Version:      dep.Version.String(),
			Declarations: declarationNames(dep.Declarations),
		})
	}
	return s
}

// declarationNames lists declaration names by kind, in declaration order.
func declarationNames(decls compiler.Declarations) map[string][]string {
	out := make(map[string][]string, len(decls))
	for kind, filtered := range decls {
		for _, f := range filtered {
			out[kind.String()] = append(out[kind.String()], f.Name())
		}
	}
	return out
}
