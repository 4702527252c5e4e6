package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodOrdinal(t *testing.T) {
	tests := []struct {
		selector string
		want     uint64
	}{
		{selector: "fuchsia.test/P.Do", want: 0x4637509a73df6ebb},
		{selector: "fuchsia.io/Directory.Open", want: 0x2fbc4fbbff7c54d6},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got := MethodOrdinal(tt.selector)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, got>>63)
		})
	}
}

func TestSelectorFor(t *testing.T) {
	tests := []struct {
		name     string
		override string
		want     string
		ok       bool
	}{
		{name: "default", want: "fuchsia.test/P.Do", ok: true},
		{name: "method name", override: "Renamed", want: "fuchsia.test/P.Renamed", ok: true},
		{name: "full selector", override: "fuchsia.other/Q.Other", want: "fuchsia.other/Q.Other", ok: true},
		{name: "spaces", override: "not valid"},
		{name: "missing method", override: "fuchsia.other/Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectorFor("fuchsia.test", "P", "Do", tt.override)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
