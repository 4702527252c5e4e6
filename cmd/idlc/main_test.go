package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const depLibrary = `
library: fuchsia.dep
attributes:
  - name: available
    args:
      - name: added
        value: {kind: literal, literal_kind: numeric, value: "1"}
decls:
  - kind: struct
    name: Payload
    members:
      - name: value
        type: {layout: uint32}
`

const targetLibrary = `
library: fuchsia.target
attributes:
  - name: available
    args:
      - name: added
        value: {kind: literal, literal_kind: numeric, value: "1"}
using:
  - library: fuchsia.dep
decls:
  - kind: struct
    name: Old
    attributes:
      - name: available
        args:
          - name: removed
            value: {kind: literal, literal_kind: numeric, value: "3"}
  - kind: protocol
    name: Sender
    methods:
      - name: Send
        strict: true
        has_request: true
        request: {layout: fuchsia.dep/Payload}
`

const unusedLibrary = `
library: fuchsia.unused
`

const brokenLibrary = `
library: fuchsia.target
decls:
  - kind: struct
    name: S
    members:
      - name: x
        type: {layout: Missing}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunWithArgsFiltersTarget(t *testing.T) {
	dir := t.TempDir()
	dep := writeFile(t, dir, "dep.yaml", depLibrary)
	target := writeFile(t, dir, "target.yaml", targetLibrary)

	tests := []struct {
		name      string
		available string
		wantDecls []string
		version   string
	}{
		{name: "before removal", available: "fuchsia:2", wantDecls: []string{"Old"}, version: "2"},
		{name: "after removal", available: "fuchsia:5", version: "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runWithArgs([]string{"--available", tt.available, "--files", dep, "--files", target}, &stdout, &stderr)
			require.Equal(t, exitOK, code, stderr.String())

			var got summary
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
			assert.Equal(t, "fuchsia.target", got.Library)
			assert.Equal(t, "fuchsia", got.Platform)
			assert.Equal(t, tt.version, got.Version)
			assert.Equal(t, tt.wantDecls, got.Declarations["struct"])
			assert.Equal(t, []string{"Sender"}, got.Declarations["protocol"])
			assert.Equal(t, []string{"fuchsia.dep/Payload"}, got.ExternalStructs)
			require.Len(t, got.Dependencies, 1)
			assert.Equal(t, "fuchsia.dep", got.Dependencies[0].Library)
		})
	}
}

func TestRunWithArgsDefaultsToHead(t *testing.T) {
	dir := t.TempDir()
	dep := writeFile(t, dir, "dep.yaml", depLibrary)
	target := writeFile(t, dir, "target.yaml", targetLibrary)

	var stdout, stderr bytes.Buffer
	code := runWithArgs([]string{"--files", dep, "--files", target}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var got summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "HEAD", got.Version)
}

func TestRunWithArgsUnusedLibrary(t *testing.T) {
	dir := t.TempDir()
	unused := writeFile(t, dir, "unused.yaml", unusedLibrary)
	dep := writeFile(t, dir, "dep.yaml", depLibrary)
	target := writeFile(t, dir, "target.yaml", targetLibrary)
	args := []string{"--files", unused, "--files", dep, "--files", target}

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, runWithArgs(args, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unused libraries provided: fuchsia.unused")

	stdout.Reset()
	stderr.Reset()
	assert.Equal(t, exitError, runWithArgs(append([]string{"--werror"}, args...), &stdout, &stderr))
	assert.Empty(t, stdout.String())
}

func TestRunWithArgsCompileError(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.yaml", brokenLibrary)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitError, runWithArgs([]string{"--files", broken}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "cannot find Missing")
	assert.Empty(t, stdout.String())
}

func TestRunWithArgsConfig(t *testing.T) {
	dir := t.TempDir()
	dep := writeFile(t, dir, "dep.yaml", depLibrary)
	target := writeFile(t, dir, "target.yaml", targetLibrary)
	cfg := writeFile(t, dir, "idlc.yaml", "available: [\"fuchsia:5\"]\nlog_level: error\n")
	metricsPath := filepath.Join(dir, "metrics.prom")

	var stdout, stderr bytes.Buffer
	code := runWithArgs([]string{"--config", cfg, "--metrics", metricsPath, "--files", dep + "," + target}, &stdout, &stderr)
	// Both files name different libraries, so the group is rejected.
	assert.Equal(t, exitError, code)

	stdout.Reset()
	stderr.Reset()
	code = runWithArgs([]string{"--config", cfg, "--metrics", metricsPath, "--files", dep, "--files", target}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	var got summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "5", got.Version)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "idlc_compiler_steps_total")
}

func TestRunWithArgsUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no files", args: nil},
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "positional argument", args: []string{"--files", "a.yaml", "extra"}},
		{name: "invalid selection", args: []string{"--files", "a.yaml", "--available", "fuchsia"}},
		{name: "legacy selection", args: []string{"--files", "a.yaml", "--available", "fuchsia:LEGACY"}},
		{name: "missing config", args: []string{"--files", "a.yaml", "--config", "/nonexistent/idlc.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, exitUsage, runWithArgs(tt.args, &stdout, &stderr))
			assert.NotEmpty(t, stderr.String())
		})
	}
}
