// Package compiler runs the semantic passes over a library, publishes
// compiled libraries into a registry and filters them for a version
// selection.
package compiler

import (
	"fmt"
	"log/slog"
	"time"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/reporter"
)

// Step is one pass over a library. A step reports problems through the
// context's reporter; it succeeds when it reports no new errors.
type Step interface {
	Name() string
	Run(ctx *Context)
}

// Steps returns the passes in the order they run. Each one may assume the
// invariants established by the ones before it.
func Steps() []Step {
	return []Step{
		availabilityStep{},
		resolveStep{},
		compileStep{},
		typeShapeStep{},
		replacementStep{},
		resourcenessStep{},
		handleTransportStep{},
		attributesStep{},
		dependenciesStep{},
	}
}

// Context is the state shared by every step of one library compilation.
type Context struct {
	Library   *flat.Library
	Libraries *Libraries
	Typespace *flat.Typespace
	Reporter  *reporter.Reporter
	Generated *ast.GeneratedFile
	Logger    *slog.Logger

	AllowUnusedImports bool

	legacy map[*availability.Availability]legacyArg
}

type legacyArg struct {
	value bool
	span  ast.Span
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger for step progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.ctx.Logger = logger
		}
	}
}

// WithAllowUnusedImports disables the unused import check.
func WithAllowUnusedImports(allow bool) Option {
	return func(c *Compiler) { c.ctx.AllowUnusedImports = allow }
}

// WithSteps replaces the pass list. Used by tests to run a prefix.
func WithSteps(steps ...Step) Option {
	return func(c *Compiler) { c.steps = steps }
}

// Compiler builds one library from its files.
type Compiler struct {
	ctx           *Context
	steps         []Step
	consumeFailed bool
}

// New returns a compiler whose library will be inserted into libraries.
func New(libraries *Libraries, r *reporter.Reporter, opts ...Option) *Compiler {
	c := &Compiler{
		ctx: &Context{
			Library:   flat.NewLibrary(""),
			Libraries: libraries,
			Typespace: libraries.Typespace(),
			Reporter:  r,
			Generated: libraries.Generated(),
			Logger:    slog.Default(),
			legacy:    make(map[*availability.Availability]legacyArg),
		},
		steps: Steps(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Library returns the library being compiled.
func (c *Compiler) Library() *flat.Library { return c.ctx.Library }

// ConsumeFile merges the declarations of file into the library. Problems are
// reported immediately; the returned error lists the ones from this file.
func (c *Compiler) ConsumeFile(file *ast.File) error {
	cp := c.ctx.Reporter.Checkpoint()
	consumeFile(c.ctx, file)
	if !cp.NoNewErrors() {
		c.consumeFailed = true
		return fmt.Errorf("consume %s: %w", file.Path, cp.Errors())
	}
	return nil
}

// Compile runs every step, stopping at the first one that reports an error.
// On success the library is inserted into the registry.
func (c *Compiler) Compile() error {
	lib := c.ctx.Library
	if c.consumeFailed {
		return fmt.Errorf("compile %s: consume failed", lib.Name)
	}
	if lib.Name == "" {
		return fmt.Errorf("compile: no files consumed")
	}
	metrics := c.ctx.Libraries.metrics
	for _, step := range c.steps {
		cp := c.ctx.Reporter.Checkpoint()
		start := time.Now()
		c.ctx.Logger.Debug("step started", "library", lib.Name, "step", step.Name())
		step.Run(c.ctx)
		ok := cp.NoNewErrors()
		elapsed := time.Since(start)
		metrics.RecordStep(lib.Name, step.Name(), ok, elapsed)
		c.ctx.Logger.Debug("step finished", "library", lib.Name, "step", step.Name(), "ok", ok, "duration", elapsed)
		if !ok {
			return fmt.Errorf("compile %s: %s: %w", lib.Name, step.Name(), cp.Errors())
		}
	}
	cp := c.ctx.Reporter.Checkpoint()
	if err := c.ctx.Libraries.Insert(lib); err != nil {
		c.ctx.Reporter.Fail(idlerrors.ErrMultipleLibrariesWithSameName, lib.NameSpan, lib.Name)
		return fmt.Errorf("compile %s: %w", lib.Name, cp.Errors())
	}
	c.ctx.Logger.Info("library compiled", "library", lib.Name, "declarations", lib.Declarations.Len())
	return nil
}
