// Package reporter collects diagnostics for a compilation and lets passes
// ask whether they reported anything new.
package reporter

import (
	"log/slog"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
)

// Option configures a Reporter.
type Option func(*Reporter)

// WithLogger sets the logger diagnostics are echoed to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWarningsAsErrors promotes every warning to an error.
func WithWarningsAsErrors(enabled bool) Option {
	return func(r *Reporter) { r.warningsAsErrors = enabled }
}

// WithObserver registers a callback invoked for every diagnostic.
func WithObserver(fn func(idlerrors.Diagnostic)) Option {
	return func(r *Reporter) { r.observer = fn }
}

// Reporter accumulates diagnostics in report order.
type Reporter struct {
	logger           *slog.Logger
	observer         func(idlerrors.Diagnostic)
	diagnostics      idlerrors.DiagnosticList
	errors           int
	warnings         int
	warningsAsErrors bool
}

// New returns an empty reporter.
func New(opts ...Option) *Reporter {
	r := &Reporter{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fail records an error. It always returns false so callers can write
// `return r.Fail(...)` from validation helpers.
func (r *Reporter) Fail(def idlerrors.Def, span ast.Span, args ...any) bool {
	def.Severity = idlerrors.SeverityError
	r.report(def, span, args)
	return false
}

// Warn records a warning, or an error when warnings are errors.
func (r *Reporter) Warn(def idlerrors.Def, span ast.Span, args ...any) {
	def.Severity = idlerrors.SeverityWarning
	if r.warningsAsErrors {
		def.Severity = idlerrors.SeverityError
	}
	r.report(def, span, args)
}

// Report records def with its own severity.
func (r *Reporter) Report(def idlerrors.Def, span ast.Span, args ...any) {
	if def.Severity == idlerrors.SeverityWarning {
		r.Warn(def, span, args...)
		return
	}
	r.Fail(def, span, args...)
}

func (r *Reporter) report(def idlerrors.Def, span ast.Span, args []any) {
	d := idlerrors.New(def, span.File, span.Line, span.Column, args...)
	r.diagnostics = append(r.diagnostics, d)
	if d.Severity == idlerrors.SeverityError {
		r.errors++
	} else {
		r.warnings++
	}
	r.logger.Debug("diagnostic", "code", d.Code, "severity", d.Severity.String(), "position", span.String(), "message", d.Message)
	if r.observer != nil {
		r.observer(d)
	}
}

// Diagnostics returns every diagnostic in report order.
func (r *Reporter) Diagnostics() idlerrors.DiagnosticList { return r.diagnostics }

// Errors returns the error diagnostics in report order.
func (r *Reporter) Errors() idlerrors.DiagnosticList { return r.diagnostics.Errors() }

// Warnings returns the warning diagnostics in report order.
func (r *Reporter) Warnings() idlerrors.DiagnosticList {
	var out idlerrors.DiagnosticList
	for _, d := range r.diagnostics {
		if d.Severity == idlerrors.SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// ErrorCount returns the number of errors so far.
func (r *Reporter) ErrorCount() int { return r.errors }

// Err returns the errors as a DiagnosticList, or nil if there are none.
func (r *Reporter) Err() error {
	if r.errors == 0 {
		return nil
	}
	return r.Errors()
}

// Checkpoint remembers the current error count.
type Checkpoint struct {
	r      *Reporter
	errors int
	index  int
}

// Checkpoint returns a checkpoint at the current error count.
func (r *Reporter) Checkpoint() Checkpoint {
	return Checkpoint{r: r, errors: r.errors, index: len(r.diagnostics)}
}

// NoNewErrors reports whether no errors were recorded since the checkpoint.
func (c Checkpoint) NoNewErrors() bool { return c.r.errors == c.errors }

// NewErrors returns how many errors were recorded since the checkpoint.
func (c Checkpoint) NewErrors() int { return c.r.errors - c.errors }

// Errors returns the errors recorded since the checkpoint.
func (c Checkpoint) Errors() idlerrors.DiagnosticList {
	return c.r.diagnostics[c.index:].Errors()
}
