package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/compiler"
	"github.com/jacoelho/idlc/internal/config"
	"github.com/jacoelho/idlc/internal/metrics"
	"github.com/jacoelho/idlc/internal/reporter"
	"github.com/jacoelho/idlc/internal/version"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

// listFlag collects a repeatable flag whose values may be comma separated.
type listFlag [][]string

func (l *listFlag) String() string { return fmt.Sprint(*l) }

func (l *listFlag) Set(value string) error {
	var group []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			group = append(group, part)
		}
	}
	if len(group) == 0 {
		return errors.New("empty list")
	}
	*l = append(*l, group)
	return nil
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("idlc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var files, available listFlag
	fs.Var(&files, "files", "comma separated files of one library; repeat per library, target last")
	fs.Var(&available, "available", "version selection as platform:v1,v2 (repeatable)")
	configPath := fs.String("config", "", "path to YAML configuration")
	warningsAsErrors := fs.Bool("werror", false, "treat warnings as errors")
	metricsPath := fs.String("metrics", "", "write compiler metrics in Prometheus text format to file")
	cpuProfilePath := fs.String("cpuprofile", "", "write CPU profile to file")
	memProfilePath := fs.String("memprofile", "", "write memory profile to file")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s [--available platform:versions] --files a.yaml,b.yaml [--files c.yaml ...]\n\n", fs.Name()),
			writeln(stderr, "Compiles libraries in dependency order and prints the target filtered for the selected versions."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	usage := func(msg string) int {
		if err := writeln(stderr, "error: "+msg); err != nil {
			return exitError
		}
		fs.Usage()
		if usageErr != nil {
			return exitError
		}
		return exitUsage
	}
	if len(files) == 0 {
		return usage("--files is required")
	}
	if fs.NArg() != 0 {
		return usage("unexpected arguments: " + strings.Join(fs.Args(), " "))
	}

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			return usage(err.Error())
		}
		cfg = loaded
	}
	for _, group := range available {
		cfg.Available = append(cfg.Available, strings.Join(group, ","))
	}
	if *warningsAsErrors {
		cfg.WarningsAsErrors = true
	}
	if err := cfg.Validate(); err != nil {
		return usage(err.Error())
	}

	if *cpuProfilePath != "" {
		stopCPUProfile, err := startCPUProfile(*cpuProfilePath)
		if err != nil {
			_ = writef(stderr, "error starting CPU profile: %v\n", err)
			return exitError
		}
		defer func() {
			if err := stopCPUProfile(); err != nil {
				_ = writef(stderr, "error stopping CPU profile: %v\n", err)
			}
		}()
	}
	if *memProfilePath != "" {
		defer func() {
			if err := writeMemProfile(*memProfilePath); err != nil {
				_ = writef(stderr, "error writing memory profile: %v\n", err)
			}
		}()
	}

	logger := newLogger(stderr, cfg.LogLevel)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		_ = writef(stderr, "error registering metrics: %v\n", err)
		return exitError
	}
	if *metricsPath != "" {
		defer func() {
			if err := writeMetrics(reg, *metricsPath); err != nil {
				_ = writef(stderr, "error writing metrics: %v\n", err)
			}
		}()
	}

	return compile(cfg, files, stdout, stderr, logger, m)
}

func compile(cfg *config.Config, files listFlag, stdout, stderr io.Writer, logger *slog.Logger, m *metrics.Metrics) int {
	schemas := attrschema.NewRegistry()
	extra, err := cfg.Schemas()
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return exitUsage
	}
	for _, s := range extra {
		if err := schemas.Add(s); err != nil {
			_ = writef(stderr, "error: %v\n", err)
			return exitUsage
		}
	}
	libs := compiler.NewLibraries(
		compiler.WithSchemas(schemas),
		compiler.WithMetrics(m),
		compiler.WithRegistryLogger(logger),
	)
	r := reporter.New(
		reporter.WithLogger(logger),
		reporter.WithWarningsAsErrors(cfg.WarningsAsErrors),
		reporter.WithObserver(func(d idlerrors.Diagnostic) { m.RecordDiagnostic(d.Code, d.Severity.String()) }),
	)
	report := func() {
		for _, d := range r.Diagnostics() {
			_ = writeln(stderr, d.Error())
		}
	}

	for _, group := range files {
		c := compiler.New(libs, r,
			compiler.WithLogger(logger),
			compiler.WithAllowUnusedImports(cfg.HasFlag(config.FlagAllowUnusedImports)),
		)
		for _, path := range group {
			file, err := decodeFile(path)
			if err != nil {
				report()
				_ = writef(stderr, "error: %v\n", err)
				return exitError
			}
			// Consume problems are reported; Compile refuses to run after them.
			_ = c.ConsumeFile(file)
		}
		if err := c.Compile(); err != nil {
			report()
			logger.Debug("compilation failed", "error", err)
			return exitError
		}
	}

	if unused := libs.Unused(); len(unused) > 0 {
		names := make([]string, 0, len(unused))
		for _, lib := range unused {
			names = append(names, lib.Name)
		}
		r.Warn(idlerrors.ErrUnusedLibraries, libs.Target().NameSpan, strings.Join(names, ", "))
	}

	sel, err := cfg.Selection()
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return exitUsage
	}
	selectHead(sel, libs)
	compilation, err := libs.Filter(sel)
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return exitError
	}

	report()
	if r.ErrorCount() > 0 {
		return exitError
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summarize(compilation)); err != nil {
		_ = writef(stderr, "error writing summary: %v\n", err)
		return exitError
	}
	logger.Info("compilation filtered", "summary", compilation.String())
	return exitOK
}

func decodeFile(path string) (*ast.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ast.Decode(f, path)
}

// selectHead targets HEAD on every platform of a compiled library that the
// selection leaves out.
func selectHead(sel *version.Selection, libs *compiler.Libraries) {
	for _, lib := range libs.All() {
		if !lib.IsVersioned() || sel.Contains(lib.Platform) {
			continue
		}
		if err := sel.Insert(lib.Platform, []version.Version{version.Head}); err != nil {
			panic(err)
		}
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func writeMetrics(g prometheus.Gatherer, path string) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics %s: %w", path, err)
	}
	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			if closeErr := f.Close(); closeErr != nil {
				return fmt.Errorf("encode metrics %s: %w (close failed: %w)", path, err, closeErr)
			}
			return fmt.Errorf("encode metrics %s: %w", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close metrics %s: %w", path, err)
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}
