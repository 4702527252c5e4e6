package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/jacoelho/idlc"

func repoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("repository root with go.mod not found from %s", dir)
		}
		dir = parent
	}
}

// skipDir reports directories the go tool ignores.
func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// walkGoFiles calls fn for every Go file of the module, with its path
// relative to the repository root.
func walkGoFiles(t *testing.T, includeTests bool, fn func(path, rel string) error) {
	t.Helper()

	root := repoRoot(t)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		if !includeTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel))
	})
	if err != nil {
		t.Fatalf("walk go files: %v", err)
	}
}

// collectPackageImports maps every non-test package of the module to the
// module packages it imports.
func collectPackageImports(t *testing.T) map[string]map[string]struct{} {
	t.Helper()

	graph := make(map[string]map[string]struct{})
	fset := token.NewFileSet()
	walkGoFiles(t, false, func(path, rel string) error {
		importPath := modulePath
		if dir := filepath.ToSlash(filepath.Dir(rel)); dir != "." {
			importPath += "/" + dir
		}
		imports := graph[importPath]
		if imports == nil {
			imports = make(map[string]struct{})
			graph[importPath] = imports
		}

		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range node.Imports {
			pathValue, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return err
			}
			if hasPkgPrefix(pathValue, modulePath) {
				imports[pathValue] = struct{}{}
			}
		}
		return nil
	})
	return graph
}

func internalPkg(name string) string {
	return modulePath + "/internal/" + strings.TrimPrefix(name, "/")
}

func hasPkgPrefix(pkg, prefix string) bool {
	return pkg == prefix || strings.HasPrefix(pkg, prefix+"/")
}
