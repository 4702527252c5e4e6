package architecture_test

import (
	"slices"
	"testing"
)

// layers ranks every internal package. A package may only import module
// packages of a strictly lower rank.
var layers = map[string]int{
	internalPkg("version"):    0,
	internalPkg("graphcycle"): 0,
	internalPkg("metrics"):    0,
	internalPkg("ast"):        0,
	modulePath + "/errors":    0,

	internalPkg("availability"): 1,
	internalPkg("reporter"):     1,

	internalPkg("flat"): 2,

	internalPkg("attrschema"): 3,

	internalPkg("config"): 4,

	internalPkg("compiler"): 5,
}

func TestInternalPackageLayers(t *testing.T) {
	t.Parallel()

	graph := collectPackageImports(t)
	for pkg, imports := range graph {
		if !hasPkgPrefix(pkg, modulePath+"/internal") && pkg != modulePath+"/errors" {
			continue
		}
		rank, ok := layers[pkg]
		if !ok {
			t.Errorf("package %s has no layer; add it to layers", pkg)
			continue
		}
		for imp := range imports {
			impRank, ok := layers[imp]
			if !ok {
				t.Errorf("%s imports %s which has no layer", pkg, imp)
				continue
			}
			if impRank >= rank {
				t.Errorf("%s (layer %d) imports %s (layer %d)", pkg, rank, imp, impRank)
			}
		}
	}
}

func TestCommandsOnlyUsePublicEntryPoints(t *testing.T) {
	t.Parallel()

	// The CLI drives the compiler; it must not reach into passes directly.
	allowed := []string{
		modulePath + "/errors",
		internalPkg("ast"),
		internalPkg("attrschema"),
		internalPkg("compiler"),
		internalPkg("config"),
		internalPkg("metrics"),
		internalPkg("reporter"),
		internalPkg("version"),
	}
	graph := collectPackageImports(t)
	for pkg, imports := range graph {
		if !hasPkgPrefix(pkg, modulePath+"/cmd") {
			continue
		}
		for imp := range imports {
			if !slices.Contains(allowed, imp) {
				t.Errorf("command %s imports %s", pkg, imp)
			}
		}
	}
}
