package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// layerRule lists what a layer of a context service may import beyond the
// standard library. Own is relative to the service root.
type layerRule struct {
	Own        []string
	ThirdParty []string
	NoAdapters bool
	NoRuntime  bool
}

var layerRules = map[string]layerRule{
	"domain": {
		Own:        []string{"domain"},
		NoAdapters: true,
		NoRuntime:  true,
	},
	"ports": {
		Own:        []string{"domain", "ports"},
		NoAdapters: true,
		NoRuntime:  true,
	},
	"application": {
		Own: []string{"application", "domain", "ports"},
		ThirdParty: []string{
			"{module}/contracts",
			"go.opentelemetry.io/otel",
			"github.com/cenkalti/backoff/v4",
		},
		NoAdapters: true,
		NoRuntime:  true,
	},
	"transport": {
		Own:        []string{"transport"},
		NoAdapters: true,
		NoRuntime:  true,
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	root := flag.String("root", "contexts", "directory holding <area>/<service> trees")
	module := flag.String("module", "creativehub", "module path from go.mod")
	flag.Parse()

	violations, err := collectViolations(*root, *module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	fmt.Printf("%d boundary violations found:\n", len(violations))
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string, module string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		service := fmt.Sprintf("%s/%s/%s/%s", module, filepath.ToSlash(filepath.Base(root)), parts[0], parts[1])
		layer := ""
		if len(parts) > 3 {
			layer = parts[2]
		}

		fileViolations, err := checkFile(path, module, service, layer)
		if err != nil {
			return err
		}
		violations = append(violations, fileViolations...)
		return nil
	})
	return violations, err
}

func checkFile(path string, module string, service string, layer string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: filepath.ToSlash(path), Line: 1, Rule: "file must parse"}}, nil
	}

	rule, scoped := layerRules[layer]
	contextsPrefix := module + "/contexts/"
	var out []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		report := func(reason string) {
			out = append(out, violation{
				File:   filepath.ToSlash(path),
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		if strings.HasPrefix(importPath, contextsPrefix) && !hasPrefix(importPath, service) {
			report("cross-service imports are forbidden")
		}
		if !scoped {
			continue
		}
		if rule.NoAdapters && strings.Contains(importPath, "/adapters/") {
			report(layer + " must not import adapters")
		}
		if rule.NoRuntime && hasPrefix(importPath, module+"/internal") {
			report(layer + " must not import runtime infrastructure")
		}
		if !isStdlib(importPath, module) && !allowed(importPath, module, service, rule) {
			report(layer + " import is outside explicit allowlist")
		}
	}
	return out, nil
}

func allowed(importPath string, module string, service string, rule layerRule) bool {
	for _, own := range rule.Own {
		if hasPrefix(importPath, service+"/"+own) {
			return true
		}
	}
	for _, dep := range rule.ThirdParty {
		if hasPrefix(importPath, strings.ReplaceAll(dep, "{module}", module)) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string, module string) bool {
	if hasPrefix(importPath, module) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
