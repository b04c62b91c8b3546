package target

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/qobs-build/mmake/internal/fspath"
)

// FileEnv is what a filter expression sees of a source file. Path and Dir
// are relative to the source directory and always use '/'.
type FileEnv struct {
	Path string `expr:"path"`
	Name string `expr:"name"`
	Ext  string `expr:"ext"`
	Dir  string `expr:"dir"`
}

// Predicate decides whether a source file, given relative to the source
// directory, takes part in the build.
type Predicate func(rel fspath.Path) (bool, error)

func slashed(p fspath.Path) string {
	return strings.ReplaceAll(p.String(), p.Dialect().Separator, "/")
}

// Compile checks the filter and turns it into a Predicate.
func (f Filter) Compile() (Predicate, error) {
	for _, pattern := range f.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &ConfigurationError{Field: "exclude pattern", Value: pattern, Reason: "is not a valid glob"}
		}
	}

	var program *vm.Program
	if f.Expr != "" {
		var err error
		program, err = expr.Compile(f.Expr, expr.Env(FileEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile filter %q: %w", f.Expr, err)
		}
	}

	return func(rel fspath.Path) (bool, error) {
		path := slashed(rel)
		for _, pattern := range f.Exclude {
			if doublestar.MatchUnvalidated(pattern, path) {
				return false, nil
			}
		}
		if program == nil {
			return true, nil
		}

		env := FileEnv{Path: path, Ext: rel.Extension()}
		if name, ok := rel.FileName(); ok {
			env.Name = name.String()
		}
		if dir, ok := rel.Directory(); ok {
			env.Dir = slashed(dir)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return false, fmt.Errorf("failed to run filter %q on %q: %w", f.Expr, path, err)
		}
		return result.(bool), nil
	}, nil
}
