package gen

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os/exec"
	"slices"
	"strings"

	"github.com/qobs-build/mmake/internal/fspath"
	"github.com/qobs-build/mmake/internal/scan"
	"github.com/qobs-build/mmake/internal/target"
)

const (
	varSources      = "SRCS"
	varObjects      = "OBJS"
	varTestObjects  = "TEST_OBJS"
	varLibObjects   = "LIB_OBJS"
	varDependencies = "DEPS"
)

var reservedRules = []string{"all", "lib", "main", "test", "run", "time", "clean"}

// Makefile generates GNU make build files.
type Makefile struct {
	// Make is the make executable, "make" if empty.
	Make string
}

func (Makefile) BuildFile() string { return "Makefile" }

// outputs are the files a mode directory ends up holding.
type outputs struct {
	dir, lib, test, exe fspath.Path
}

func newOutputs(cfg *target.Config, mode target.Mode) (outputs, error) {
	o := outputs{dir: cfg.Directories.Mode(mode)}
	var err error
	if o.lib, err = o.dir.ResolveRaw("lib" + cfg.Name + ".a"); err != nil {
		return outputs{}, fmt.Errorf("target name %q: %w", cfg.Name, err)
	}
	if o.test, err = o.dir.ResolveRaw(cfg.Name + ".test.out"); err != nil {
		return outputs{}, err
	}
	if o.exe, err = o.dir.ResolveRaw(cfg.Name + ".out"); err != nil {
		return outputs{}, err
	}
	return o, nil
}

// flagSet holds the formatted flags of one target in one mode.
type flagSet struct {
	include, macros, link, libraries string
	common                           string
}

func newFlagSet(cfg *target.Config, mode target.Mode) (flagSet, error) {
	debug := cfg.Debug.Get(mode).String()
	optimizations := cfg.Optimizations.Get(mode)

	f := flagSet{
		include: target.LibraryIncludes(cfg.Libraries),
		macros:  target.Macros(cfg.Macros.Get(mode)),
		link:    join(debug, target.Flag(optimizations.LTO)),
	}
	f.common = join(
		debug,
		target.Warnings(cfg.Warnings),
		target.SuppressErrors(cfg.SuppressErrors),
		optimizations.String(),
		f.macros,
		f.include,
		target.Flags(cfg.Flags.Get(mode)),
	)

	var err error
	if f.libraries, err = target.LibraryBinaries(cfg.Libraries); err != nil {
		return flagSet{}, err
	}
	return f, nil
}

func std(cfg *target.Config, lang target.Language) string {
	version := cfg.Standards.Get(lang)
	if lang == target.Cpp {
		return target.Flag("std=c++" + version)
	}
	return target.Flag("std=c" + version)
}

func pathList(paths []fspath.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = quote(p.String())
	}
	return out
}

func writeVar(sb *strings.Builder, name string, values []string) {
	write(sb, name, " :=")
	for _, v := range values {
		write(sb, " \\\n\t", v)
	}
	writeln(sb)
}

// Generate renders the Makefile of cfg in mode over the scanned sources.
func (Makefile) Generate(cfg *target.Config, mode target.Mode, set *scan.SourceSet) (string, error) {
	return Emit(cfg, mode, set)
}

// Emit renders the Makefile of cfg in mode over the scanned sources.
func Emit(cfg *target.Config, mode target.Mode, set *scan.SourceSet) (string, error) {
	out, err := newOutputs(cfg, mode)
	if err != nil {
		return "", err
	}
	flags, err := newFlagSet(cfg, mode)
	if err != nil {
		return "", err
	}
	ownLink, err := target.Library{Binary: out.lib}.BinaryFlags()
	if err != nil {
		return "", err
	}

	tools := cfg.Tools
	compilers := cfg.Compiler.Compilers
	linker := compilers.C
	if set.Has(target.Cpp) {
		linker = compilers.Cpp
	}
	ref := func(v string) string { return "$(" + v + ")" }

	var rules []Rule
	for _, lang := range target.AllLanguages {
		pattern := "%" + lang.Extension()
		obj, err := out.dir.ResolveRaw(pattern + ".o")
		if err != nil {
			return "", err
		}
		src, err := cfg.Directories.Src.ResolveRaw(pattern)
		if err != nil {
			return "", err
		}
		rules = append(rules, Rule{
			Target: quote(obj.String()),
			Deps:   []string{quote(src.String())},
			Commands: []string{
				tools.Mkdir + " $(dir $@)",
				join(cfg.Compiler.Preprocessor.Get(lang), flags.include, flags.macros,
					target.Flags([]string{"MMD", "MP"}), "$< -MF $(@:.o=.d) -MT $@ > /dev/null"),
				join(compilers.Get(lang), std(cfg, lang), flags.common, "-c $< -o $@"),
			},
		})
	}

	lib, test, exe := quote(out.lib.String()), quote(out.test.String()), quote(out.exe.String())
	rules = append(rules,
		Rule{
			Target: lib,
			Deps:   []string{ref(varLibObjects)},
			Commands: []string{
				tools.Mkdir + " $(dir $@)",
				cfg.Compiler.Ar + " rc $@ $^",
				cfg.Compiler.Ranlib + " $@",
			},
		},
		Rule{
			Target:   test,
			Deps:     []string{lib, ref(varObjects)},
			Commands: []string{join(linker, flags.link, ref(varObjects), "-o $@", flags.libraries, ownLink)},
		},
		Rule{
			Target:   exe,
			Deps:     []string{ref(varObjects)},
			Commands: []string{join(linker, flags.link, ref(varObjects), "-o $@", flags.libraries)},
		},
		Rule{Target: "all", Deps: []string{lib, test, exe}, Phony: true},
		Rule{Target: "lib", Deps: []string{lib}, Phony: true},
		Rule{Target: "main", Deps: []string{exe}, Phony: true},
		Rule{Target: "test", Deps: []string{test}, Commands: []string{test}, Phony: true},
		Rule{Target: "run", Deps: []string{exe}, Commands: []string{exe}, Phony: true},
		Rule{Target: "time", Deps: []string{exe}, Commands: []string{join(tools.Time, exe)}, Phony: true},
	)
	for _, name := range slices.Sorted(maps.Keys(tools.Profilers)) {
		if slices.Contains(reservedRules, name) {
			return "", &target.ConfigurationError{
				Field:  "profiler",
				Value:  name,
				Reason: "clashes with a built-in rule",
				Valid:  reservedRules,
			}
		}
		rules = append(rules, Rule{
			Target:   name,
			Deps:     []string{exe},
			Commands: []string{join(tools.Profilers[name], exe)},
			Phony:    true,
		})
	}
	rules = append(rules, Rule{
		Target:   "clean",
		Commands: []string{tools.Rm + " -rf " + quote(out.dir.String())},
		Phony:    true,
	})

	var sb strings.Builder
	writeln(&sb, "# Generated by mmake for target ", cfg.Name, " (", cfg.Target, ", ", mode.String(), "). Do not edit.")
	writeln(&sb)
	writeVar(&sb, varSources, pathList(set.Paths()))
	writeVar(&sb, varObjects, pathList(set.Objects()))
	writeVar(&sb, varTestObjects, pathList(set.TestObjects()))
	writeVar(&sb, varLibObjects, pathList(set.LibObjects()))
	writeVar(&sb, varDependencies, pathList(set.Dependencies()))
	writeln(&sb)
	writeln(&sb, ".DEFAULT_GOAL := all")
	for _, r := range rules {
		writeln(&sb)
		r.writeTo(&sb)
	}
	if deps := pathList(set.Dependencies()); len(deps) > 0 {
		writeln(&sb)
		writeln(&sb, "-include ", strings.Join(deps, " "))
	}
	return sb.String(), nil
}

// Invoke runs make on the Makefile in buildDir.
func (m Makefile) Invoke(ctx context.Context, buildDir fspath.Path, args []string, stdout, stderr io.Writer) error {
	makefile, err := buildDir.ResolveRaw(m.BuildFile())
	if err != nil {
		return err
	}
	bin := m.Make
	if bin == "" {
		bin = "make"
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--makefile=" + makefile.String()}, args...)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}
