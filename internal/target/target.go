package target

import (
	"fmt"

	"github.com/qobs-build/mmake/internal/fspath"
)

// Tools are the shell commands used inside generated rules.
type Tools struct {
	Mkdir string `toml:"mkdir"`
	Rm    string `toml:"rm"`
	Find  string `toml:"find"`
	Time  string `toml:"time"`
	// Profilers each get a phony target running them on the executable.
	Profilers map[string]string `toml:"profilers"`
}

// Layout is the unresolved directory layout: names relative to their
// parents.
type Layout struct {
	Src   fspath.Path
	Bin   fspath.Path
	Main  fspath.Path // under Src
	Test  fspath.Path // under Src
	Modes Modes[fspath.Path]
}

// Directories is a Layout resolved for one target.
type Directories struct {
	Src    fspath.Path        `toml:"src"`
	Main   fspath.Path        `toml:"main"`
	Test   fspath.Path        `toml:"test"`
	Bin    fspath.Path        `toml:"bin"`
	Target fspath.Path        `toml:"target"`
	Modes  Modes[fspath.Path] `toml:"modes"`
}

// Mode returns the output directory of a production mode.
func (d Directories) Mode(m Mode) fspath.Path {
	return d.Modes.Get(m)
}

// Fill resolves the layout under bin/<target>.
func (l Layout) Fill(target string) (Directories, error) {
	resolve := func(parent, child fspath.Path) (fspath.Path, error) {
		p, err := parent.Resolve(child)
		if err != nil {
			return fspath.Path{}, fmt.Errorf("resolving %q under %q: %w", child, parent, err)
		}
		return p, nil
	}

	targetName, err := fspath.Parse(target, l.Bin.Dialect())
	if err != nil {
		return Directories{}, &ConfigurationError{Field: "target", Value: target, Reason: "is not a valid directory name: " + err.Error()}
	}
	if _, ok := targetName.Directory(); ok || targetName.IsAbsolute() || targetName.IsEmpty() {
		return Directories{}, &ConfigurationError{Field: "target", Value: target, Reason: "must be a single path segment"}
	}

	var d Directories
	d.Src, d.Bin = l.Src, l.Bin
	if d.Main, err = resolve(l.Src, l.Main); err != nil {
		return Directories{}, err
	}
	if d.Test, err = resolve(l.Src, l.Test); err != nil {
		return Directories{}, err
	}
	if d.Target, err = resolve(l.Bin, targetName); err != nil {
		return Directories{}, err
	}
	if d.Modes.Development, err = resolve(d.Target, l.Modes.Development); err != nil {
		return Directories{}, err
	}
	if d.Modes.Production, err = resolve(d.Target, l.Modes.Production); err != nil {
		return Directories{}, err
	}
	return d, nil
}

// Filter selects which scanned sources take part in the build.
type Filter struct {
	// Expr is an expr-lang boolean expression over path, name, ext and
	// dir. Empty accepts everything.
	Expr string `toml:"expr,omitempty"`
	// Exclude holds doublestar globs matched against the source path.
	Exclude []string `toml:"exclude,omitempty"`
}

// Config is a fully resolved target. Every field is populated; nothing
// downstream looks at the UserTarget it came from.
type Config struct {
	Name           string                   `toml:"name"`
	Target         string                   `toml:"target"`
	Compiler       Compiler                 `toml:"compiler"`
	Standards      Languages                `toml:"standards"`
	Tools          Tools                    `toml:"tools"`
	Warnings       []string                 `toml:"warnings"`
	SuppressErrors []string                 `toml:"suppress-errors"`
	Macros         Modes[map[string]string] `toml:"macros"`
	Libraries      []Library                `toml:"libraries"`
	Optimizations  Modes[Optimizations]     `toml:"optimizations"`
	Debug          Modes[Debug]             `toml:"debug"`
	Flags          Modes[[]string]          `toml:"flags"`
	Directories    Directories              `toml:"directories"`
	Filter         Filter                   `toml:"filter"`
	Layout         Layout                   `toml:"-"`
}

// Dialect returns the path dialect the target's paths are written in.
func (c *Config) Dialect() *fspath.Dialect {
	return c.Layout.Src.Dialect()
}

// Default returns the built-in default target for dialect d.
func Default(d *fspath.Dialect) *Config {
	p := func(raw string) fspath.Path { return fspath.MustParse(raw, d) }
	macros := func() map[string]string {
		return map[string]string{
			"_POSIX_C_SOURCE": "201810L",
			"_XOPEN_SOURCE":   "700",
			"_DEFAULT_SOURCE": "1",
		}
	}

	cfg := &Config{
		Name:     "a",
		Target:   "native",
		Compiler: builtinCompilers["gcc"],
		Standards: Languages{
			C:   "11",
			Cpp: "17",
		},
		Tools: Tools{
			Mkdir: "mkdir -p",
			Rm:    "rm",
			Find:  "find",
			Time:  "time",
			Profilers: map[string]string{
				"valgrind":  "valgrind --leak-check=full --show-leak-kinds=all",
				"callgrind": "valgrind --tool=callgrind",
				"massif":    "valgrind --tool=massif",
			},
		},
		Warnings:       []string{"all", "error", "extra"},
		SuppressErrors: []string{},
		Macros: Modes[map[string]string]{
			Development: macros(),
			Production:  macros(),
		},
		Libraries: []Library{
			{Include: p(".")},
		},
		Optimizations: Modes[Optimizations]{
			Development: Optimizations{Level: "0", Flags: []string{}},
			Production:  Optimizations{Level: "3", LTO: "flto", Flags: []string{}},
		},
		Debug: Modes[Debug]{
			Development: Debug{Flags: []string{"g"}},
			Production:  Debug{Flags: []string{}},
		},
		Flags: Share([]string{}),
		Layout: Layout{
			Src:  p("src"),
			Bin:  p("bin"),
			Main: p("main"),
			Test: p("test"),
			Modes: Modes[fspath.Path]{
				Development: p(string(Development)),
				Production:  p(string(Production)),
			},
		},
	}
	dirs, err := cfg.Layout.Fill(cfg.Target)
	if err != nil {
		panic(err)
	}
	cfg.Directories = dirs
	return cfg
}

// UserTarget is a partially specified target as written by the user.
// Nil pointers, maps and slices mean "not given".
type UserTarget struct {
	Target         string
	Compiler       *Compiler
	Standards      UserLanguages
	Tools          UserTools
	Warnings       []string
	SuppressErrors []string
	Macros         Modes[map[string]string]
	Libraries      []Library
	Optimizations  Modes[UserOptimizations]
	Debug          Modes[*Debug]
	Flags          Modes[[]string]
	Filter         UserFilter
}

type UserLanguages struct {
	C   *string `toml:"c"`
	Cpp *string `toml:"cpp"`
}

type UserTools struct {
	Mkdir     *string           `toml:"mkdir"`
	Rm        *string           `toml:"rm"`
	Find      *string           `toml:"find"`
	Time      *string           `toml:"time"`
	Profilers map[string]string `toml:"profilers"`
}

type UserOptimizations struct {
	Level *string
	LTO   *string
	Flags []string
}

type UserFilter struct {
	Expr    *string  `toml:"expr"`
	Exclude []string `toml:"exclude"`
}
