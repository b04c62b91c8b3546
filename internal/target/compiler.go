package target

import (
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// Language is a source language, named by its file extension.
type Language string

const (
	C   Language = "c"
	Cpp Language = "cpp"
)

// AllLanguages lists the supported languages in emission order.
var AllLanguages = []Language{C, Cpp}

// Extension returns the source extension including the '.'.
func (l Language) Extension() string { return "." + string(l) }

// LanguageOf maps a file extension (with '.') to its language.
func LanguageOf(ext string) (Language, bool) {
	for _, l := range AllLanguages {
		if l.Extension() == ext {
			return l, true
		}
	}
	return "", false
}

// Languages holds one string per language.
type Languages struct {
	C   string `toml:"c"`
	Cpp string `toml:"cpp"`
}

func (l Languages) Get(lang Language) string {
	if lang == Cpp {
		return l.Cpp
	}
	return l.C
}

// Compiler describes how to invoke a toolchain.
type Compiler struct {
	Name         string    `toml:"name,omitempty"`
	Compilers    Languages `toml:"compilers"`
	Preprocessor Languages `toml:"preprocessor"`
	Ar           string    `toml:"ar"`
	Ranlib       string    `toml:"ranlib"`
}

// makeCompiler derives the preprocessor and archive tools from the
// compiler drivers. prefix selects e.g. gcc-ar or llvm-ar.
func makeCompiler(name string, compilers Languages, prefix string) Compiler {
	tool := func(t string) string {
		if prefix == "" {
			return t
		}
		return prefix + "-" + t
	}
	return Compiler{
		Name:      name,
		Compilers: compilers,
		Preprocessor: Languages{
			C:   compilers.C + " -E",
			Cpp: compilers.Cpp + " -E",
		},
		Ar:     tool("ar"),
		Ranlib: tool("ranlib"),
	}
}

var builtinCompilers = map[string]Compiler{
	"gcc":        makeCompiler("gcc", Languages{C: "gcc", Cpp: "g++"}, "gcc"),
	"clang":      makeCompiler("clang", Languages{C: "clang", Cpp: "clang++"}, "llvm"),
	"emscripten": func() Compiler {
		// emscripten ships emar and emranlib rather than a prefixed pair
		c := makeCompiler("emscripten", Languages{C: "emcc", Cpp: "em++"}, "")
		c.Ar, c.Ranlib = "emar", "emranlib"
		return c
	}(),
}

const autoCompiler = "auto"

// CompilerNames lists the accepted profile names.
func CompilerNames() []string {
	return append(slices.Sorted(maps.Keys(builtinCompilers)), autoCompiler)
}

// CompilerByName returns a built-in profile, or probes the system for
// "auto".
func CompilerByName(name string) (Compiler, error) {
	if name == autoCompiler {
		return detectCompiler()
	}
	if c, ok := builtinCompilers[name]; ok {
		return c, nil
	}
	return Compiler{}, &ConfigurationError{
		Field:  "compiler",
		Value:  name,
		Reason: "is not a known compiler profile",
		Valid:  CompilerNames(),
	}
}

var (
	commonCCompilers   = []string{"clang", "gcc", "icx", "icc", "tcc"}
	commonCxxCompilers = []string{"clang++", "g++", "icpx", "icpc"}

	lookPath = exec.LookPath
	getenv   = os.Getenv
)

// findCompiler looks at $CC / $CXX first, then for common drivers on PATH.
func findCompiler(needCxx bool) string {
	env := "CC"
	candidates := commonCCompilers
	if needCxx {
		env = "CXX"
		candidates = commonCxxCompilers
	}
	if c := getenv(env); c != "" {
		return c
	}
	for _, compiler := range candidates {
		if _, err := lookPath(compiler); err == nil {
			return compiler
		}
	}
	return ""
}

func detectCompiler() (Compiler, error) {
	cc, cxx := findCompiler(false), findCompiler(true)
	if cc == "" || cxx == "" {
		return Compiler{}, &ConfigurationError{
			Field:  "compiler",
			Value:  autoCompiler,
			Reason: "found no C and C++ compiler on this system (set $CC and $CXX)",
		}
	}
	prefix := ""
	switch {
	case strings.Contains(filepath.Base(cc), "clang"):
		prefix = "llvm"
	case strings.Contains(filepath.Base(cc), "gcc"):
		prefix = "gcc"
	}
	return makeCompiler(autoCompiler, Languages{C: cc, Cpp: cxx}, prefix), nil
}

// completed fills in tools a user-written profile left out.
func (c Compiler) completed() Compiler {
	if c.Preprocessor.C == "" && c.Compilers.C != "" {
		c.Preprocessor.C = c.Compilers.C + " -E"
	}
	if c.Preprocessor.Cpp == "" && c.Compilers.Cpp != "" {
		c.Preprocessor.Cpp = c.Compilers.Cpp + " -E"
	}
	if c.Ar == "" {
		c.Ar = "ar"
	}
	if c.Ranlib == "" {
		c.Ranlib = "ranlib"
	}
	return c
}
