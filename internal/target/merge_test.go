package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/mmake/internal/fspath"
)

func ptr[T any](v T) *T { return &v }

func TestMergeEmptyUserKeepsDefault(t *testing.T) {
	def := Default(fspath.Posix)
	cfg, err := Merge("app", &UserTarget{Target: "native"}, def)
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Name)
	assert.Equal(t, def.Compiler, cfg.Compiler)
	assert.Equal(t, def.Standards, cfg.Standards)
	assert.Equal(t, def.Warnings, cfg.Warnings)
	assert.Equal(t, def.Macros, cfg.Macros)
	assert.Equal(t, def.Optimizations, cfg.Optimizations)
	assert.Equal(t, def.Debug, cfg.Debug)
	assert.Equal(t, def.Tools, cfg.Tools)
	assert.Equal(t, "bin/native/development", cfg.Directories.Mode(Development).String())
}

func TestMergeUnionIsOrderedAndDeduplicated(t *testing.T) {
	cfg, err := Merge("app", &UserTarget{
		Target:         "native",
		Warnings:       []string{"extra", "shadow", "all", "shadow"},
		SuppressErrors: []string{"unused-variable"},
		Flags: Modes[[]string]{
			Production: []string{"fno-exceptions", "fno-exceptions"},
		},
	}, Default(fspath.Posix))
	require.NoError(t, err)

	assert.Equal(t, []string{"all", "error", "extra", "shadow"}, cfg.Warnings)
	assert.Equal(t, []string{"unused-variable"}, cfg.SuppressErrors)
	assert.Empty(t, cfg.Flags.Development)
	assert.Equal(t, []string{"fno-exceptions"}, cfg.Flags.Production)
}

func TestMergeModesAreIndependent(t *testing.T) {
	def := Default(fspath.Posix)
	cfg, err := Merge("app", &UserTarget{
		Target: "native",
		Macros: Modes[map[string]string]{
			Development: map[string]string{"DEBUG": "1", "_XOPEN_SOURCE": "600"},
		},
		Optimizations: Modes[UserOptimizations]{
			Production: UserOptimizations{Level: ptr("2")},
		},
		Debug: Modes[*Debug]{
			Production: &Debug{Flags: []string{"g1"}},
		},
	}, def)
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Macros.Development["DEBUG"])
	assert.Equal(t, "600", cfg.Macros.Development["_XOPEN_SOURCE"])
	assert.Equal(t, "201810L", cfg.Macros.Development["_POSIX_C_SOURCE"])
	assert.Equal(t, def.Macros.Production, cfg.Macros.Production)
	assert.NotContains(t, def.Macros.Development, "DEBUG", "default must not be mutated")

	assert.Equal(t, Optimizations{Level: "0", Flags: []string{}}, cfg.Optimizations.Development)
	assert.Equal(t, Optimizations{Level: "2", LTO: "flto", Flags: []string{}}, cfg.Optimizations.Production)

	assert.Equal(t, []string{"g"}, cfg.Debug.Development.Flags)
	assert.Equal(t, []string{"g1"}, cfg.Debug.Production.Flags)
}

func TestMergeOverrides(t *testing.T) {
	clang, err := CompilerByName("clang")
	require.NoError(t, err)

	cfg, err := Merge("app", &UserTarget{
		Target:    "wasm",
		Compiler:  &clang,
		Standards: UserLanguages{Cpp: ptr("20")},
		Tools: UserTools{
			Mkdir:     ptr("install -d"),
			Profilers: map[string]string{"massif": "", "perf": "perf record"},
		},
		Libraries: []Library{{Binary: fspath.MustParse("m", fspath.Posix)}},
		Filter:    UserFilter{Expr: ptr(`ext == ".c"`), Exclude: []string{"old/**"}},
	}, Default(fspath.Posix))
	require.NoError(t, err)

	assert.Equal(t, "clang", cfg.Compiler.Name)
	assert.Equal(t, Languages{C: "11", Cpp: "20"}, cfg.Standards)
	assert.Equal(t, "install -d", cfg.Tools.Mkdir)
	assert.Equal(t, "rm", cfg.Tools.Rm)
	assert.NotContains(t, cfg.Tools.Profilers, "massif")
	assert.Equal(t, "perf record", cfg.Tools.Profilers["perf"])
	assert.Contains(t, cfg.Tools.Profilers, "valgrind")
	require.Len(t, cfg.Libraries, 2)
	assert.Equal(t, ".", cfg.Libraries[0].Include.String())
	assert.Equal(t, "m", cfg.Libraries[1].Binary.String())
	assert.Equal(t, Filter{Expr: `ext == ".c"`, Exclude: []string{"old/**"}}, cfg.Filter)
	assert.Equal(t, "bin/wasm", cfg.Directories.Target.String())
	assert.Equal(t, "src/test", cfg.Directories.Test.String())
}

func TestMergeErrors(t *testing.T) {
	tests := []struct {
		name  string
		user  UserTarget
		field string
	}{
		{"empty target", UserTarget{}, "target"},
		{"nested target", UserTarget{Target: "a/b"}, "target"},
		{"bad level", UserTarget{
			Target:        "native",
			Optimizations: Modes[UserOptimizations]{Development: UserOptimizations{Level: ptr("fastest")}},
		}, "optimization level"},
		{"bad local library", UserTarget{
			Target:    "native",
			Libraries: []Library{{Binary: fspath.MustParse("vendor/foo.a", fspath.Posix)}},
		}, "library binary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge("app", &tt.user, Default(fspath.Posix))
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestLayoutFillWindows(t *testing.T) {
	d, err := Default(fspath.Windows).Layout.Fill("native")
	require.NoError(t, err)
	assert.Equal(t, `bin\native\production`, d.Mode(Production).String())
	assert.Equal(t, `src\main`, d.Main.String())
}
