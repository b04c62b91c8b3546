package fspath

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		dialect  *Dialect
		want     string
		absolute bool
		root     bool
	}{
		{"empty", "", Posix, "", false, false},
		{"file", "main.c", Posix, "main.c", false, false},
		{"relative", "src/main.c", Posix, "src/main.c", false, false},
		{"absolute", "/usr/include", Posix, "/usr/include", true, false},
		{"root", "/", Posix, "/", true, true},
		{"double separators", "src//test/", Posix, "src/test", false, false},
		{"root with trailing separators", "//", Posix, "/", true, true},
		{"windows drive", `C:\`, Windows, `C:\`, true, true},
		{"windows absolute", `C:\Users\me`, Windows, `C:\Users\me`, true, false},
		{"windows relative", `src\main.c`, Windows, `src\main.c`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.raw, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
			assert.Equal(t, tt.absolute, p.IsAbsolute())
			assert.Equal(t, tt.root, p.IsRoot())
			assert.Same(t, tt.dialect, p.Dialect())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		dialect *Dialect
		kind    string
		char    rune
	}{
		{"colon on posix", "a:b", Posix, "segment", ':'},
		{"backslash on posix", `a\b`, Posix, "segment", '\\'},
		{"wildcard", "src/*.c", Posix, "segment", '*'},
		{"bad drive", `foo:\bar`, Windows, "root", 0},
		{"pipe on windows", `a\b|c`, Windows, "segment", '|'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, tt.dialect)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.kind, syntaxErr.Kind)
			assert.Equal(t, tt.char, syntaxErr.Char)
			assert.Contains(t, err.Error(), tt.dialect.Name)
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	for _, raw := range []string{"", "/", "a", "a/b.c", "/x/y/z.tar.gz", "./rel/../x", ".hidden"} {
		p := MustParse(raw, Posix)
		again, err := Parse(p.String(), p.Dialect())
		require.NoError(t, err)
		assert.Equal(t, p.String(), again.String(), raw)
	}
	for _, raw := range []string{`C:\`, `C:\a\b.txt`, `rel\x`} {
		p := MustParse(raw, Windows)
		again, err := Parse(p.String(), p.Dialect())
		require.NoError(t, err)
		assert.Equal(t, p.String(), again.String(), raw)
	}
}

func TestDecomposition(t *testing.T) {
	p := MustParse("/home/user/archive.tar.gz", Posix)

	root, ok := p.Root()
	require.True(t, ok)
	assert.Equal(t, "/", root.String())
	assert.True(t, root.IsRoot())

	dir, ok := p.Directory()
	require.True(t, ok)
	assert.Equal(t, "/home/user", dir.String())
	assert.True(t, dir.IsAbsolute())

	name, ok := p.FileName()
	require.True(t, ok)
	assert.Equal(t, "archive.tar.gz", name.String())
	assert.Equal(t, "archive.tar", p.ExtensionLessFileName())
	assert.Equal(t, ".gz", p.Extension())

	top := MustParse("/etc", Posix)
	dir, ok = top.Directory()
	require.True(t, ok)
	assert.True(t, dir.IsRoot())

	t.Run("root has no directory or file name", func(t *testing.T) {
		r := MustParse("/", Posix)
		_, ok := r.Directory()
		assert.False(t, ok)
		_, ok = r.FileName()
		assert.False(t, ok)
		assert.Equal(t, "", r.Extension())
	})

	t.Run("file name has no root or directory", func(t *testing.T) {
		f := MustParse("Makefile", Posix)
		_, ok := f.Root()
		assert.False(t, ok)
		_, ok = f.Directory()
		assert.False(t, ok)
		assert.Equal(t, "Makefile", f.ExtensionLessFileName())
		assert.Equal(t, "", f.Extension())
	})

	t.Run("windows", func(t *testing.T) {
		w := MustParse(`C:\src\main.cpp`, Windows)
		root, ok := w.Root()
		require.True(t, ok)
		assert.Equal(t, `C:\`, root.String())
		dir, ok := w.Directory()
		require.True(t, ok)
		assert.Equal(t, `C:\src`, dir.String())
		assert.Equal(t, ".cpp", w.Extension())
	})
}

func TestResolve(t *testing.T) {
	empty := Empty(Posix)
	src := MustParse("src", Posix)
	abs := MustParse("/opt/lib", Posix)

	t.Run("identity", func(t *testing.T) {
		for _, p := range []Path{src, MustParse("a/b/c.h", Posix), MustParse("x", Posix)} {
			r, err := p.Resolve(empty)
			require.NoError(t, err)
			assert.Equal(t, p.String(), r.String())

			r, err = empty.Resolve(p)
			require.NoError(t, err)
			assert.Equal(t, p.String(), r.String())
		}
	})

	t.Run("absolute replaces", func(t *testing.T) {
		for _, p := range []Path{src, abs, empty, MustParse("/", Posix)} {
			r, err := p.Resolve(abs)
			require.NoError(t, err)
			assert.Equal(t, abs.String(), r.String())
		}
	})

	t.Run("append", func(t *testing.T) {
		r, err := src.ResolveRaw("test/a.c")
		require.NoError(t, err)
		assert.Equal(t, "src/test/a.c", r.String())
		assert.Equal(t, ".c", r.Extension())
		dir, _ := r.Directory()
		assert.Equal(t, "src/test", dir.String())

		r, err = MustParse("/", Posix).ResolveRaw("usr")
		require.NoError(t, err)
		assert.Equal(t, "/usr", r.String())
		assert.True(t, r.IsAbsolute())
	})

	t.Run("deep chain stays consistent", func(t *testing.T) {
		p := MustParse("/", Posix)
		var err error
		for range 100 {
			p, err = p.ResolveRaw("d")
			require.NoError(t, err)
		}
		p, err = p.ResolveRaw("leaf.txt")
		require.NoError(t, err)
		root, ok := p.Root()
		require.True(t, ok)
		assert.Equal(t, "/", root.String())
		assert.Equal(t, "leaf", p.ExtensionLessFileName())
		assert.Equal(t, MustParse(p.String(), Posix).String(), p.String())
	})

	t.Run("dialect mismatch", func(t *testing.T) {
		_, err := src.Resolve(MustParse(`include`, Windows))
		assert.ErrorIs(t, err, ErrDialectMismatch)
	})

	t.Run("invalid raw", func(t *testing.T) {
		_, err := src.ResolveRaw("a?b")
		var syntaxErr *SyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
	})
}

func TestSwitchDialect(t *testing.T) {
	p := MustParse("src/test/a.c", Posix)
	w, err := p.SwitchDialect(Windows)
	require.NoError(t, err)
	assert.Equal(t, `src\test\a.c`, w.String())
	assert.Same(t, Windows, w.Dialect())

	back, err := w.SwitchDialect(Posix)
	require.NoError(t, err)
	assert.Equal(t, p.String(), back.String())

	same, err := p.SwitchDialect(Posix)
	require.NoError(t, err)
	assert.Equal(t, p.String(), same.String())

	_, err = MustParse("/usr", Posix).SwitchDialect(Windows)
	assert.ErrorIs(t, err, ErrSwitchAbsolute)
}

func TestPrefixAndSuffix(t *testing.T) {
	test := MustParse("src/test", Posix)

	assert.True(t, MustParse("src/test/b.c", Posix).HasPrefix(test))
	assert.True(t, MustParse("src/test", Posix).HasPrefix(test))
	assert.False(t, MustParse("src/testing/b.c", Posix).HasPrefix(test))
	assert.False(t, MustParse("src/a.c", Posix).HasPrefix(test))
	assert.True(t, MustParse("/a", Posix).HasPrefix(MustParse("/", Posix)))

	rel, ok := MustParse("src/test/b.c", Posix).TrimPrefix(MustParse("src", Posix))
	require.True(t, ok)
	assert.Equal(t, "test/b.c", rel.String())
	assert.False(t, rel.IsAbsolute())

	rel, ok = MustParse("/a/b", Posix).TrimPrefix(MustParse("/", Posix))
	require.True(t, ok)
	assert.Equal(t, "a/b", rel.String())

	_, ok = MustParse("lib/x.c", Posix).TrimPrefix(MustParse("src", Posix))
	assert.False(t, ok)

	obj, err := MustParse("bin/main.c", Posix).WithSuffix(".o")
	require.NoError(t, err)
	assert.Equal(t, "bin/main.c.o", obj.String())
	assert.Equal(t, ".o", obj.Extension())

	dep, err := obj.WithExtension(".d")
	require.NoError(t, err)
	assert.Equal(t, "bin/main.c.d", dep.String())

	_, err = MustParse("/", Posix).WithSuffix(".o")
	assert.ErrorIs(t, err, ErrNoFileName)
	_, err = obj.WithSuffix("/x")
	assert.Error(t, err)
}

func TestMetadataCache(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.txt")
	p := MustParse(file, Posix)

	exists, err := p.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	// cached until reset
	exists, err = p.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	// an independent instance has its own cache
	other := MustParse(file, Posix)
	exists, err = other.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	p.Reset()
	exists, err = p.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := p.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Size())

	require.NoError(t, os.Remove(file))
	other.Reset()
	_, err = other.Stat()
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNative(t *testing.T) {
	assert.Same(t, Windows, Native("windows"))
	assert.Same(t, Posix, Native("linux"))
	d, ok := ByName("windows")
	assert.True(t, ok)
	assert.Same(t, Windows, d)
	_, ok = ByName("plan9")
	assert.False(t, ok)
	assert.Equal(t, `a\b`, Windows.Coerce("a/b"))
}
