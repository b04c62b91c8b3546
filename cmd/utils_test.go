package cmd

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/mmake/internal/fspath"
	"github.com/qobs-build/mmake/internal/target"
)

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("walk", map[string]string{
		"walk": "in process",
		"find": "",
	})
	assert.Equal(t, "walk", e.Value())
	assert.Equal(t, "[find, walk]", e.HelpString())

	require.NoError(t, e.Set("find"))
	assert.Equal(t, "find", e.String())

	err := e.Set("ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find, walk")
	assert.Equal(t, "find", e.Value())

	items, _ := e.CompletionFunc()(nil, nil, "")
	assert.Equal(t, []string{"find", "walk\tin process"}, items)
}

func TestNewEnumValueBadDefault(t *testing.T) {
	assert.Panics(t, func() {
		NewEnumValue("ninja", map[string]string{"make": ""})
	})
}

func TestInitScaffoldHasOneMain(t *testing.T) {
	dir := t.TempDir()
	initIn(dir, "demo")

	p, err := target.LoadProjectFromFile(filepath.Join(dir, defaultConfig),
		target.NewConfigEnv(fspath.Posix), fspath.Posix)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, p.TargetNames())

	var mains []string
	err = filepath.WalkDir(filepath.Join(dir, "src"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if strings.Contains(string(data), "main(") {
			rel, _ := filepath.Rel(dir, path)
			mains = append(mains, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main/main.c"}, mains)
	assert.FileExists(t, filepath.Join(dir, "src", "test", "test.c"))
}
