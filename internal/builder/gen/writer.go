package gen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/qobs-build/mmake/internal/fspath"
)

// Writer persists generated files, touching them only when their content
// changes so that make does not see spurious updates.
type Writer struct {
	// DryRun prints a patch of each change to Diff instead of writing.
	DryRun bool
	Diff   io.Writer
}

// Write stores content as dir/name and reports whether the file changed
// (or, in dry-run mode, would change).
func (w *Writer) Write(dir fspath.Path, name, content string) (bool, error) {
	file, err := dir.ResolveRaw(name)
	if err != nil {
		return false, err
	}
	path := file.String()

	old, err := os.ReadFile(path)
	switch {
	case err == nil && string(old) == content:
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	if w.DryRun {
		dmp := diffmatchpatch.New()
		patches := dmp.PatchMake(string(old), content)
		_, err := fmt.Fprintf(w.Diff, "--- %s\n+++ %s\n%s", path, path, dmp.PatchToText(patches))
		return true, err
	}

	if err := os.MkdirAll(dir.String(), 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp := filepath.Join(dir.String(), "."+name+"."+uuid.NewString()+".tmp")
	if err := writeFile(tmp, content); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("replacing %s: %w", path, err)
	}
	return true, nil
}

func writeFile(path, content string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.WriteString(f, content)
	return err
}
