package scan

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Lister enumerates the regular files below a directory.
type Lister interface {
	// Args identifies the listing, so results of different listers
	// are cached apart.
	Args() string
	// List returns paths relative to root, '/'-separated and sorted.
	List(ctx context.Context, root string) ([]string, error)
}

// DirLister walks the directory in process.
type DirLister struct{}

func (DirLister) Args() string { return "**" }

func (DirLister) List(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := doublestar.Glob(os.DirFS(root), "**",
		doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// FindLister runs an external find(1) compatible command.
type FindLister struct {
	Command string // e.g. "find" or "busybox find"
}

func (l FindLister) Args() string { return l.Command + " -type f" }

func (l FindLister) List(ctx context.Context, root string) ([]string, error) {
	fields := strings.Fields(l.Command)
	if len(fields) == 0 {
		return nil, errors.New("empty find command")
	}
	args := append(fields[1:], root, "-type", "f")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}

	var files []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		rel, err := filepath.Rel(root, line)
		if err != nil {
			return nil, err
		}
		files = append(files, filepath.ToSlash(rel))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}
