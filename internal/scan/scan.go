// Package scan enumerates the source files of a target.
package scan

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/qobs-build/mmake/internal/fspath"
	"github.com/qobs-build/mmake/internal/target"
)

// Error reports a failed directory listing.
type Error struct {
	Root string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scanning %q: %v", e.Root, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Request describes one scan.
type Request struct {
	SourceRoot fspath.Path
	OutputRoot fspath.Path
	TestRoot   fspath.Path
	Languages  []target.Language
	Filter     target.Predicate // nil accepts every file
	Lister     Lister           // nil uses the scanner's lister
}

// Source is one scanned source file and the files compiling it produces.
type Source struct {
	Path       fspath.Path
	Object     fspath.Path
	Dependency fspath.Path
	Language   target.Language
	Test       bool
}

// SourceSet is the result of a scan, ordered by source path.
type SourceSet struct {
	Sources []Source
}

func (s *SourceSet) collect(keep func(Source) bool, get func(Source) fspath.Path) []fspath.Path {
	var out []fspath.Path
	for _, src := range s.Sources {
		if keep == nil || keep(src) {
			out = append(out, get(src))
		}
	}
	return out
}

func sourcePath(s Source) fspath.Path { return s.Path }
func objectPath(s Source) fspath.Path { return s.Object }
func depPath(s Source) fspath.Path    { return s.Dependency }
func isTest(s Source) bool            { return s.Test }
func isLib(s Source) bool             { return !s.Test }

func (s *SourceSet) Paths() []fspath.Path        { return s.collect(nil, sourcePath) }
func (s *SourceSet) Objects() []fspath.Path      { return s.collect(nil, objectPath) }
func (s *SourceSet) TestObjects() []fspath.Path  { return s.collect(isTest, objectPath) }
func (s *SourceSet) LibObjects() []fspath.Path   { return s.collect(isLib, objectPath) }
func (s *SourceSet) Dependencies() []fspath.Path { return s.collect(nil, depPath) }

// Has reports whether any source is written in lang.
func (s *SourceSet) Has(lang target.Language) bool {
	for _, src := range s.Sources {
		if src.Language == lang {
			return true
		}
	}
	return false
}

// Scanner runs scans, listing each (lister, root) pair at most once for
// its lifetime. It is safe for concurrent use. A shared listing is not
// cancelled with the caller that started it; each caller stops waiting
// when its own context is done.
type Scanner struct {
	lister Lister

	group singleflight.Group
	mu    sync.Mutex
	done  map[string][]string
}

func NewScanner(l Lister) *Scanner {
	return &Scanner{lister: l, done: make(map[string][]string)}
}

func (s *Scanner) cached(key string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.done[key]
	return files, ok
}

// list returns the files under root, relative to it and '/'-separated.
// Concurrent callers for one root share a single listing.
func (s *Scanner) list(ctx context.Context, l Lister, root string) ([]string, error) {
	key := l.Args() + "\x00" + root
	if files, ok := s.cached(key); ok {
		return files, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		if files, ok := s.cached(key); ok {
			return files, nil
		}
		files, err := l.List(context.WithoutCancel(ctx), root)
		if err != nil {
			return nil, &Error{Root: root, Err: err}
		}
		s.mu.Lock()
		s.done[key] = files
		s.mu.Unlock()
		return files, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]string), nil
	}
}

// Scan lists the source root and classifies what it finds.
func (s *Scanner) Scan(ctx context.Context, req Request) (*SourceSet, error) {
	d := req.SourceRoot.Dialect()
	l := req.Lister
	if l == nil {
		l = s.lister
	}
	files, err := s.list(ctx, l, req.SourceRoot.String())
	if err != nil {
		return nil, err
	}

	set := &SourceSet{}
	owners := make(map[string]fspath.Path, len(files))
	for _, file := range files {
		rel, err := fspath.Parse(d.Coerce(file), d)
		if err != nil {
			return nil, &Error{Root: req.SourceRoot.String(), Err: err}
		}
		lang, ok := target.LanguageOf(rel.Extension())
		if !ok || !slices.Contains(req.Languages, lang) {
			continue
		}
		if req.Filter != nil {
			keep, err := req.Filter(rel)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}

		src, err := s.source(req, rel, lang)
		if err != nil {
			return nil, err
		}
		if prev, dup := owners[src.Object.String()]; dup {
			return nil, &target.ConfigurationError{
				Field:  "source",
				Value:  src.Path.String(),
				Reason: fmt.Sprintf("compiles to the same object as %q", prev),
			}
		}
		owners[src.Object.String()] = src.Path
		set.Sources = append(set.Sources, src)
	}
	return set, nil
}

func (s *Scanner) source(req Request, rel fspath.Path, lang target.Language) (Source, error) {
	src := Source{Language: lang}
	var err error
	if src.Path, err = req.SourceRoot.Resolve(rel); err != nil {
		return Source{}, err
	}
	out, err := req.OutputRoot.Resolve(rel)
	if err != nil {
		return Source{}, err
	}
	if src.Object, err = out.WithSuffix(".o"); err != nil {
		return Source{}, err
	}
	if src.Dependency, err = src.Object.WithExtension(".d"); err != nil {
		return Source{}, err
	}
	src.Test = !req.TestRoot.IsEmpty() && src.Path.HasPrefix(req.TestRoot)
	return src, nil
}
