// Package fspath implements file system paths that are independent of the
// host's path syntax.
//
// A Path is decomposed when it is built, so structural queries never
// reparse or walk anything, and Resolve derives the decomposition of the
// result from its operands.
package fspath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

var (
	ErrDialectMismatch = errors.New("cannot combine paths of different dialects")
	ErrSwitchAbsolute  = errors.New("cannot switch the dialect of an absolute path")
	ErrNoFileName      = errors.New("path has no file name")
)

// SyntaxError reports a raw path rejected by a dialect.
type SyntaxError struct {
	Dialect *Dialect
	Kind    string // "root" or "segment"
	Value   string
	Char    rune
}

func (e *SyntaxError) Error() string {
	if e.Char != 0 {
		return fmt.Sprintf("invalid path %s on %s dialect: %q (%q)", e.Kind, e.Dialect.Name, e.Value, e.Char)
	}
	return fmt.Sprintf("invalid path %s on %s dialect: %q", e.Kind, e.Dialect.Name, e.Value)
}

// Path is an immutable path value. The zero Path is empty and has no
// dialect; use Parse or Empty.
type Path struct {
	dialect *Dialect
	raw     string

	rootLen   int // length of the root prefix, 0 if relative
	nameStart int // start of the file name, len(raw) if there is none
	ext       int // start of the extension (at the '.'), len(raw) if none

	meta *meta
}

type meta struct {
	mu   sync.Mutex
	done bool
	info fs.FileInfo
	err  error
}

func newPath(d *Dialect, raw string, rootLen int) Path {
	p := Path{dialect: d, raw: raw, rootLen: rootLen, meta: &meta{}}
	if rootLen == len(raw) {
		p.nameStart = len(raw)
		p.ext = len(raw)
		return p
	}
	if i := strings.LastIndex(raw[rootLen:], d.Separator); i >= 0 {
		p.nameStart = rootLen + i + len(d.Separator)
	} else {
		p.nameStart = rootLen
	}
	if j := strings.LastIndexByte(raw[p.nameStart:], '.'); j >= 0 {
		p.ext = p.nameStart + j
	} else {
		p.ext = len(raw)
	}
	return p
}

// Empty returns the empty path of a dialect.
func Empty(d *Dialect) Path {
	return newPath(d, "", 0)
}

// Parse splits raw into root and segments without touching the file
// system. Empty segments are dropped, so "a//b/" parses as "a/b".
func Parse(raw string, d *Dialect) (Path, error) {
	if raw == "" {
		return Empty(d), nil
	}
	if d.IsRoot(raw) {
		return newPath(d, raw, len(raw)), nil
	}

	root, rest := "", raw
	if i := strings.Index(raw, d.Separator); i >= 0 {
		candidate := raw[:i+len(d.Separator)]
		switch {
		case d.IsRoot(candidate):
			root, rest = candidate, raw[len(candidate):]
		case d.rootLike(raw[:i]):
			return Path{}, &SyntaxError{Dialect: d, Kind: "root", Value: candidate}
		}
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	sb.WriteString(root)
	first := true
	for segment := range strings.SplitSeq(rest, d.Separator) {
		if segment == "" {
			continue
		}
		if err := d.checkSegment(segment); err != nil {
			return Path{}, err
		}
		if !first {
			sb.WriteString(d.Separator)
		}
		sb.WriteString(segment)
		first = false
	}
	return newPath(d, sb.String(), len(root)), nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string, d *Dialect) Path {
	p, err := Parse(raw, d)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) Dialect() *Dialect { return p.dialect }
func (p Path) String() string    { return p.raw }

// MarshalText renders the raw path, so paths print naturally in TOML.
func (p Path) MarshalText() ([]byte, error) { return []byte(p.raw), nil }

func (p Path) IsEmpty() bool    { return p.raw == "" }
func (p Path) IsAbsolute() bool { return p.rootLen > 0 }
func (p Path) IsRoot() bool     { return p.rootLen > 0 && p.rootLen == len(p.raw) }

func (p Path) hasDirectory() bool {
	return !p.IsRoot() && !p.IsEmpty() && p.nameStart > 0
}

// Root returns the root of an absolute path.
func (p Path) Root() (Path, bool) {
	if p.rootLen == 0 {
		return Path{}, false
	}
	if p.IsRoot() {
		return p, true
	}
	return newPath(p.dialect, p.raw[:p.rootLen], p.rootLen), true
}

// Directory returns everything before the file name. The directory of
// "/a" is the root "/"; a bare file name has none.
func (p Path) Directory() (Path, bool) {
	if !p.hasDirectory() {
		return Path{}, false
	}
	end := p.nameStart - len(p.dialect.Separator)
	if p.nameStart == p.rootLen {
		end = p.rootLen
	}
	return newPath(p.dialect, p.raw[:end], min(p.rootLen, end)), true
}

// FileName returns the last segment.
func (p Path) FileName() (Path, bool) {
	if p.IsEmpty() || p.IsRoot() {
		return Path{}, false
	}
	return newPath(p.dialect, p.raw[p.nameStart:], 0), true
}

// ExtensionLessFileName returns the file name up to its last '.'.
func (p Path) ExtensionLessFileName() string {
	return p.raw[p.nameStart:p.ext]
}

// Extension returns the extension including the leading '.', or "".
func (p Path) Extension() string {
	return p.raw[p.ext:]
}

// Resolve composes p with other. Empty operands are identities and an
// absolute other replaces p.
func (p Path) Resolve(other Path) (Path, error) {
	if p.IsEmpty() {
		return other, nil
	}
	if other.IsEmpty() {
		return p, nil
	}
	if p.dialect != other.dialect {
		return Path{}, fmt.Errorf("%w: %s %q and %s %q", ErrDialectMismatch, p.dialect, p.raw, other.dialect, other.raw)
	}
	if other.IsAbsolute() {
		return other, nil
	}
	joiner := p.dialect.Separator
	if p.IsRoot() {
		joiner = ""
	}
	return newPath(p.dialect, p.raw+joiner+other.raw, p.rootLen), nil
}

// ResolveRaw parses raw in p's dialect and resolves it onto p.
func (p Path) ResolveRaw(raw string) (Path, error) {
	other, err := Parse(raw, p.dialect)
	if err != nil {
		return Path{}, err
	}
	return p.Resolve(other)
}

// SwitchDialect re-expresses a relative path in dialect d.
func (p Path) SwitchDialect(d *Dialect) (Path, error) {
	if p.dialect == d {
		return p, nil
	}
	if p.IsAbsolute() {
		return Path{}, fmt.Errorf("%w: %q", ErrSwitchAbsolute, p.raw)
	}
	return Parse(strings.ReplaceAll(p.raw, p.dialect.Separator, d.Separator), d)
}

// Equal compares dialect and raw text.
func (p Path) Equal(q Path) bool {
	return p.dialect == q.dialect && p.raw == q.raw
}

// HasPrefix reports whether prefix is p or one of p's ancestors. Unlike
// strings.HasPrefix, "src/testing" does not start with "src/test".
func (p Path) HasPrefix(prefix Path) bool {
	if prefix.IsEmpty() {
		return true
	}
	if p.dialect != prefix.dialect || !strings.HasPrefix(p.raw, prefix.raw) {
		return false
	}
	if len(p.raw) == len(prefix.raw) || prefix.IsRoot() {
		return true
	}
	return strings.HasPrefix(p.raw[len(prefix.raw):], p.dialect.Separator)
}

// TrimPrefix returns p relative to prefix.
func (p Path) TrimPrefix(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return Path{}, false
	}
	if prefix.IsEmpty() {
		return p, true
	}
	rest := p.raw[len(prefix.raw):]
	if !prefix.IsRoot() {
		rest = strings.TrimPrefix(rest, p.dialect.Separator)
	}
	return newPath(p.dialect, rest, 0), true
}

// WithSuffix appends s to the file name, e.g. "main.c" + ".o".
func (p Path) WithSuffix(s string) (Path, error) {
	if p.IsEmpty() || p.IsRoot() {
		return Path{}, fmt.Errorf("%w: %q", ErrNoFileName, p.raw)
	}
	if err := p.dialect.checkSegment(s); err != nil {
		return Path{}, err
	}
	return newPath(p.dialect, p.raw+s, p.rootLen), nil
}

// WithExtension replaces the extension (including the '.') with ext.
func (p Path) WithExtension(ext string) (Path, error) {
	if p.IsEmpty() || p.IsRoot() {
		return Path{}, fmt.Errorf("%w: %q", ErrNoFileName, p.raw)
	}
	if err := p.dialect.checkSegment(ext); err != nil {
		return Path{}, err
	}
	return newPath(p.dialect, p.raw[:p.ext]+ext, p.rootLen), nil
}

// Stat returns file information, querying the file system only on the
// first call. Later calls return the cached result until Reset.
func (p Path) Stat() (fs.FileInfo, error) {
	if p.meta == nil {
		return os.Stat(p.raw)
	}
	p.meta.mu.Lock()
	defer p.meta.mu.Unlock()
	if !p.meta.done {
		p.meta.info, p.meta.err = os.Stat(p.raw)
		p.meta.done = true
	}
	return p.meta.info, p.meta.err
}

// Exists reports whether the path existed when it was first queried.
func (p Path) Exists() (bool, error) {
	_, err := p.Stat()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Reset drops cached metadata. Callers that change the file system behind
// a path's back must call it themselves.
func (p Path) Reset() {
	if p.meta == nil {
		return
	}
	p.meta.mu.Lock()
	defer p.meta.mu.Unlock()
	p.meta.done = false
	p.meta.info, p.meta.err = nil, nil
}
