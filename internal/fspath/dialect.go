package fspath

import (
	"strings"
)

// Dialect is a set of path syntax rules. Only the two built-in dialects
// exist; compare them by pointer.
type Dialect struct {
	Name      string
	Separator string

	root     func(s string) bool
	rootLike func(prefix string) bool
	char     func(r rune) bool
	coerce   func(r rune) rune
}

var Posix = &Dialect{
	Name:      "posix",
	Separator: "/",
	root: func(s string) bool {
		return s == "/"
	},
	rootLike: func(prefix string) bool {
		return prefix == ""
	},
	char: func(r rune) bool {
		return !strings.ContainsRune(":/\"?*|<>\\", r)
	},
	coerce: func(r rune) rune { return r },
}

var Windows = &Dialect{
	Name:      "windows",
	Separator: `\`,
	root: func(s string) bool {
		return len(s) == 3 && isDriveLetter(s[0]) && s[1:] == `:\`
	},
	rootLike: func(prefix string) bool {
		return strings.Contains(prefix, ":")
	},
	char: func(r rune) bool {
		return !strings.ContainsRune(":\"?*|<>\\", r)
	},
	coerce: func(r rune) rune {
		if r == '/' {
			return '\\'
		}
		return r
	},
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Native returns the dialect used by the given GOOS value.
func Native(goos string) *Dialect {
	if goos == "windows" {
		return Windows
	}
	return Posix
}

// ByName looks up a built-in dialect.
func ByName(name string) (*Dialect, bool) {
	switch name {
	case Posix.Name:
		return Posix, true
	case Windows.Name:
		return Windows, true
	}
	return nil, false
}

func (d *Dialect) String() string { return d.Name }

// IsRoot reports whether s is exactly a root in this dialect.
func (d *Dialect) IsRoot(s string) bool { return d.root(s) }

// IsValidChar reports whether r may appear inside a path segment.
func (d *Dialect) IsValidChar(r rune) bool { return d.char(r) }

// Coerce rewrites foreign characters (e.g. '/' on windows) into this
// dialect's equivalents.
func (d *Dialect) Coerce(raw string) string {
	return strings.Map(d.coerce, raw)
}

func (d *Dialect) checkSegment(segment string) error {
	for _, r := range segment {
		if !d.char(r) {
			return &SyntaxError{Dialect: d, Kind: "segment", Value: segment, Char: r}
		}
	}
	return nil
}
