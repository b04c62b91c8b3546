package target

import (
	"maps"
	"slices"
	"strings"
)

// Flag turns a bare flag name into a command line token: "Wall" -> "-Wall".
// An empty name yields an empty token.
func Flag(name string) string {
	if name == "" {
		return ""
	}
	return "-" + name
}

// Flags formats every name with Flag and joins the non-empty results.
func Flags(names []string) string {
	tokens := make([]string, 0, len(names))
	for _, name := range names {
		if tok := Flag(name); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, " ")
}

// join concatenates already formatted flag groups, skipping empty ones.
func join(groups ...string) string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if g != "" {
			out = append(out, g)
		}
	}
	return strings.Join(out, " ")
}

func prefixed(prefix string, names []string) string {
	withPrefix := make([]string, len(names))
	for i, name := range names {
		if name != "" {
			withPrefix[i] = prefix + name
		}
	}
	return Flags(withPrefix)
}

func Warnings(warnings []string) string {
	return prefixed("W", warnings)
}

func SuppressErrors(errors []string) string {
	return prefixed("Wno-error=", errors)
}

// Macros formats -DNAME=VALUE definitions sorted by name.
func Macros(macros map[string]string) string {
	names := slices.Sorted(maps.Keys(macros))
	defs := make([]string, len(names))
	for i, name := range names {
		defs[i] = "D" + name + "=" + macros[name]
	}
	return Flags(defs)
}

// Optimizations is the optimization setting of one mode.
type Optimizations struct {
	Level string   `toml:"level"` // 0-3, s, z, g or fast
	LTO   string   `toml:"lto"`   // bare flag name, e.g. "flto"
	Flags []string `toml:"flags"`
}

func (o Optimizations) String() string {
	names := append([]string{"O" + o.Level, o.LTO}, o.Flags...)
	return Flags(names)
}

var namedLevels = []string{"s", "z", "g", "fast"}

func validLevel(level string) bool {
	if slices.Contains(namedLevels, level) {
		return true
	}
	if level == "" {
		return false
	}
	for _, c := range level {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Debug is the debug setting of one mode.
type Debug struct {
	Flags []string `toml:"flags"`
}

func (d Debug) String() string {
	return Flags(d.Flags)
}

// union appends the entries of extra missing from base, keeping order.
func union(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
