package gen

import "strings"

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	write(sb, s...)
	sb.WriteByte('\n')
}

// join joins the non-empty parts with single spaces.
func join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

var makePathEscaper = strings.NewReplacer("$", "$$", " ", `\ `, "#", `\#`)

// quote escapes a path for use in a make target or prerequisite.
func quote(s string) string { return makePathEscaper.Replace(s) }
