package gen

import "strings"

// Rule is one make rule.
type Rule struct {
	Target   string
	Deps     []string
	Commands []string
	Phony    bool
}

func (r Rule) String() string {
	var sb strings.Builder
	r.writeTo(&sb)
	return sb.String()
}

func (r Rule) writeTo(sb *strings.Builder) {
	write(sb, r.Target, ":")
	if deps := join(r.Deps...); deps != "" {
		write(sb, " ", deps)
	}
	writeln(sb)
	for _, cmd := range r.Commands {
		writeln(sb, "\t", cmd)
	}
	if r.Phony {
		writeln(sb, ".PHONY: ", r.Target)
	}
}
