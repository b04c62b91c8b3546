package target

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a value in the target configuration that
// cannot be resolved.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
	Valid  []string // known alternatives, if any
}

func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %q %s", e.Field, e.Value, e.Reason)
	if len(e.Valid) > 0 {
		fmt.Fprintf(&sb, ": [%s]", strings.Join(e.Valid, ", "))
	}
	return sb.String()
}
