package target

import (
	"slices"
	"strings"
)

// Mode is a production mode: a build variant with its own optimization,
// debug and macro settings.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// AllModes lists every mode in emission order.
var AllModes = []Mode{Development, Production}

func (m Mode) String() string { return string(m) }

// Modes holds one value per production mode. Being a struct, it is
// always total.
type Modes[T any] struct {
	Development T `toml:"development"`
	Production  T `toml:"production"`
}

// Share returns Modes with the same value for every mode.
func Share[T any](t T) Modes[T] {
	return Modes[T]{Development: t, Production: t}
}

func (m Modes[T]) Get(mode Mode) T {
	if mode == Production {
		return m.Production
	}
	return m.Development
}

// mergeModes combines default and user values mode by mode, so nothing
// leaks from one mode into another.
func mergeModes[D, U any](def Modes[D], user Modes[U], merge func(D, U) (D, error)) (Modes[D], error) {
	dev, err := merge(def.Development, user.Development)
	if err != nil {
		return Modes[D]{}, err
	}
	prod, err := merge(def.Production, user.Production)
	if err != nil {
		return Modes[D]{}, err
	}
	return Modes[D]{Development: dev, Production: prod}, nil
}

func modeNames() []string {
	names := make([]string, len(AllModes))
	for i, m := range AllModes {
		names[i] = string(m)
	}
	return names
}

// ModesWithPrefix returns the modes whose names start with prefix, or all
// of them for an empty prefix.
func ModesWithPrefix(prefix string) ([]Mode, error) {
	if prefix == "" {
		return slices.Clone(AllModes), nil
	}
	var modes []Mode
	for _, m := range AllModes {
		if strings.HasPrefix(string(m), prefix) {
			modes = append(modes, m)
		}
	}
	if len(modes) == 0 {
		return nil, &ConfigurationError{
			Field:  "mode",
			Value:  prefix,
			Reason: "does not match any production mode",
			Valid:  modeNames(),
		}
	}
	return modes, nil
}
