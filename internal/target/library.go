package target

import (
	"strings"

	"github.com/qobs-build/mmake/internal/fspath"
)

// Library contributes header search paths and/or link flags. Either path
// may be empty.
//
// A binary without a directory is a system library linked by name
// ("m", "libfoo.so"); one with a directory is a local archive whose file
// name must start with "lib".
type Library struct {
	Include fspath.Path `toml:"include,omitempty"`
	Binary  fspath.Path `toml:"binary,omitempty"`
}

const libPrefix = "lib"

// IncludeFlag returns -I<include>, or "" for a link-only library.
func (l Library) IncludeFlag() string {
	if l.Include.IsEmpty() {
		return ""
	}
	return Flag("I" + l.Include.String())
}

// BinaryFlags returns the link flags of the library, or "" for a
// header-only one.
func (l Library) BinaryFlags() (string, error) {
	if l.Binary.IsEmpty() {
		return "", nil
	}
	if _, ok := l.Binary.FileName(); !ok {
		return "", &ConfigurationError{
			Field:  "library binary",
			Value:  l.Binary.String(),
			Reason: "has no file name",
		}
	}
	stem := l.Binary.ExtensionLessFileName()

	dir, ok := l.Binary.Directory()
	if !ok {
		// system library, link by name
		if l.Binary.Extension() != "" {
			stem = strings.TrimPrefix(stem, libPrefix)
		}
		return Flag("l" + stem), nil
	}

	if !strings.HasPrefix(stem, libPrefix) || len(stem) == len(libPrefix) {
		return "", &ConfigurationError{
			Field:  "library binary",
			Value:  l.Binary.String(),
			Reason: `must be a library file beginning with "lib"`,
		}
	}
	return Flags([]string{"L" + dir.String(), "l" + stem[len(libPrefix):]}), nil
}

// LibraryIncludes formats the include flags of every library.
func LibraryIncludes(libs []Library) string {
	flags := make([]string, len(libs))
	for i, l := range libs {
		flags[i] = l.IncludeFlag()
	}
	return join(flags...)
}

// LibraryBinaries formats the link flags of every library, in order.
func LibraryBinaries(libs []Library) (string, error) {
	flags := make([]string, len(libs))
	for i, l := range libs {
		f, err := l.BinaryFlags()
		if err != nil {
			return "", err
		}
		flags[i] = f
	}
	return join(flags...), nil
}
