package gen

import (
	"context"
	"io"

	"github.com/qobs-build/mmake/internal/fspath"
	"github.com/qobs-build/mmake/internal/scan"
	"github.com/qobs-build/mmake/internal/target"
)

// Generator renders and runs the build file of one target in one mode.
type Generator interface {
	// BuildFile is the name of the generated file inside the mode
	// directory.
	BuildFile() string
	Generate(cfg *target.Config, mode target.Mode, set *scan.SourceSet) (string, error)
	Invoke(ctx context.Context, buildDir fspath.Path, args []string, stdout, stderr io.Writer) error
}
