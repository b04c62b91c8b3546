package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/qobs-build/mmake/internal/builder/gen"
	"github.com/qobs-build/mmake/internal/msg"
	"github.com/qobs-build/mmake/internal/scan"
	"github.com/qobs-build/mmake/internal/target"
)

// Pass is the generation of one target in one mode.
type Pass struct {
	Config *target.Config
	Mode   target.Mode
}

func (p Pass) String() string {
	return p.Config.Name + ":" + p.Mode.String()
}

// Passes pairs every target with every mode, targets first.
func Passes(targets []*target.Config, modes []target.Mode) []Pass {
	passes := make([]Pass, 0, len(targets)*len(modes))
	for _, cfg := range targets {
		for _, mode := range modes {
			passes = append(passes, Pass{Config: cfg, Mode: mode})
		}
	}
	return passes
}

type Builder struct {
	Scanner   *scan.Scanner
	Generator gen.Generator
	Writer    *gen.Writer
	// Out receives progress and the output of make.
	Out io.Writer
	// Jobs bounds concurrent generation passes, GOMAXPROCS if zero.
	Jobs int
	// UseFind lists sources with each target's find tool instead of
	// walking the directory in process.
	UseFind bool
}

// New returns a Builder that generates Makefiles.
func New(lister scan.Lister, dryRun bool) *Builder {
	return &Builder{
		Scanner:   scan.NewScanner(lister),
		Generator: gen.Makefile{},
		Writer:    &gen.Writer{DryRun: dryRun, Diff: os.Stdout},
		Out:       os.Stdout,
	}
}

// Generate runs every pass concurrently and returns how many build files
// changed. A failing pass does not stop the others; all failures are
// joined into the returned error.
func (b *Builder) Generate(ctx context.Context, passes []Pass) (int, error) {
	if len(passes) == 0 {
		return 0, nil
	}
	limit := b.Jobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	pb := msg.NewProgressBar(len(passes), 2, b.Out)
	errs := make([]error, len(passes))
	var changed atomic.Int32

	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, pass := range passes {
		eg.Go(func() error {
			defer pb.Add(1)
			ok, err := b.generate(ctx, pass)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", pass, err)
			} else if ok {
				changed.Add(1)
			}
			return nil
		})
	}
	eg.Wait()
	pb.Finish()

	return int(changed.Load()), errors.Join(errs...)
}

func (b *Builder) generate(ctx context.Context, p Pass) (bool, error) {
	cfg := p.Config
	filter, err := cfg.Filter.Compile()
	if err != nil {
		return false, err
	}

	dir := cfg.Directories.Mode(p.Mode)
	req := scan.Request{
		SourceRoot: cfg.Directories.Src,
		OutputRoot: dir,
		TestRoot:   cfg.Directories.Test,
		Languages:  target.AllLanguages,
		Filter:     filter,
	}
	if b.UseFind {
		req.Lister = scan.FindLister{Command: cfg.Tools.Find}
	}
	set, err := b.Scanner.Scan(ctx, req)
	if err != nil {
		return false, err
	}

	text, err := b.Generator.Generate(cfg, p.Mode, set)
	if err != nil {
		return false, err
	}
	return b.Writer.Write(dir, b.Generator.BuildFile(), text)
}

// Run invokes the build tool for each pass in turn, stopping at the
// first failure. Parallelism within a pass is up to the tool's own flags.
func (b *Builder) Run(ctx context.Context, passes []Pass, args []string) error {
	for _, p := range passes {
		msg.Info("building %s", p)
		out := &msg.IndentWriter{Indent: "  ", W: b.Out}
		if err := b.Generator.Invoke(ctx, p.Config.Directories.Mode(p.Mode), args, out, out); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
