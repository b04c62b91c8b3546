// mmake [selector] [make args...]
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/qobs-build/mmake/internal/fspath"
	"github.com/qobs-build/mmake/internal/msg"
	"github.com/qobs-build/mmake/internal/target"
)

const defaultConfig = "mmake.toml"

var (
	flagPath    string
	flagDryRun  bool
	flagJobs    int
	flagDialect EnumValue = NewEnumValue("native", map[string]string{
		"native":  "Paths as the host writes them (default)",
		"posix":   "Paths separated by /",
		"windows": `Paths separated by \ with drive roots`,
	})
	flagLister EnumValue = NewEnumValue("walk", map[string]string{
		"walk": "Walk the source tree in process (default)",
		"find": "List sources with each target's find tool",
	})
)

func dialect() *fspath.Dialect {
	if flagDialect.Value() == "native" {
		return fspath.Native(runtime.GOOS)
	}
	d, ok := fspath.ByName(flagDialect.Value())
	if !ok {
		msg.Fatal("unknown dialect %q", flagDialect.Value())
	}
	return d
}

// loadProject loads the configuration named by --path or exits.
func loadProject() *target.Project {
	d := dialect()
	p, err := target.LoadProjectFromFile(flagPath, target.NewConfigEnv(d), d)
	if err != nil {
		msg.Fatal("%s: %v", flagPath, err)
	}
	return p
}

var rootCmd = &cobra.Command{
	Use:   "mmake [selector] [make args...]",
	Short: "Generate Makefiles for C and C++ targets",
	Long: `Generate one Makefile per target and production mode from mmake.toml.

The selector is [-]target[:[mode]]. A leading '-' skips generation, and a
':' runs make in every mode starting with the given prefix, passing the
remaining arguments on to make. Put "--" before a selector starting with '-'.`,
	Example: `  mmake              generate every target
  mmake app:         generate app, then make it in all modes
  mmake app:dev -j8  generate app, then make it in development with -j8
  mmake -- -app:p run  make app in production without regenerating`,
	Args: cobra.ArbitraryArgs,
	Run:  doMake,
}

func init() {
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.PersistentFlags().StringVarP(&flagPath, "path", "p", defaultConfig, "Configuration file")
	rootCmd.PersistentFlags().Var(&flagDialect, "dialect", "Path dialect of the generated files, one of "+flagDialect.HelpString())
	rootCmd.RegisterFlagCompletionFunc("dialect", flagDialect.CompletionFunc())

	rootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "Print what would change instead of writing")
	rootCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "Makefiles to generate concurrently (default GOMAXPROCS)")
	rootCmd.Flags().Var(&flagLister, "lister", "How to list sources, one of "+flagLister.HelpString())
	rootCmd.RegisterFlagCompletionFunc("lister", flagLister.CompletionFunc())
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
