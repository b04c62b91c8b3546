package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/qobs-build/mmake/internal/builder"
	"github.com/qobs-build/mmake/internal/msg"
	"github.com/qobs-build/mmake/internal/scan"
	"github.com/qobs-build/mmake/internal/target"
)

func doMake(cmd *cobra.Command, args []string) {
	selector := ""
	if len(args) > 0 {
		selector, args = args[0], args[1:] // the rest goes to make
	}
	sel, err := target.ParseSelector(selector)
	if err != nil {
		msg.Fatal("%v", err)
	}

	p := loadProject()
	targets, err := sel.Targets(p)
	if err != nil {
		msg.Fatal("%v", err)
	}

	b := builder.New(scan.DirLister{}, flagDryRun)
	b.Jobs = flagJobs
	b.UseFind = flagLister.Value() == "find"
	ctx := cmd.Context()

	if !sel.Skip {
		if len(p.Vendor) > 0 && !flagDryRun {
			if err := builder.Fetch(".", p.Vendor, p.Vendors(), os.Stdout); err != nil {
				msg.Fatal("%v", err)
			}
		}

		passes := builder.Passes(targets, target.AllModes)
		msg.Info("generating %d Makefiles", len(passes))
		changed, err := b.Generate(ctx, passes)
		if err != nil {
			msg.Fatal("%v", err)
		}
		msg.Info("%d of %d Makefiles changed", changed, len(passes))
	}

	if !sel.Run {
		return
	}
	if flagDryRun {
		msg.Warn("not running make in a dry run")
		return
	}
	if err := b.Run(ctx, builder.Passes(targets, sel.Modes), args); err != nil {
		msg.Fatal("%v", err)
	}
}
