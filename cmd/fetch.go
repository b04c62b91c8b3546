// mmake fetch
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/qobs-build/mmake/internal/builder"
	"github.com/qobs-build/mmake/internal/msg"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Clone the vendored sources that are missing",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()
		if len(p.Vendor) == 0 {
			msg.Warn("%s has no [vendor] sources", flagPath)
			return
		}
		if err := builder.Fetch(".", p.Vendor, p.Vendors(), os.Stdout); err != nil {
			msg.Fatal("%v", err)
		}
		msg.Info("%d vendored sources in %s/", len(p.Vendor), builder.VendorDir)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
