// mmake show [target]
package cmd

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/qobs-build/mmake/internal/msg"
)

var showCmd = &cobra.Command{
	Use:   "show [target]",
	Short: "Print the resolved configuration",
	Long:  "Print the configuration after merging every target over the defaults.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()
		var v any = p
		if len(args) > 0 {
			t, err := p.Target(args[0])
			if err != nil {
				msg.Fatal("%v", err)
			}
			v = t
		}

		enc := toml.NewEncoder(os.Stdout)
		enc.SetIndentTables(true)
		if err := enc.Encode(v); err != nil {
			msg.Fatal("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
