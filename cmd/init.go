// mmake init [name], mmake new [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qobs-build/mmake/internal/msg"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "mmake"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

func configTemplate(name string) string {
	return `name = "` + name + `"

[[targets]]
name = "` + name + `"
# compiler = "clang"
# warnings = ["shadow"]
# libraries = [{ binary = "m" }]

# [targets.optimizations.production]
# level = "2"

# [targets.'target_os == "linux"']
# libraries = [{ binary = "pthread" }]
`
}

// initIn lays out a project in an existing directory.
func initIn(dir, name string) {
	writefile(configTemplate(name), dir, defaultConfig)

	mkdir(dir, "src", "main")
	writefile(`#include <stdio.h>

int main(void) {
    puts("Hello, World!");
    return 0;
}
`, dir, "src", "main", "main.c")

	mkdir(dir, "src", "test")
	writefile(`#include <assert.h>

void test_arithmetic(void) {
    assert(1 + 1 == 2);
}
`, dir, "src", "test", "test.c")

	writefile(`bin/
vendor/
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to generate Makefiles, or %s to build and run.\n",
		color.HiCyanString(programName), color.HiCyanString(programName+" "+name+": run"))
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new project in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0])
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new project in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newCmd)
}
