package main

import "github.com/qobs-build/mmake/cmd"

func main() {
	cmd.Execute()
}
