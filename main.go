// The main package for the maman executable.
package main

import (
	"github.com/JakeFAU/maman/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
