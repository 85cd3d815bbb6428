// The main package for the digestd executable.
package main

import (
	"github.com/dailydigest/digestd/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
