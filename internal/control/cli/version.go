package cli

import "fmt"

// version is set at build time via -ldflags.
var version = "development"

// VersionCommand is the command `version`, which prints the program version.
type VersionCommand struct{}

// Execute executes the version command.
func (command *VersionCommand) Execute(args []string) error {
	fmt.Println("worklog", version)
	return nil
}
