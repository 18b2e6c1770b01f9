// Package cli provides the command-line interface for worklog.
package cli

type CommandLineOpts struct {
	Version bool `short:"v" long:"version" description:"Show the program version"`

	TrackCommand     TrackCommand     `command:"track" subcommands-optional:"true"`
	SummarizeCommand SummarizeCommand `command:"summarize" subcommands-optional:"true"`
	TimesheetCommand TimesheetCommand `command:"timesheet" subcommands-optional:"true"`
	TasksCommand     TasksCommand     `command:"tasks" subcommands-optional:"true"`
	VersionCommand   VersionCommand   `command:"version" subcommands-optional:"true"`
}

var Opts CommandLineOpts
