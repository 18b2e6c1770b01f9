package cli

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/calendar"
	"github.com/lhartmann/worklog/internal/control"
	"github.com/lhartmann/worklog/internal/indicator"
	"github.com/lhartmann/worklog/internal/jira"
	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/prompt"
	"github.com/lhartmann/worklog/internal/scheduler"
	"github.com/lhartmann/worklog/internal/shell"
	"github.com/lhartmann/worklog/internal/summary"
	"github.com/lhartmann/worklog/internal/tracking"
)

// TrackCommand is the command `track`, which runs the interactive tracker.
type TrackCommand struct {
	LogOutputFile string `short:"l" long:"log-output-file" description:"specify a log output file (otherwise logs dropped)"`
	LogPretty     bool   `short:"p" long:"log-pretty" description:"prettify logs to file"`
}

// Execute executes the track command.
func (command *TrackCommand) Execute(args []string) error {
	// the terminal belongs to the tracker UI; logs go to a file or nowhere
	stderrLogger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if command.LogOutputFile != "" {
		file, err := os.OpenFile(command.LogOutputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			stderrLogger.Fatal().Err(err).Str("file", command.LogOutputFile).Msg("could not open file for logging")
		}
		var fileLogger io.Writer = file
		if command.LogPretty {
			fileLogger = zerolog.ConsoleWriter{Out: file}
		}
		log.Logger = zerolog.New(fileLogger).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(io.Discard)
	}

	envData := control.ResolveEnv()

	configData, err := loadConfig(envData)
	if err != nil {
		return err
	}

	provider, err := openProvider(envData)
	if err != nil {
		return err
	}

	lunchTaskID, err := control.EnsureReservedRows(provider)
	if err != nil {
		return err
	}

	jiraClient := jira.NewClient(
		configData.Jira.BaseURL,
		configData.Jira.User,
		os.Getenv(configData.Jira.TokenEnv),
	)

	bookkeeper := ledger.New(provider)
	state := tracking.NewState(
		configData.Tracking.Start,
		configData.Tracking.End,
		configData.JiraConfigured(),
	)

	sched := scheduler.New(bookkeeper, state, &indicator.LogIndicator{}, lunchTaskID)
	cycle := prompt.New(bookkeeper, sched, provider,
		time.Duration(configData.Tracking.PromptTimeoutSeconds)*time.Second)

	var refresher *jira.Refresher
	if jiraClient.Configured() {
		refresher = jira.NewRefresher(jiraClient, provider)
	}

	var scanner *calendar.Scanner
	if refresher != nil && configData.Calendar.EventsFile != "" {
		scanner = calendar.NewScanner(calendar.FileSource{Path: configData.Calendar.EventsFile}, refresher)
	}

	s := &shell.Shell{
		Config:    configData,
		Provider:  provider,
		Ledger:    bookkeeper,
		State:     state,
		Scheduler: sched,
		Cycle:     cycle,
		Summaries: summary.New(bookkeeper, provider),
		Refresher: refresher,
		Scanner:   scanner,
	}
	return s.Run()
}
