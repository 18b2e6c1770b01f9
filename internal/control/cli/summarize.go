package cli

import (
	"fmt"
	"time"

	"github.com/lhartmann/worklog/internal/control"
	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/summary"
)

// SummarizeCommand is the command `summarize`, which prints a daily or
// weekly summary.
type SummarizeCommand struct {
	Day  string `short:"d" long:"day" description:"the day to summarize" value-name:"<yyyy-mm-dd>"`
	Week bool   `short:"w" long:"week" description:"summarize the whole week containing the day"`

	HumanReadable bool `long:"human-readable" description:"format durations as hours and minutes"`
}

// Execute executes the summarize command.
func (command *SummarizeCommand) Execute(args []string) error {
	envData := control.ResolveEnv()

	provider, err := openProvider(envData)
	if err != nil {
		return err
	}

	day := model.DateFromGotime(time.Now())
	if command.Day != "" {
		day, err = model.DateFromString(command.Day)
		if err != nil {
			return fmt.Errorf("day '%s' invalid (%w)", command.Day, err)
		}
	}

	aggregator := summary.New(ledger.New(provider), provider)

	stringify := func(d time.Duration) string {
		if command.HumanReadable {
			return d.Round(time.Minute).String()
		}
		return fmt.Sprint(int(d/time.Minute), " min")
	}

	if command.Week {
		weekSummary, err := aggregator.ForWeek(day)
		if err != nil {
			return err
		}

		fmt.Printf("week %s - %s:\n", weekSummary.Monday.ToString(), weekSummary.Sunday.ToString())
		for _, daySummary := range weekSummary.Days {
			if daySummary.Total == 0 {
				continue
			}
			fmt.Printf("  %s: %s\n", daySummary.Date.ToString(), stringify(daySummary.Total))
			printTaskTotals(daySummary, stringify)
		}
		fmt.Printf("total: %s\n", stringify(weekSummary.Total))
		return nil
	}

	daySummary, err := aggregator.ForDay(day)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", daySummary.Date.ToString(), stringify(daySummary.Total))
	printTaskTotals(daySummary, stringify)
	return nil
}

func printTaskTotals(daySummary summary.DaySummary, stringify func(time.Duration) string) {
	for _, taskTotal := range daySummary.Tasks {
		fmt.Printf("    % 12s % 10s (%d entries)  %s\n",
			taskTotal.TaskKey, stringify(taskTotal.Total), taskTotal.Entries, taskTotal.TaskSummary)
	}
}
