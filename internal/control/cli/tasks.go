package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/lhartmann/worklog/internal/calendar"
	"github.com/lhartmann/worklog/internal/control"
	"github.com/lhartmann/worklog/internal/jira"
)

// TasksCommand is the command `tasks`, which refreshes tasks and projects
// from JIRA and optionally scans calendar events for bracketed issue keys.
type TasksCommand struct {
	ScanCalendar bool `short:"c" long:"scan-calendar" description:"also scan the configured calendar events file for [KEY-123] references"`
	List         bool `short:"l" long:"list" description:"list the locally known selectable tasks instead of refreshing"`
}

// Execute executes the tasks command.
func (command *TasksCommand) Execute(args []string) error {
	envData := control.ResolveEnv()

	configData, err := loadConfig(envData)
	if err != nil {
		return err
	}

	provider, err := openProvider(envData)
	if err != nil {
		return err
	}

	if _, err := control.EnsureReservedRows(provider); err != nil {
		return err
	}

	if command.List {
		tasks, err := provider.Tasks()
		if err != nil {
			return err
		}
		for _, task := range tasks {
			if !task.Selectable() {
				continue
			}
			fmt.Printf("% 12s  %s\n", task.Key, task.Summary)
		}
		return nil
	}

	if !configData.JiraConfigured() {
		return fmt.Errorf("JIRA is not configured; set jira.base-url and jira.user in '%s'", envData.ConfigPath())
	}

	client := jira.NewClient(
		configData.Jira.BaseURL,
		configData.Jira.User,
		os.Getenv(configData.Jira.TokenEnv),
	)
	refresher := jira.NewRefresher(client, provider)

	count, err := refresher.Refresh(configData.Jira.ProjectKeys)
	if err != nil {
		return err
	}
	fmt.Printf("refreshed %d assigned tasks\n", count)

	if command.ScanCalendar {
		if configData.Calendar.EventsFile == "" {
			return fmt.Errorf("no calendar events file configured")
		}
		scanner := calendar.NewScanner(calendar.FileSource{Path: configData.Calendar.EventsFile}, refresher)
		now := time.Now()
		imported := scanner.Scan(now.AddDate(0, 0, -7), now.AddDate(0, 0, 7))
		fmt.Printf("imported %d tasks from calendar\n", len(imported))
	}

	return nil
}
