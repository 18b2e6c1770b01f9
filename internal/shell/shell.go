// Package shell is the terminal front-end embedding the tracker core: it
// owns the one scheduler instance, dispatches its events, and renders the
// recurring task prompt.
package shell

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/calendar"
	"github.com/lhartmann/worklog/internal/config"
	"github.com/lhartmann/worklog/internal/jira"
	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/prompt"
	"github.com/lhartmann/worklog/internal/scheduler"
	"github.com/lhartmann/worklog/internal/storage"
	"github.com/lhartmann/worklog/internal/summary"
	"github.com/lhartmann/worklog/internal/tracking"
)

// Shell wires the tracker components together and runs the interactive
// terminal program.
type Shell struct {
	Config    config.Config
	Provider  storage.Provider
	Ledger    *ledger.Ledger
	State     *tracking.State
	Scheduler *scheduler.Scheduler
	Cycle     *prompt.Cycle
	Summaries *summary.Aggregator
	Refresher *jira.Refresher
	Scanner   *calendar.Scanner
}

// Run starts the scheduler, forwards its events and the prompt cycle's
// resolutions into the bubbletea program, and blocks until the user quits.
func (s *Shell) Run() error {
	s.Scheduler.SetIntervals(
		time.Duration(s.Config.Tracking.PromptIntervalMinutes)*time.Minute,
		time.Duration(s.Config.Tracking.UpdateIntervalMinutes)*time.Minute,
		time.Duration(s.Config.Tracking.CalendarScanIntervalMinutes)*time.Minute,
	)
	s.Scheduler.Start()
	defer s.Scheduler.Stop()

	program := tea.NewProgram(newTrackerModel(s), tea.WithAltScreen())

	done := make(chan struct{})
	defer close(done)
	go s.dispatch(program, done)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running tracker program (%w)", err)
	}
	return nil
}

// dispatch is the single consumer of scheduler events and prompt
// resolutions. Refresh and scan work runs here, off the timer callbacks and
// off the UI loop.
func (s *Shell) dispatch(program *tea.Program, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return

		case event := <-s.Scheduler.Events():
			switch event.Kind {
			case scheduler.EventRefreshDue:
				s.refresh()
			case scheduler.EventCalendarScanDue:
				s.scan(event)
			}
			program.Send(schedEventMsg(event))

		case resolution := <-s.Cycle.Resolutions():
			program.Send(resolutionMsg(resolution))
		}
	}
}

func (s *Shell) refresh() {
	if s.Refresher == nil {
		return
	}
	count, err := s.Refresher.Refresh(s.Config.Jira.ProjectKeys)
	if err != nil {
		// external unavailability surfaces as an empty refresh, never as a
		// failure of the tracker itself
		log.Error().Err(err).Msg("could not refresh tasks from JIRA")
		return
	}
	log.Debug().Int("tasks", count).Msg("refreshed tasks from JIRA")
}

func (s *Shell) scan(event scheduler.Event) {
	if s.Scanner == nil {
		return
	}
	from := event.At.AddDate(0, 0, -1)
	til := event.At.AddDate(0, 0, 1)
	imported := s.Scanner.Scan(from, til)
	if len(imported) > 0 {
		log.Info().Int("tasks", len(imported)).Msg("imported tasks from calendar")
	}
}
