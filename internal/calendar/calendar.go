// Package calendar discovers task candidates from calendar events whose
// titles carry bracketed issue keys like "[ABC-123]".
package calendar

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/lhartmann/worklog/internal/jira"
	"github.com/lhartmann/worklog/internal/model"
)

// An Event is one calendar event, however sourced.
type Event struct {
	Title string    `yaml:"title"`
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

// Source lists calendar events in a date range. The OAuth-backed Google
// source lives with the embedding shell; this package only consumes the
// interface.
type Source interface {
	Events(from, til time.Time) ([]Event, error)
}

var issueKeyPattern = regexp.MustCompile(`\[([A-Z][A-Z0-9]*-\d+)\]`)

// IssueKeys extracts the distinct bracketed issue keys from event titles, in
// order of first appearance.
func IssueKeys(events []Event) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0)
	for _, event := range events {
		for _, match := range issueKeyPattern.FindAllStringSubmatch(event.Title, -1) {
			key := match[1]
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, key)
		}
	}
	return result
}

// Scanner feeds discovered issue keys through the JIRA refresher into the
// local task store.
type Scanner struct {
	source    Source
	refresher *jira.Refresher
}

// NewScanner creates a scanner over the given source and refresher.
func NewScanner(source Source, refresher *jira.Refresher) *Scanner {
	return &Scanner{source: source, refresher: refresher}
}

// Scan imports tasks for all issue keys found in events within [from, til].
// Collaborator failures are logged and yield an empty result, never an
// error that would propagate into the scheduler.
func (s *Scanner) Scan(from, til time.Time) []model.Task {
	events, err := s.source.Events(from, til)
	if err != nil {
		log.Error().Err(err).Msg("could not list calendar events")
		return nil
	}

	imported := make([]model.Task, 0)
	for _, key := range IssueKeys(events) {
		task, err := s.refresher.ImportIssue(key)
		if err != nil {
			log.Error().Err(err).Str("issue", key).Msg("could not import issue from calendar")
			continue
		}
		if task == nil {
			log.Debug().Str("issue", key).Msg("calendar references unknown issue")
			continue
		}
		imported = append(imported, *task)
	}
	return imported
}

// FileSource reads events from a YAML file of exported calendar data. It
// stands in for the OAuth-backed source in headless setups and tests.
type FileSource struct {
	Path string
}

type eventsFile struct {
	Events []Event `yaml:"events"`
}

// Events returns the events in the file overlapping [from, til].
func (s FileSource) Events(from, til time.Time) ([]Event, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("error reading events file '%s' (%w)", s.Path, err)
	}

	doc := eventsFile{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error unmarshaling events file '%s' (%w)", s.Path, err)
	}

	result := make([]Event, 0, len(doc.Events))
	for _, event := range doc.Events {
		if event.End.Before(from) || event.Start.After(til) {
			continue
		}
		result = append(result, event)
	}
	return result, nil
}
