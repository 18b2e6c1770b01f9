// Package tracking derives the ephemeral tracking status from the clock, the
// configured tracking-hours window, and the lunch-break flag.
package tracking

import (
	"sync"
	"time"

	"github.com/lhartmann/worklog/internal/model"
)

// IsWithinTrackingHours reports whether now falls inside the window bounded
// by the two "HH:MM" strings, inclusive at both ends. If either string is
// unparsable the answer is false: bad configuration never prompts.
func IsWithinTrackingHours(now time.Time, startStr, endStr string) bool {
	start, err := model.TimestampFromString(startStr)
	if err != nil {
		return false
	}
	end, err := model.TimestampFromString(endStr)
	if err != nil {
		return false
	}

	t := model.TimestampFromGotime(now)
	return !t.IsBefore(start) && !t.IsAfter(end)
}

// State answers the status questions the scheduler and the prompt cycle ask.
// The lunch flag is the only mutable part; everything else is configuration.
type State struct {
	TrackingStart  string
	TrackingEnd    string
	JiraConfigured bool

	mtx     sync.Mutex
	onLunch bool
}

// NewState creates tracking state for the given window.
func NewState(startStr, endStr string, jiraConfigured bool) *State {
	return &State{
		TrackingStart:  startStr,
		TrackingEnd:    endStr,
		JiraConfigured: jiraConfigured,
	}
}

// SetOnLunch flips the lunch-break flag.
func (s *State) SetOnLunch(onLunch bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.onLunch = onLunch
}

// OnLunch reports whether a lunch break is active.
func (s *State) OnLunch() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.onLunch
}

// Status derives the indicator status for the given time.
func (s *State) Status(now time.Time) model.TrackingStatus {
	if s.OnLunch() {
		return model.StatusOnLunch
	}
	if IsWithinTrackingHours(now, s.TrackingStart, s.TrackingEnd) {
		return model.StatusActive
	}
	return model.StatusInactive
}

// ShouldPromptUser is the sole gate consulted before firing a prompt: not on
// lunch, within tracking hours, and JIRA configured.
func (s *State) ShouldPromptUser(now time.Time) bool {
	return !s.OnLunch() &&
		IsWithinTrackingHours(now, s.TrackingStart, s.TrackingEnd) &&
		s.JiraConfigured
}
