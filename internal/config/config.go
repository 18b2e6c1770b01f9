// Package config defines the configuration file format for worklog.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lhartmann/worklog/internal/model"
)

// Config is the configuration data as present in a config file at
// '${WORKLOG_HOME}/config.yaml'.
type Config struct {
	Tracking Tracking `yaml:"tracking"`
	Jira     Jira     `yaml:"jira"`
	Calendar Calendar `yaml:"calendar"`
}

// Tracking configures the daily tracking window and the timers of the
// scheduler.
type Tracking struct {
	// Start and End bound the daily tracking window ("HH:MM", both
	// inclusive). Unparsable values disable prompting rather than erroring
	// at prompt time.
	Start string `yaml:"start"`
	End   string `yaml:"end"`

	PromptIntervalMinutes int `yaml:"prompt-interval-minutes"`
	UpdateIntervalMinutes int `yaml:"update-interval-minutes"`

	// CalendarScanIntervalMinutes <= 0 disables calendar scanning.
	CalendarScanIntervalMinutes int `yaml:"calendar-scan-interval-minutes"`

	LunchDurationMinutes int `yaml:"lunch-duration-minutes"`
	PromptTimeoutSeconds int `yaml:"prompt-timeout-seconds"`
}

// Jira configures the JIRA Cloud connection. The API token is not stored in
// the file; TokenEnv names the environment variable holding it.
type Jira struct {
	BaseURL     string   `yaml:"base-url"`
	User        string   `yaml:"user"`
	TokenEnv    string   `yaml:"token-env"`
	ProjectKeys []string `yaml:"project-keys"`
}

// Calendar configures scanning of exported calendar events for bracketed
// issue keys.
type Calendar struct {
	EventsFile string `yaml:"events-file"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Tracking: Tracking{
			Start:                       "09:00",
			End:                         "17:30",
			PromptIntervalMinutes:       60,
			UpdateIntervalMinutes:       30,
			CalendarScanIntervalMinutes: 0,
			LunchDurationMinutes:        30,
			PromptTimeoutSeconds:        60,
		},
		Jira: Jira{
			TokenEnv: "WORKLOG_JIRA_TOKEN",
		},
	}
}

// ParseConfigAugmentDefaults parses the configuration specified in
// YAML-formatted data and uses it to augment the default configuration.
func ParseConfigAugmentDefaults(yamlData []byte) (Config, error) {
	result := Default()

	parsed := Config{}
	err := yaml.Unmarshal(yamlData, &parsed)
	if err != nil {
		return result, fmt.Errorf("error unmarshaling yaml (%s)", err)
	}

	result = result.augmentWith(parsed)

	if err := result.Validate(); err != nil {
		return result, err
	}

	return result, nil
}

// Validate checks the interval constraints: all periods must be positive
// except the calendar-scan period, where a non-positive value means
// "disabled".
func (c Config) Validate() error {
	if c.Tracking.PromptIntervalMinutes <= 0 {
		return fmt.Errorf("prompt interval must be positive (got %d)", c.Tracking.PromptIntervalMinutes)
	}
	if c.Tracking.UpdateIntervalMinutes <= 0 {
		return fmt.Errorf("update interval must be positive (got %d)", c.Tracking.UpdateIntervalMinutes)
	}
	if c.Tracking.LunchDurationMinutes <= 0 {
		return fmt.Errorf("lunch duration must be positive (got %d)", c.Tracking.LunchDurationMinutes)
	}
	if c.Tracking.PromptTimeoutSeconds <= 0 {
		return fmt.Errorf("prompt timeout must be positive (got %d)", c.Tracking.PromptTimeoutSeconds)
	}
	return nil
}

// JiraConfigured reports whether enough JIRA connection data is present for
// the tracker to prompt against JIRA tasks.
func (c Config) JiraConfigured() bool {
	return c.Jira.BaseURL != "" && c.Jira.User != ""
}

// TrackingWindow returns the parsed tracking window bounds, or an error if
// either bound is unparsable.
func (c Config) TrackingWindow() (start, end model.Timestamp, err error) {
	start, err = model.TimestampFromString(c.Tracking.Start)
	if err != nil {
		return start, end, fmt.Errorf("tracking start invalid (%w)", err)
	}
	end, err = model.TimestampFromString(c.Tracking.End)
	if err != nil {
		return start, end, fmt.Errorf("tracking end invalid (%w)", err)
	}
	return start, end, nil
}

func (base Config) augmentWith(augment Config) Config {
	result := base

	result.Tracking = base.Tracking.augmentWith(augment.Tracking)

	if augment.Jira.BaseURL != "" {
		result.Jira.BaseURL = augment.Jira.BaseURL
	}
	if augment.Jira.User != "" {
		result.Jira.User = augment.Jira.User
	}
	if augment.Jira.TokenEnv != "" {
		result.Jira.TokenEnv = augment.Jira.TokenEnv
	}
	if len(augment.Jira.ProjectKeys) > 0 {
		result.Jira.ProjectKeys = augment.Jira.ProjectKeys
	}
	if augment.Calendar.EventsFile != "" {
		result.Calendar.EventsFile = augment.Calendar.EventsFile
	}

	return result
}

func (base Tracking) augmentWith(augment Tracking) Tracking {
	result := base

	if augment.Start != "" {
		result.Start = augment.Start
	}
	if augment.End != "" {
		result.End = augment.End
	}
	if augment.PromptIntervalMinutes != 0 {
		result.PromptIntervalMinutes = augment.PromptIntervalMinutes
	}
	if augment.UpdateIntervalMinutes != 0 {
		result.UpdateIntervalMinutes = augment.UpdateIntervalMinutes
	}
	if augment.CalendarScanIntervalMinutes != 0 {
		result.CalendarScanIntervalMinutes = augment.CalendarScanIntervalMinutes
	}
	if augment.LunchDurationMinutes != 0 {
		result.LunchDurationMinutes = augment.LunchDurationMinutes
	}
	if augment.PromptTimeoutSeconds != 0 {
		result.PromptTimeoutSeconds = augment.PromptTimeoutSeconds
	}

	return result
}
