package model

import "strings"

// Reserved project codes. InternalProjectCode owns synthetic tasks (lunch,
// ad-hoc manual tasks); the demo codes are test noise in the JIRA instance and
// are excluded from user-facing selection lists.
const (
	InternalProjectCode = "INT"
	DemoProjectCode     = "DEMO"
	TestProjectCode     = "TEST"
)

// LunchTaskKey identifies the synthetic task lunch breaks are booked against.
// It lives in the internal project and never shows up in task pickers.
const LunchTaskKey = "INT-LUNCH"

// ManualTaskKeyPrefix marks tasks synthesized from free-text prompt input
// rather than fetched from JIRA.
const ManualTaskKeyPrefix = "ADHOC"

// A Task is a unit of work time entries are booked against, usually mirroring
// a JIRA issue.
type Task struct {
	ID             int64  `yaml:"id"`
	Key            string `yaml:"key"`
	Summary        string `yaml:"summary"`
	Status         string `yaml:"status,omitempty"`
	StatusCategory string `yaml:"status-category,omitempty"`
	Active         bool   `yaml:"active"`
	ProjectID      int64  `yaml:"project-id"`
}

// Selectable reports whether the task should appear in task pickers.
// The lunch task is reserved and deactivated tasks are kept only for
// historical entries to reference.
func (t *Task) Selectable() bool {
	return t.Active && t.Key != LunchTaskKey
}

// Manual reports whether the task was synthesized from free-text input.
func (t *Task) Manual() bool {
	return strings.HasPrefix(t.Key, ManualTaskKeyPrefix+"-")
}

// A Project groups tasks, usually mirroring a JIRA project.
type Project struct {
	ID      int64  `yaml:"id"`
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Tracked bool   `yaml:"tracked"`
}

// Selectable reports whether the project should appear in project pickers.
func (p *Project) Selectable() bool {
	switch p.Code {
	case DemoProjectCode, TestProjectCode:
		return false
	}
	return true
}

// Internal reports whether the project is the reserved home of synthetic
// tasks.
func (p *Project) Internal() bool {
	return p.Code == InternalProjectCode
}
