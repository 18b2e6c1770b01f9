package model

import "time"

// A TimeEntry is one recorded interval of work on a task.
//
// An entry with a nil End is "open", i.e. currently being tracked. At most one
// entry is open at any time; the ledger enforces this.
type TimeEntry struct {
	ID      int64      `yaml:"id"`
	TaskID  int64      `yaml:"task-id"`
	Start   time.Time  `yaml:"start"`
	End     *time.Time `yaml:"end,omitempty"`
	Date    Date       `yaml:"-"`
	Comment string     `yaml:"comment,omitempty"`
}

// Open reports whether the entry has no end time yet.
func (e *TimeEntry) Open() bool {
	return e.End == nil
}

// Duration returns the tracked duration of the entry; for an open entry the
// duration is computed against the given current time. Never negative: a
// skewed end before start yields zero.
func (e *TimeEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.End != nil {
		end = *e.End
	}
	d := end.Sub(e.Start)
	if d < 0 {
		return 0
	}
	return d
}
