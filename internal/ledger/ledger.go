// Package ledger implements the time-entry bookkeeping: starting, stopping,
// and switching tracked work, and manual edits of historical entries.
//
// The ledger's invariant is that at most one time entry is open (has no end
// time) at any instant. All mutation goes through the ledger; it assumes a
// single logical writer (the event-dispatching goroutine of the embedding
// shell) and does not guard against truly parallel mutators.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage"
)

// ErrNotFound is returned when a referenced task or entry does not exist.
var ErrNotFound = storage.ErrNotFound

// ErrInvalidRange is returned when a time-range edit would place an entry's
// end at or before its start.
var ErrInvalidRange = errors.New("end time must be after start time")

// Ledger provides the time-entry primitives all other components compose.
type Ledger struct {
	provider storage.Provider

	// Now is the clock used for opening and closing entries; tests override
	// it.
	Now func() time.Time
}

// New creates a ledger over the given provider.
func New(provider storage.Provider) *Ledger {
	return &Ledger{
		provider: provider,
		Now:      time.Now,
	}
}

// ActiveEntry returns the currently open entry, or nil if none is open.
func (l *Ledger) ActiveEntry() (*model.TimeEntry, error) {
	e, err := l.provider.OpenEntry()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying open entry (%w)", err)
	}
	return &e, nil
}

// Start closes any currently open entry and opens a new entry for the given
// task. Returns ErrNotFound if the task does not exist.
func (l *Ledger) Start(taskID int64) (model.TimeEntry, error) {
	if _, err := l.provider.GetTask(taskID); err != nil {
		return model.TimeEntry{}, fmt.Errorf("error resolving task %d (%w)", taskID, err)
	}

	now := l.Now()
	if err := l.closeActive(now); err != nil {
		return model.TimeEntry{}, err
	}

	e, err := l.provider.AddEntry(model.TimeEntry{TaskID: taskID, Start: now})
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("error opening entry for task %d (%w)", taskID, err)
	}
	return e, nil
}

// Stop closes the currently open entry, if any. Stopping with no open entry
// is a no-op.
func (l *Ledger) Stop() error {
	return l.closeActive(l.Now())
}

// SwitchTo changes tracking to the given task. If the open entry already
// belongs to that task nothing happens (in particular its start time is
// untouched); otherwise the open entry is closed and a new one opened.
func (l *Ledger) SwitchTo(taskID int64) (model.TimeEntry, error) {
	active, err := l.ActiveEntry()
	if err != nil {
		return model.TimeEntry{}, err
	}
	if active != nil && active.TaskID == taskID {
		return *active, nil
	}
	return l.Start(taskID)
}

// UpdateTimes overwrites an entry's start and end. A nil end re-opens the
// entry. Returns ErrInvalidRange if end is set and not strictly after start;
// the entry is left unmodified in that case.
func (l *Ledger) UpdateTimes(entryID int64, start time.Time, end *time.Time) error {
	if end != nil && !end.After(start) {
		return ErrInvalidRange
	}

	e, err := l.provider.GetEntry(entryID)
	if err != nil {
		return fmt.Errorf("error resolving entry %d (%w)", entryID, err)
	}

	e.Start = start
	e.End = end
	if err := l.provider.UpdateEntry(e); err != nil {
		return fmt.Errorf("error updating entry %d times (%w)", entryID, err)
	}
	return nil
}

// UpdateTask reassigns an entry to another task, leaving timestamps
// untouched.
func (l *Ledger) UpdateTask(entryID, taskID int64) error {
	if _, err := l.provider.GetTask(taskID); err != nil {
		return fmt.Errorf("error resolving task %d (%w)", taskID, err)
	}
	e, err := l.provider.GetEntry(entryID)
	if err != nil {
		return fmt.Errorf("error resolving entry %d (%w)", entryID, err)
	}

	e.TaskID = taskID
	if err := l.provider.UpdateEntry(e); err != nil {
		return fmt.Errorf("error reassigning entry %d (%w)", entryID, err)
	}
	return nil
}

// UpdateComment overwrites an entry's free-text comment.
func (l *Ledger) UpdateComment(entryID int64, text string) error {
	e, err := l.provider.GetEntry(entryID)
	if err != nil {
		return fmt.Errorf("error resolving entry %d (%w)", entryID, err)
	}

	e.Comment = text
	if err := l.provider.UpdateEntry(e); err != nil {
		return fmt.Errorf("error updating entry %d comment (%w)", entryID, err)
	}
	return nil
}

// Delete permanently removes an entry. Unlike tasks, entries have no
// soft-delete.
func (l *Ledger) Delete(entryID int64) error {
	if err := l.provider.DeleteEntry(entryID); err != nil {
		return fmt.Errorf("error deleting entry %d (%w)", entryID, err)
	}
	return nil
}

// ListForDate returns the entries starting on the given date, open entries
// included, ordered by start time ascending.
func (l *Ledger) ListForDate(d model.Date) ([]model.TimeEntry, error) {
	return l.ListForRange(d.ToGotime(), d.Next().ToGotime())
}

// ListForRange returns the entries with start in [from, to), open entries
// included, ordered by start time ascending.
func (l *Ledger) ListForRange(from, to time.Time) ([]model.TimeEntry, error) {
	entries, err := l.provider.EntriesInRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying entries in range (%w)", err)
	}
	return entries, nil
}

// CloseEntry sets the end time of a specific entry, if it is still open.
// Used by the scheduler to close the lunch entry it opened.
func (l *Ledger) CloseEntry(entryID int64, end time.Time) error {
	e, err := l.provider.GetEntry(entryID)
	if err != nil {
		return fmt.Errorf("error resolving entry %d (%w)", entryID, err)
	}
	if !e.Open() {
		return nil
	}

	e.End = &end
	if err := l.provider.UpdateEntry(e); err != nil {
		return fmt.Errorf("error closing entry %d (%w)", entryID, err)
	}
	return nil
}

func (l *Ledger) closeActive(end time.Time) error {
	active, err := l.ActiveEntry()
	if err != nil {
		return err
	}
	if active == nil {
		return nil
	}

	active.End = &end
	if err := l.provider.UpdateEntry(*active); err != nil {
		return fmt.Errorf("error closing entry %d (%w)", active.ID, err)
	}
	return nil
}
