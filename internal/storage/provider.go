// Package storage declares the persistence contract the tracker core is
// written against. Schema and serialization details live in the providers.
package storage

import (
	"errors"
	"time"

	"github.com/lhartmann/worklog/internal/model"
)

// ErrNotFound is returned when a referenced entry, task, or project id does
// not exist.
var ErrNotFound = errors.New("not found")

// Provider is the persistence collaborator: CRUD over time entries, tasks,
// and projects keyed by integer id, plus the two queries the tracker core
// needs ("open entry, most recent first" and "entries starting in [a,b)").
//
// Providers are safe for use from multiple goroutines; the single-writer
// discipline for entry mutation is the ledger's concern, not the provider's.
type Provider interface {
	AddEntry(e model.TimeEntry) (model.TimeEntry, error)
	GetEntry(id int64) (model.TimeEntry, error)
	UpdateEntry(e model.TimeEntry) error
	DeleteEntry(id int64) error

	// OpenEntry returns the entry with no end time whose start is most
	// recent, or ErrNotFound if no entry is open.
	OpenEntry() (model.TimeEntry, error)

	// EntriesInRange returns entries with start in [from, to), open entries
	// included, ordered by start time ascending.
	EntriesInRange(from, to time.Time) ([]model.TimeEntry, error)

	AddTask(t model.Task) (model.Task, error)
	GetTask(id int64) (model.Task, error)
	TaskByKey(key string) (model.Task, error)
	UpdateTask(t model.Task) error
	Tasks() ([]model.Task, error)

	AddProject(p model.Project) (model.Project, error)
	GetProject(id int64) (model.Project, error)
	ProjectByCode(code string) (model.Project, error)
	UpdateProject(p model.Project) error
	Projects() ([]model.Project, error)
}
