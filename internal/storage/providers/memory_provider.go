package providers

import (
	"sort"
	"sync"
	"time"

	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage"
)

// MemoryDataProvider keeps all data in memory. It backs tests and serves as
// the fallback when no base directory is usable.
type MemoryDataProvider struct {
	mtx sync.RWMutex

	entries  map[int64]model.TimeEntry
	tasks    map[int64]model.Task
	projects map[int64]model.Project

	nextEntryID   int64
	nextTaskID    int64
	nextProjectID int64
}

// NewMemoryDataProvider creates an empty in-memory provider.
func NewMemoryDataProvider() *MemoryDataProvider {
	return &MemoryDataProvider{
		entries:       make(map[int64]model.TimeEntry),
		tasks:         make(map[int64]model.Task),
		projects:      make(map[int64]model.Project),
		nextEntryID:   1,
		nextTaskID:    1,
		nextProjectID: 1,
	}
}

func (p *MemoryDataProvider) AddEntry(e model.TimeEntry) (model.TimeEntry, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	e.ID = p.nextEntryID
	p.nextEntryID++
	e.Date = model.DateFromGotime(e.Start)
	p.entries[e.ID] = e
	return e, nil
}

func (p *MemoryDataProvider) GetEntry(id int64) (model.TimeEntry, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	e, ok := p.entries[id]
	if !ok {
		return model.TimeEntry{}, storage.ErrNotFound
	}
	return e, nil
}

func (p *MemoryDataProvider) UpdateEntry(e model.TimeEntry) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if _, ok := p.entries[e.ID]; !ok {
		return storage.ErrNotFound
	}
	e.Date = model.DateFromGotime(e.Start)
	p.entries[e.ID] = e
	return nil
}

func (p *MemoryDataProvider) DeleteEntry(id int64) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if _, ok := p.entries[id]; !ok {
		return storage.ErrNotFound
	}
	delete(p.entries, id)
	return nil
}

func (p *MemoryDataProvider) OpenEntry() (model.TimeEntry, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	var result model.TimeEntry
	found := false
	for _, e := range p.entries {
		if e.Open() && (!found || e.Start.After(result.Start)) {
			result = e
			found = true
		}
	}
	if !found {
		return model.TimeEntry{}, storage.ErrNotFound
	}
	return result, nil
}

func (p *MemoryDataProvider) EntriesInRange(from, to time.Time) ([]model.TimeEntry, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	result := make([]model.TimeEntry, 0)
	for _, e := range p.entries {
		if !e.Start.Before(from) && e.Start.Before(to) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (p *MemoryDataProvider) AddTask(t model.Task) (model.Task, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	t.ID = p.nextTaskID
	p.nextTaskID++
	p.tasks[t.ID] = t
	return t, nil
}

func (p *MemoryDataProvider) GetTask(id int64) (model.Task, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	t, ok := p.tasks[id]
	if !ok {
		return model.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (p *MemoryDataProvider) TaskByKey(key string) (model.Task, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	for _, t := range p.tasks {
		if t.Key == key {
			return t, nil
		}
	}
	return model.Task{}, storage.ErrNotFound
}

func (p *MemoryDataProvider) UpdateTask(t model.Task) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if _, ok := p.tasks[t.ID]; !ok {
		return storage.ErrNotFound
	}
	p.tasks[t.ID] = t
	return nil
}

func (p *MemoryDataProvider) Tasks() ([]model.Task, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	result := make([]model.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (p *MemoryDataProvider) AddProject(proj model.Project) (model.Project, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	proj.ID = p.nextProjectID
	p.nextProjectID++
	p.projects[proj.ID] = proj
	return proj, nil
}

func (p *MemoryDataProvider) GetProject(id int64) (model.Project, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	proj, ok := p.projects[id]
	if !ok {
		return model.Project{}, storage.ErrNotFound
	}
	return proj, nil
}

func (p *MemoryDataProvider) ProjectByCode(code string) (model.Project, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	for _, proj := range p.projects {
		if proj.Code == code {
			return proj, nil
		}
	}
	return model.Project{}, storage.ErrNotFound
}

func (p *MemoryDataProvider) UpdateProject(proj model.Project) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if _, ok := p.projects[proj.ID]; !ok {
		return storage.ErrNotFound
	}
	p.projects[proj.ID] = proj
	return nil
}

func (p *MemoryDataProvider) Projects() ([]model.Project, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	result := make([]model.Project, 0, len(p.projects))
	for _, proj := range p.projects {
		result = append(result, proj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
