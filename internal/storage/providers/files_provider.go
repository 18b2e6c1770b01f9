package providers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage"
)

// FilesDataProvider persists data as YAML files under a base directory:
// one file per day of entries ('entries/YYYY-MM-DD.yaml') plus 'tasks.yaml'
// and 'projects.yaml'. All data is held in memory; every mutation rewrites
// the affected file atomically.
type FilesDataProvider struct {
	BasePath string

	mtx sync.Mutex

	entries  map[int64]model.TimeEntry
	tasks    map[int64]model.Task
	projects map[int64]model.Project

	nextEntryID   int64
	nextTaskID    int64
	nextProjectID int64
}

type dayFile struct {
	Entries []model.TimeEntry `yaml:"entries"`
}

type tasksFile struct {
	Tasks []model.Task `yaml:"tasks"`
}

type projectsFile struct {
	Projects []model.Project `yaml:"projects"`
}

// NewFilesDataProvider creates a provider rooted at basePath, loading any
// previously persisted data.
func NewFilesDataProvider(basePath string) (*FilesDataProvider, error) {
	result := &FilesDataProvider{
		BasePath:      basePath,
		entries:       make(map[int64]model.TimeEntry),
		tasks:         make(map[int64]model.Task),
		projects:      make(map[int64]model.Project),
		nextEntryID:   1,
		nextTaskID:    1,
		nextProjectID: 1,
	}

	if err := os.MkdirAll(result.entriesDir(), 0755); err != nil {
		return nil, fmt.Errorf("error creating entries directory (%w)", err)
	}
	if err := result.load(); err != nil {
		return nil, err
	}

	return result, nil
}

func (p *FilesDataProvider) entriesDir() string {
	return filepath.Join(p.BasePath, "entries")
}

func (p *FilesDataProvider) dayFilename(d model.Date) string {
	return filepath.Join(p.entriesDir(), d.ToString()+".yaml")
}

func (p *FilesDataProvider) load() error {
	if err := readYamlFile(filepath.Join(p.BasePath, "tasks.yaml"), &tasksFile{}, func(doc *tasksFile) {
		for _, t := range doc.Tasks {
			p.tasks[t.ID] = t
			if t.ID >= p.nextTaskID {
				p.nextTaskID = t.ID + 1
			}
		}
	}); err != nil {
		return err
	}

	if err := readYamlFile(filepath.Join(p.BasePath, "projects.yaml"), &projectsFile{}, func(doc *projectsFile) {
		for _, proj := range doc.Projects {
			p.projects[proj.ID] = proj
			if proj.ID >= p.nextProjectID {
				p.nextProjectID = proj.ID + 1
			}
		}
	}); err != nil {
		return err
	}

	dirEntries, err := os.ReadDir(p.entriesDir())
	if err != nil {
		return fmt.Errorf("error reading entries directory (%w)", err)
	}
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".yaml") {
			continue
		}
		if err := readYamlFile(filepath.Join(p.entriesDir(), dirEntry.Name()), &dayFile{}, func(doc *dayFile) {
			for _, e := range doc.Entries {
				e.Date = model.DateFromGotime(e.Start)
				p.entries[e.ID] = e
				if e.ID >= p.nextEntryID {
					p.nextEntryID = e.ID + 1
				}
			}
		}); err != nil {
			return err
		}
	}

	return nil
}

// readYamlFile unmarshals a YAML file into doc and calls apply; a missing
// file is not an error.
func readYamlFile[T any](path string, doc *T, apply func(*T)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading '%s' (%w)", path, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("error unmarshaling '%s' (%w)", path, err)
	}
	apply(doc)
	return nil
}

func writeYamlFile(path string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling for '%s' (%w)", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error writing '%s' (%w)", path, err)
	}
	return nil
}

// writeDay must be called with the mutex held.
func (p *FilesDataProvider) writeDay(d model.Date) error {
	doc := dayFile{}
	for _, e := range p.entries {
		if e.Date == d {
			doc.Entries = append(doc.Entries, e)
		}
	}
	sort.Slice(doc.Entries, func(i, j int) bool { return doc.Entries[i].Start.Before(doc.Entries[j].Start) })

	if len(doc.Entries) == 0 {
		err := os.Remove(p.dayFilename(d))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error removing emptied day file (%w)", err)
		}
		return nil
	}
	return writeYamlFile(p.dayFilename(d), doc)
}

// writeTasks must be called with the mutex held.
func (p *FilesDataProvider) writeTasks() error {
	doc := tasksFile{}
	for _, t := range p.tasks {
		doc.Tasks = append(doc.Tasks, t)
	}
	sort.Slice(doc.Tasks, func(i, j int) bool { return doc.Tasks[i].ID < doc.Tasks[j].ID })
	return writeYamlFile(filepath.Join(p.BasePath, "tasks.yaml"), doc)
}

// writeProjects must be called with the mutex held.
func (p *FilesDataProvider) writeProjects() error {
	doc := projectsFile{}
	for _, proj := range p.projects {
		doc.Projects = append(doc.Projects, proj)
	}
	sort.Slice(doc.Projects, func(i, j int) bool { return doc.Projects[i].ID < doc.Projects[j].ID })
	return writeYamlFile(filepath.Join(p.BasePath, "projects.yaml"), doc)
}

func (p *FilesDataProvider) AddEntry(e model.TimeEntry) (model.TimeEntry, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	e.ID = p.nextEntryID
	p.nextEntryID++
	e.Date = model.DateFromGotime(e.Start)
	p.entries[e.ID] = e

	if err := p.writeDay(e.Date); err != nil {
		delete(p.entries, e.ID)
		return model.TimeEntry{}, err
	}
	return e, nil
}

func (p *FilesDataProvider) GetEntry(id int64) (model.TimeEntry, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return model.TimeEntry{}, storage.ErrNotFound
	}
	return e, nil
}

func (p *FilesDataProvider) UpdateEntry(e model.TimeEntry) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	prev, ok := p.entries[e.ID]
	if !ok {
		return storage.ErrNotFound
	}
	e.Date = model.DateFromGotime(e.Start)
	p.entries[e.ID] = e

	if err := p.writeDay(e.Date); err != nil {
		p.entries[e.ID] = prev
		return err
	}
	// a changed start may have moved the entry to another day file
	if prev.Date != e.Date {
		if err := p.writeDay(prev.Date); err != nil {
			// undo the move: restore memory and rewrite the new day file so
			// the store never holds the entry on both days
			p.entries[e.ID] = prev
			if rbErr := p.writeDay(e.Date); rbErr != nil {
				return fmt.Errorf("error rewriting previous day file (%w), and rolling back '%s' failed (%v)",
					err, p.dayFilename(e.Date), rbErr)
			}
			return err
		}
	}
	return nil
}

func (p *FilesDataProvider) DeleteEntry(id int64) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(p.entries, id)

	if err := p.writeDay(e.Date); err != nil {
		p.entries[id] = e
		return err
	}
	return nil
}

func (p *FilesDataProvider) OpenEntry() (model.TimeEntry, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

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

func (p *FilesDataProvider) EntriesInRange(from, to time.Time) ([]model.TimeEntry, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	result := make([]model.TimeEntry, 0)
	for _, e := range p.entries {
		if !e.Start.Before(from) && e.Start.Before(to) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (p *FilesDataProvider) AddTask(t model.Task) (model.Task, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	t.ID = p.nextTaskID
	p.nextTaskID++
	p.tasks[t.ID] = t

	if err := p.writeTasks(); err != nil {
		delete(p.tasks, t.ID)
		return model.Task{}, err
	}
	return t, nil
}

func (p *FilesDataProvider) GetTask(id int64) (model.Task, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	t, ok := p.tasks[id]
	if !ok {
		return model.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (p *FilesDataProvider) TaskByKey(key string) (model.Task, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, t := range p.tasks {
		if t.Key == key {
			return t, nil
		}
	}
	return model.Task{}, storage.ErrNotFound
}

func (p *FilesDataProvider) UpdateTask(t model.Task) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	prev, ok := p.tasks[t.ID]
	if !ok {
		return storage.ErrNotFound
	}
	p.tasks[t.ID] = t

	if err := p.writeTasks(); err != nil {
		p.tasks[t.ID] = prev
		return err
	}
	return nil
}

func (p *FilesDataProvider) Tasks() ([]model.Task, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	result := make([]model.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (p *FilesDataProvider) AddProject(proj model.Project) (model.Project, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	proj.ID = p.nextProjectID
	p.nextProjectID++
	p.projects[proj.ID] = proj

	if err := p.writeProjects(); err != nil {
		delete(p.projects, proj.ID)
		return model.Project{}, err
	}
	return proj, nil
}

func (p *FilesDataProvider) GetProject(id int64) (model.Project, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	proj, ok := p.projects[id]
	if !ok {
		return model.Project{}, storage.ErrNotFound
	}
	return proj, nil
}

func (p *FilesDataProvider) ProjectByCode(code string) (model.Project, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, proj := range p.projects {
		if proj.Code == code {
			return proj, nil
		}
	}
	return model.Project{}, storage.ErrNotFound
}

func (p *FilesDataProvider) UpdateProject(proj model.Project) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	prev, ok := p.projects[proj.ID]
	if !ok {
		return storage.ErrNotFound
	}
	p.projects[proj.ID] = proj

	if err := p.writeProjects(); err != nil {
		p.projects[proj.ID] = prev
		return err
	}
	return nil
}

func (p *FilesDataProvider) Projects() ([]model.Project, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	result := make([]model.Project, 0, len(p.projects))
	for _, proj := range p.projects {
		result = append(result, proj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
