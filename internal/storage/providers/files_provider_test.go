package providers_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage"
	"github.com/lhartmann/worklog/internal/storage/providers"
)

func TestFilesProviderRoundTrip(t *testing.T) {
	base := t.TempDir()

	p, err := providers.NewFilesDataProvider(base)
	require.NoError(t, err)

	project, err := p.AddProject(model.Project{Code: "ABC", Name: "Alphabet", Tracked: true})
	require.NoError(t, err)
	task, err := p.AddTask(model.Task{Key: "ABC-1", Summary: "round trip", Active: true, ProjectID: project.ID})
	require.NoError(t, err)

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local)
	end := start.Add(30 * time.Minute)
	entry, err := p.AddEntry(model.TimeEntry{TaskID: task.ID, Start: start, End: &end, Comment: "persisted"})
	require.NoError(t, err)

	// the day file exists on disk
	_, err = os.Stat(filepath.Join(base, "entries", "2026-08-24.yaml"))
	require.NoError(t, err)

	// a fresh provider over the same directory sees everything
	reopened, err := providers.NewFilesDataProvider(base)
	require.NoError(t, err)

	gotTask, err := reopened.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, gotTask)

	gotProject, err := reopened.ProjectByCode("ABC")
	require.NoError(t, err)
	assert.Equal(t, project, gotProject)

	gotEntry, err := reopened.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.TaskID, gotEntry.TaskID)
	assert.Equal(t, "persisted", gotEntry.Comment)
	assert.True(t, gotEntry.Start.Equal(start))
	require.NotNil(t, gotEntry.End)
	assert.True(t, gotEntry.End.Equal(end))
	assert.Equal(t, model.Date{Year: 2026, Month: 8, Day: 24}, gotEntry.Date)
}

func TestFilesProviderIDsContinueAfterReopen(t *testing.T) {
	base := t.TempDir()

	p, err := providers.NewFilesDataProvider(base)
	require.NoError(t, err)
	first, err := p.AddTask(model.Task{Key: "ABC-1", Active: true})
	require.NoError(t, err)

	reopened, err := providers.NewFilesDataProvider(base)
	require.NoError(t, err)
	second, err := reopened.AddTask(model.Task{Key: "ABC-2", Active: true})
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
}

func TestFilesProviderOpenEntry(t *testing.T) {
	p, err := providers.NewFilesDataProvider(t.TempDir())
	require.NoError(t, err)

	_, err = p.OpenEntry()
	assert.ErrorIs(t, err, storage.ErrNotFound)

	start := time.Date(2026, 8, 24, 9, 0, 0, 0, time.Local)
	end := start.Add(time.Hour)
	_, err = p.AddEntry(model.TimeEntry{TaskID: 1, Start: start, End: &end})
	require.NoError(t, err)
	open, err := p.AddEntry(model.TimeEntry{TaskID: 1, Start: start.Add(2 * time.Hour)})
	require.NoError(t, err)

	got, err := p.OpenEntry()
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID)
}

func TestFilesProviderEntriesInRange(t *testing.T) {
	p, err := providers.NewFilesDataProvider(t.TempDir())
	require.NoError(t, err)

	day := func(d int, hour int) time.Time {
		return time.Date(2026, 8, d, hour, 0, 0, 0, time.Local)
	}
	for _, start := range []time.Time{day(23, 10), day(24, 9), day(24, 14), day(25, 9)} {
		end := start.Add(time.Hour)
		_, err := p.AddEntry(model.TimeEntry{TaskID: 1, Start: start, End: &end})
		require.NoError(t, err)
	}
	// one open entry inside the range
	_, err = p.AddEntry(model.TimeEntry{TaskID: 1, Start: day(24, 16)})
	require.NoError(t, err)

	// [24th, 25th): the upper bound is exclusive
	entries, err := p.EntriesInRange(day(24, 0), day(25, 0))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Start.Before(entries[1].Start))
	assert.True(t, entries[1].Start.Before(entries[2].Start))
	assert.True(t, entries[2].Open())
}

func TestFilesProviderMovesEntryBetweenDayFiles(t *testing.T) {
	base := t.TempDir()

	p, err := providers.NewFilesDataProvider(base)
	require.NoError(t, err)

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local)
	end := start.Add(time.Hour)
	entry, err := p.AddEntry(model.TimeEntry{TaskID: 1, Start: start, End: &end})
	require.NoError(t, err)

	oldFile := filepath.Join(base, "entries", "2026-08-24.yaml")
	newFile := filepath.Join(base, "entries", "2026-08-25.yaml")

	entry.Start = start.AddDate(0, 0, 1)
	movedEnd := entry.Start.Add(time.Hour)
	entry.End = &movedEnd
	require.NoError(t, p.UpdateEntry(entry))

	// the old day file is gone, the new one exists
	_, err = os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newFile)
	assert.NoError(t, err)

	got, err := p.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Date{Year: 2026, Month: 8, Day: 25}, got.Date)
}

func TestFilesProviderRollsBackFailedDayMove(t *testing.T) {
	base := t.TempDir()

	p, err := providers.NewFilesDataProvider(base)
	require.NoError(t, err)

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local)
	end := start.Add(time.Hour)
	entry, err := p.AddEntry(model.TimeEntry{TaskID: 1, Start: start, End: &end})
	require.NoError(t, err)

	oldFile := filepath.Join(base, "entries", "2026-08-24.yaml")
	newFile := filepath.Join(base, "entries", "2026-08-25.yaml")

	// make the old day file impossible to rewrite: a non-empty directory in
	// its place cannot be removed
	require.NoError(t, os.Remove(oldFile))
	require.NoError(t, os.Mkdir(oldFile, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(oldFile, "blocker"), []byte("x"), 0644))

	moved := entry
	moved.Start = start.AddDate(0, 0, 1)
	movedEnd := moved.Start.Add(time.Hour)
	moved.End = &movedEnd
	require.Error(t, p.UpdateEntry(moved))

	// the failed move left neither a moved entry in memory nor a new day
	// file on disk
	got, err := p.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(start))
	assert.Equal(t, model.Date{Year: 2026, Month: 8, Day: 24}, got.Date)

	_, err = os.Stat(newFile)
	assert.True(t, os.IsNotExist(err))

	entries, err := p.EntriesInRange(
		time.Date(2026, 8, 25, 0, 0, 0, 0, time.Local),
		time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local),
	)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFilesProviderDeleteRemovesEmptiedDayFile(t *testing.T) {
	base := t.TempDir()

	p, err := providers.NewFilesDataProvider(base)
	require.NoError(t, err)

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local)
	entry, err := p.AddEntry(model.TimeEntry{TaskID: 1, Start: start})
	require.NoError(t, err)

	dayFile := filepath.Join(base, "entries", "2026-08-24.yaml")
	_, err = os.Stat(dayFile)
	require.NoError(t, err)

	require.NoError(t, p.DeleteEntry(entry.ID))
	_, err = os.Stat(dayFile)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, p.DeleteEntry(entry.ID), storage.ErrNotFound)
}

func TestMemoryProviderNotFound(t *testing.T) {
	p := providers.NewMemoryDataProvider()

	_, err := p.GetEntry(1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.GetTask(1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.GetProject(1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.TaskByKey("ABC-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.ProjectByCode("ABC")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, p.UpdateEntry(model.TimeEntry{ID: 1}), storage.ErrNotFound)
	assert.ErrorIs(t, p.UpdateTask(model.Task{ID: 1}), storage.ErrNotFound)
	assert.ErrorIs(t, p.UpdateProject(model.Project{ID: 1}), storage.ErrNotFound)
}
