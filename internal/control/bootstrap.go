package control

import (
	"errors"
	"fmt"

	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage"
)

// EnsureReservedRows makes sure the internal project and its synthetic lunch
// task exist, returning the lunch task id. Both are reserved: the project is
// excluded from normal pickers and the lunch task only ever appears in
// historical entries.
func EnsureReservedRows(provider storage.Provider) (int64, error) {
	project, err := provider.ProjectByCode(model.InternalProjectCode)
	if errors.Is(err, storage.ErrNotFound) {
		project, err = provider.AddProject(model.Project{
			Code:    model.InternalProjectCode,
			Name:    "Internal",
			Tracked: false,
		})
	}
	if err != nil {
		return 0, fmt.Errorf("error ensuring internal project (%w)", err)
	}

	task, err := provider.TaskByKey(model.LunchTaskKey)
	if errors.Is(err, storage.ErrNotFound) {
		task, err = provider.AddTask(model.Task{
			Key:       model.LunchTaskKey,
			Summary:   "Lunch break",
			Active:    true,
			ProjectID: project.ID,
		})
	}
	if err != nil {
		return 0, fmt.Errorf("error ensuring lunch task (%w)", err)
	}

	return task.ID, nil
}
