package jira

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage"
)

// Refresher mirrors the user's assigned JIRA issues into the local store:
// projects and tasks are upserted, and previously fetched tasks that no
// longer appear are deactivated (soft flag, never deleted, so historical
// entries keep their references).
type Refresher struct {
	client   *Client
	provider storage.Provider
}

// NewRefresher creates a refresher over the given client and store.
func NewRefresher(client *Client, provider storage.Provider) *Refresher {
	return &Refresher{client: client, provider: provider}
}

// Refresh fetches the current assigned issues and reconciles the store.
// Returns the number of tasks now active.
func (r *Refresher) Refresh(projectKeys []string) (int, error) {
	issues, err := r.client.FetchAssignedIssues(projectKeys)
	if err != nil {
		return 0, fmt.Errorf("error fetching assigned issues (%w)", err)
	}

	fetched := make(map[string]struct{}, len(issues))
	for _, issue := range issues {
		fetched[issue.Key] = struct{}{}
		if err := r.upsertIssue(issue); err != nil {
			log.Error().Err(err).Str("issue", issue.Key).Msg("could not upsert issue")
		}
	}

	// deactivate JIRA-sourced tasks that are no longer assigned
	tasks, err := r.provider.Tasks()
	if err != nil {
		return len(fetched), fmt.Errorf("error listing tasks for reconciliation (%w)", err)
	}
	for _, task := range tasks {
		if task.Manual() || task.Key == model.LunchTaskKey {
			continue
		}
		if _, ok := fetched[task.Key]; ok || !task.Active {
			continue
		}
		task.Active = false
		if err := r.provider.UpdateTask(task); err != nil {
			log.Error().Err(err).Str("task", task.Key).Msg("could not deactivate task")
		}
	}

	return len(fetched), nil
}

// ImportIssue fetches a single issue by key and upserts it as an active
// task. Returns the task, or nil if the key is unknown to JIRA.
func (r *Refresher) ImportIssue(key string) (*model.Task, error) {
	issue, err := r.client.FetchIssue(key)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, nil
	}
	if err := r.upsertIssue(*issue); err != nil {
		return nil, err
	}

	task, err := r.provider.TaskByKey(issue.Key)
	if err != nil {
		return nil, fmt.Errorf("error reading back imported task '%s' (%w)", issue.Key, err)
	}
	return &task, nil
}

func (r *Refresher) upsertIssue(issue Issue) error {
	project, err := r.ensureProject(issue.Fields.Project)
	if err != nil {
		return err
	}

	existing, err := r.provider.TaskByKey(issue.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		_, err = r.provider.AddTask(model.Task{
			Key:            issue.Key,
			Summary:        issue.Fields.Summary,
			Status:         issue.Fields.Status.Name,
			StatusCategory: issue.Fields.Status.Category.Key,
			Active:         true,
			ProjectID:      project.ID,
		})
		return err
	case err != nil:
		return err
	}

	existing.Summary = issue.Fields.Summary
	existing.Status = issue.Fields.Status.Name
	existing.StatusCategory = issue.Fields.Status.Category.Key
	existing.Active = true
	existing.ProjectID = project.ID
	return r.provider.UpdateTask(existing)
}

func (r *Refresher) ensureProject(info ProjectInfo) (model.Project, error) {
	project, err := r.provider.ProjectByCode(info.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return r.provider.AddProject(model.Project{
			Code:    info.Key,
			Name:    info.Name,
			Tracked: true,
		})
	case err != nil:
		return model.Project{}, err
	}

	if project.Name != info.Name {
		project.Name = info.Name
		if err := r.provider.UpdateProject(project); err != nil {
			return model.Project{}, err
		}
	}
	return project, nil
}
