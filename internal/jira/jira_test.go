package jira_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhartmann/worklog/internal/jira"
	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage/providers"
)

const issueJSON = `{
	"key": "ABC-123",
	"fields": {
		"summary": "Implement the flux capacitor",
		"status": {"name": "In Progress", "statusCategory": {"key": "indeterminate", "name": "In Progress"}},
		"project": {"key": "ABC", "name": "Avionics Base Components"}
	}
}`

func searchJSON(issues ...string) string {
	result := `{"issues":[`
	for i, issue := range issues {
		if i > 0 {
			result += ","
		}
		result += issue
	}
	return result + `]}`
}

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *jira.Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, jira.NewClient(server.URL, "dev@example.com", "token")
}

func TestFetchIssue(t *testing.T) {
	var gotPath, gotUser string
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		fmt.Fprint(w, issueJSON)
	})

	issue, err := client.FetchIssue("ABC-123")
	require.NoError(t, err)
	require.NotNil(t, issue)

	assert.Equal(t, "/rest/api/2/issue/ABC-123", gotPath)
	assert.Equal(t, "dev@example.com", gotUser)
	assert.Equal(t, "ABC-123", issue.Key)
	assert.Equal(t, "Implement the flux capacitor", issue.Fields.Summary)
	assert.Equal(t, "indeterminate", issue.Fields.Status.Category.Key)
	assert.Equal(t, "ABC", issue.Fields.Project.Key)
}

func TestFetchIssueNotFoundIsNotAnError(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	issue, err := client.FetchIssue("ABC-999")
	require.NoError(t, err)
	assert.Nil(t, issue)
}

func TestFetchIssueServerError(t *testing.T) {
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchIssue("ABC-123")
	assert.Error(t, err)
}

func TestFetchAssignedIssuesJQL(t *testing.T) {
	var gotJQL string
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotJQL = r.URL.Query().Get("jql")
		fmt.Fprint(w, searchJSON(issueJSON))
	})

	issues, err := client.FetchAssignedIssues([]string{"ABC", "XYZ"})
	require.NoError(t, err)
	require.Len(t, issues, 1)

	assert.Equal(t, "assignee = currentUser() AND project in (ABC,XYZ) ORDER BY updated DESC", gotJQL)
}

func TestFetchProjectsDeduplicates(t *testing.T) {
	second := `{
		"key": "ABC-124",
		"fields": {
			"summary": "Another one",
			"status": {"name": "To Do", "statusCategory": {"key": "new", "name": "To Do"}},
			"project": {"key": "ABC", "name": "Avionics Base Components"}
		}
	}`
	third := `{
		"key": "XYZ-1",
		"fields": {
			"summary": "Elsewhere",
			"status": {"name": "To Do", "statusCategory": {"key": "new", "name": "To Do"}},
			"project": {"key": "XYZ", "name": "Xylophone Zone"}
		}
	}`
	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchJSON(issueJSON, second, third))
	})

	projects, err := client.FetchProjects()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "ABC", projects[0].Key)
	assert.Equal(t, "XYZ", projects[1].Key)
}

func TestUnconfiguredClient(t *testing.T) {
	client := jira.NewClient("", "", "")
	assert.False(t, client.Configured())

	_, err := client.FetchIssue("ABC-1")
	assert.Error(t, err)
}

func TestRefreshUpsertsAndDeactivates(t *testing.T) {
	provider := providers.NewMemoryDataProvider()

	// pre-existing rows: a stale assigned task, the lunch task, a manual task
	project, err := provider.AddProject(model.Project{Code: "ABC", Name: "Avionics Base Components", Tracked: true})
	require.NoError(t, err)
	_, err = provider.AddTask(model.Task{Key: "ABC-50", Summary: "stale", Active: true, ProjectID: project.ID})
	require.NoError(t, err)
	_, err = provider.AddTask(model.Task{Key: model.LunchTaskKey, Summary: "Lunch break", Active: true, ProjectID: project.ID})
	require.NoError(t, err)
	_, err = provider.AddTask(model.Task{Key: "ADHOC-1", Summary: "manual", Active: true, ProjectID: project.ID})
	require.NoError(t, err)

	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchJSON(issueJSON))
	})
	refresher := jira.NewRefresher(client, provider)

	count, err := refresher.Refresh([]string{"ABC"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// the fetched issue exists as an active task
	fetched, err := provider.TaskByKey("ABC-123")
	require.NoError(t, err)
	assert.True(t, fetched.Active)
	assert.Equal(t, "Implement the flux capacitor", fetched.Summary)
	assert.Equal(t, "In Progress", fetched.Status)
	assert.Equal(t, project.ID, fetched.ProjectID)

	// the stale JIRA task was deactivated, lunch and manual tasks untouched
	stale, err := provider.TaskByKey("ABC-50")
	require.NoError(t, err)
	assert.False(t, stale.Active)

	lunch, err := provider.TaskByKey(model.LunchTaskKey)
	require.NoError(t, err)
	assert.True(t, lunch.Active)

	manual, err := provider.TaskByKey("ADHOC-1")
	require.NoError(t, err)
	assert.True(t, manual.Active)
}

func TestRefreshUpdatesExistingTask(t *testing.T) {
	provider := providers.NewMemoryDataProvider()
	project, err := provider.AddProject(model.Project{Code: "ABC", Name: "Old Name", Tracked: true})
	require.NoError(t, err)
	_, err = provider.AddTask(model.Task{Key: "ABC-123", Summary: "old summary", Active: false, ProjectID: project.ID})
	require.NoError(t, err)

	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchJSON(issueJSON))
	})

	_, err = jira.NewRefresher(client, provider).Refresh(nil)
	require.NoError(t, err)

	task, err := provider.TaskByKey("ABC-123")
	require.NoError(t, err)
	assert.True(t, task.Active)
	assert.Equal(t, "Implement the flux capacitor", task.Summary)

	// project name follows JIRA
	updated, err := provider.ProjectByCode("ABC")
	require.NoError(t, err)
	assert.Equal(t, "Avionics Base Components", updated.Name)

	// no duplicate rows
	tasks, err := provider.Tasks()
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestImportIssue(t *testing.T) {
	provider := providers.NewMemoryDataProvider()

	_, client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/api/2/issue/ABC-123" {
			fmt.Fprint(w, issueJSON)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	refresher := jira.NewRefresher(client, provider)

	task, err := refresher.ImportIssue("ABC-123")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "ABC-123", task.Key)
	assert.True(t, task.Active)

	// the project was created alongside
	_, err = provider.ProjectByCode("ABC")
	require.NoError(t, err)

	// an unknown key yields nil, not an error
	unknown, err := refresher.ImportIssue("ABC-999")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}
