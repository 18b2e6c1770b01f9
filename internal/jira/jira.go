// Package jira provides a thin client for the handful of JIRA Cloud REST
// queries the tracker needs.
package jira

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Issue represents the issue data from the JIRA REST API.
type Issue struct {
	Key    string      `json:"key"` // "ABC-123"
	Fields IssueFields `json:"fields"`
}

// IssueFields is the subset of issue fields the tracker requests.
type IssueFields struct {
	Summary string      `json:"summary"`
	Status  IssueStatus `json:"status"`
	Project ProjectInfo `json:"project"`
}

// IssueStatus represents the status data from the JIRA REST API.
type IssueStatus struct {
	Name     string         `json:"name"` // "In Progress"
	Category StatusCategory `json:"statusCategory"`
}

// StatusCategory represents the status-category data from the JIRA REST API.
type StatusCategory struct {
	Key  string `json:"key"`  // "indeterminate"
	Name string `json:"name"` // "In Progress"
}

// ProjectInfo represents the project data from the JIRA REST API.
type ProjectInfo struct {
	Key  string `json:"key"`  // "ABC"
	Name string `json:"name"` // "Avionics Base Components"
}

type searchResponse struct {
	Issues []Issue `json:"issues"`
}

// Client is a handler for querying JIRA Cloud. A zero-value base URL or user
// means "not configured"; callers gate on Configured.
type Client struct {
	baseURL string
	user    string
	token   string
	client  *http.Client
}

// NewClient creates a JIRA client for the given cloud instance.
func NewClient(baseURL, user, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether the client has the parameters it needs to
// successfully query.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.user != ""
}

// FetchIssue fetches a single issue by its key. A key that is not found or
// not accessible yields (nil, nil), not an error.
func (c *Client) FetchIssue(key string) (*Issue, error) {
	call := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=summary,status,project", c.baseURL, url.PathEscape(key))

	body, status, err := c.get(call)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching issue '%s'", status, key)
	}

	issue := Issue{}
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("error unmarshaling issue '%s' (%w)", key, err)
	}
	return &issue, nil
}

// FetchAssignedIssues fetches the issues assigned to the current user within
// the given project keys.
func (c *Client) FetchAssignedIssues(projectKeys []string) ([]Issue, error) {
	jql := "assignee = currentUser()"
	if len(projectKeys) > 0 {
		jql += fmt.Sprintf(" AND project in (%s)", strings.Join(projectKeys, ","))
	}
	jql += " ORDER BY updated DESC"

	return c.search(jql)
}

// FetchProjects returns the projects in which the current user has at least
// one assigned issue that is not Done.
func (c *Client) FetchProjects() ([]ProjectInfo, error) {
	issues, err := c.search("assignee = currentUser() AND statusCategory != Done")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	result := make([]ProjectInfo, 0)
	for _, issue := range issues {
		project := issue.Fields.Project
		if _, ok := seen[project.Key]; ok {
			continue
		}
		seen[project.Key] = struct{}{}
		result = append(result, project)
	}
	return result, nil
}

func (c *Client) search(jql string) ([]Issue, error) {
	call := fmt.Sprintf("%s/rest/api/2/search?jql=%s&fields=summary,status,project&maxResults=200",
		c.baseURL, url.QueryEscape(jql))

	body, status, err := c.get(call)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d searching issues", status)
	}

	response := searchResponse{}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling search response (%w)", err)
	}
	return response.Issues, nil
}

func (c *Client) get(call string) ([]byte, int, error) {
	if !c.Configured() {
		return nil, 0, fmt.Errorf("insufficient parameters for query (url:%s,user:%s)", c.baseURL, c.user)
	}

	request, err := http.NewRequest(http.MethodGet, call, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("error building request (%w)", err)
	}
	request.SetBasicAuth(c.user, c.token)

	response, err := c.client.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying JIRA (%w)", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading response body (%w)", err)
	}
	return body, response.StatusCode, nil
}
