// Package summary derives read-only projections over the ledger: daily and
// weekly totals with per-task breakdowns, and a flattened record set for
// timesheet export.
package summary

import (
	"fmt"
	"sort"
	"time"

	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/storage"
)

// A TaskTotal is the per-task subtotal within a daily summary.
type TaskTotal struct {
	TaskKey     string
	TaskSummary string
	ProjectName string
	Total       time.Duration
	Entries     int
}

// A DaySummary aggregates all entries that started on one date.
type DaySummary struct {
	Date  model.Date
	Total time.Duration
	Tasks []TaskTotal
}

// A WeekSummary covers the Monday-Sunday week containing a target date.
type WeekSummary struct {
	Monday model.Date
	Sunday model.Date
	Days   []DaySummary
	Total  time.Duration
}

// A Record is one row of the flattened, chronologically sorted export set.
// This is a data contract for export consumers, not a component of its own.
type Record struct {
	Date            model.Date
	Start           time.Time
	End             *time.Time
	DurationMinutes int
	Project         string
	TaskKey         string
	TaskSummary     string
	Comment         string
}

// Aggregator computes summaries. It only reads; durations of open entries
// are computed against Now.
type Aggregator struct {
	ledger   *ledger.Ledger
	provider storage.Provider

	// Now is the clock open-ended durations are computed against; tests
	// override it.
	Now func() time.Time
}

// New creates an aggregator over the given ledger.
func New(l *ledger.Ledger, provider storage.Provider) *Aggregator {
	return &Aggregator{
		ledger:   l,
		provider: provider,
		Now:      time.Now,
	}
}

// ForDay summarizes the entries that started on the given date. The open
// entry is part of the range query result and thus counted exactly once.
// Task groups are sorted by subtotal descending.
func (a *Aggregator) ForDay(d model.Date) (DaySummary, error) {
	entries, err := a.ledger.ListForDate(d)
	if err != nil {
		return DaySummary{}, err
	}

	now := a.Now()
	result := DaySummary{Date: d}
	groups := make(map[int64]*TaskTotal)

	for i := range entries {
		e := &entries[i]
		duration := e.Duration(now)
		result.Total += duration

		group, ok := groups[e.TaskID]
		if !ok {
			key, taskSummary, projectName := a.describeTask(e.TaskID)
			group = &TaskTotal{TaskKey: key, TaskSummary: taskSummary, ProjectName: projectName}
			groups[e.TaskID] = group
		}
		group.Total += duration
		group.Entries++
	}

	for _, group := range groups {
		result.Tasks = append(result.Tasks, *group)
	}
	sort.Slice(result.Tasks, func(i, j int) bool {
		if result.Tasks[i].Total != result.Tasks[j].Total {
			return result.Tasks[i].Total > result.Tasks[j].Total
		}
		return result.Tasks[i].TaskKey < result.Tasks[j].TaskKey
	})

	return result, nil
}

// ForWeek summarizes each day of the Monday-Sunday week containing the given
// date. The open entry contributes only to the day it started on.
func (a *Aggregator) ForWeek(d model.Date) (WeekSummary, error) {
	monday, sunday := d.WeekBounds()
	result := WeekSummary{Monday: monday, Sunday: sunday}

	for day := monday; !day.IsAfter(sunday); day = day.Next() {
		daySummary, err := a.ForDay(day)
		if err != nil {
			return WeekSummary{}, err
		}
		result.Days = append(result.Days, daySummary)
		result.Total += daySummary.Total
	}

	return result, nil
}

// Records returns the flattened export rows for all entries starting in
// [from, til], chronologically sorted.
func (a *Aggregator) Records(from, til model.Date) ([]Record, error) {
	entries, err := a.ledger.ListForRange(from.ToGotime(), til.Next().ToGotime())
	if err != nil {
		return nil, err
	}

	now := a.Now()
	records := make([]Record, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		key, taskSummary, projectName := a.describeTask(e.TaskID)
		records = append(records, Record{
			Date:            model.DateFromGotime(e.Start),
			Start:           e.Start,
			End:             e.End,
			DurationMinutes: int(e.Duration(now) / time.Minute),
			Project:         projectName,
			TaskKey:         key,
			TaskSummary:     taskSummary,
			Comment:         e.Comment,
		})
	}

	return records, nil
}

// describeTask resolves display data for a task reference; a dangling
// reference degrades to a placeholder rather than failing the summary.
func (a *Aggregator) describeTask(taskID int64) (key, taskSummary, projectName string) {
	task, err := a.provider.GetTask(taskID)
	if err != nil {
		return fmt.Sprintf("?-%d", taskID), "(unknown task)", ""
	}
	project, err := a.provider.GetProject(task.ProjectID)
	if err != nil {
		return task.Key, task.Summary, ""
	}
	return task.Key, task.Summary, project.Name
}
