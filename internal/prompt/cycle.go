// Package prompt implements the recurring "what are you working on?"
// interaction as a small state machine: Idle until a prompt is due, then
// AwaitingResponse until the user answers or the timeout elapses.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/scheduler"
	"github.com/lhartmann/worklog/internal/storage"
)

// State of the cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

// ResolutionKind discriminates how an open prompt was resolved.
type ResolutionKind int

const (
	// ResolvedSelect: the user picked a task (or the timeout implicitly
	// confirmed the pre-selected one).
	ResolvedSelect ResolutionKind = iota
	// ResolvedLunch: the user started a lunch break.
	ResolvedLunch
	// ResolvedManual: the user entered a free-text task under a project.
	ResolvedManual
	// ResolvedCancel: the user dismissed the prompt; nothing was mutated.
	ResolvedCancel
	// ResolvedTimeout: the timeout elapsed with no pre-selected task;
	// nothing was mutated and tracking continues on whatever was active.
	ResolvedTimeout
)

// A Resolution is the outcome of one prompt.
type Resolution struct {
	Kind ResolutionKind
	Task *model.Task
	At   time.Time
}

// Cycle is the prompt/response state machine. It instructs the ledger to
// switch entries on task selection and the scheduler to begin lunch breaks;
// it performs no other mutation.
type Cycle struct {
	ledger   *ledger.Ledger
	sched    *scheduler.Scheduler
	provider storage.Provider

	// Timeout is how long a prompt stays open before resolving itself.
	Timeout time.Duration

	// Now is the clock; tests override it.
	Now func() time.Time

	mtx         sync.Mutex
	state       State
	timer       *time.Timer
	preselected *model.Task

	resolutions chan Resolution
}

// New creates a prompt cycle in the Idle state.
func New(l *ledger.Ledger, sched *scheduler.Scheduler, provider storage.Provider, timeout time.Duration) *Cycle {
	return &Cycle{
		ledger:      l,
		sched:       sched,
		provider:    provider,
		Timeout:     timeout,
		Now:         time.Now,
		resolutions: make(chan Resolution, 8),
	}
}

// Resolutions returns the channel resolutions are published on.
func (c *Cycle) Resolutions() <-chan Resolution {
	return c.resolutions
}

// State returns the current state of the cycle.
func (c *Cycle) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}

// Preselected returns the task the timeout would implicitly confirm, if any.
func (c *Cycle) Preselected() *model.Task {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.preselected
}

// Open transitions Idle -> AwaitingResponse and arms the timeout timer.
// preselected, usually the task of the last entry, is what a timeout
// implicitly confirms; it may be nil. Opening an already-open prompt only
// refreshes the pre-selection.
func (c *Cycle) Open(preselected *model.Task) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.preselected = preselected
	if c.state == StateAwaitingResponse {
		return
	}

	c.state = StateAwaitingResponse
	c.timer = time.AfterFunc(c.Timeout, c.resolveTimeout)
}

// SelectTask resolves the prompt with a task selection: the ledger switches
// to the task. Fails with ledger.ErrNotFound for an unknown task id.
func (c *Cycle) SelectTask(taskID int64) error {
	task, err := c.provider.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("error resolving task %d (%w)", taskID, err)
	}

	if _, err := c.ledger.SwitchTo(taskID); err != nil {
		return err
	}

	c.resolve(Resolution{Kind: ResolvedSelect, Task: &task})
	return nil
}

// StartLunch resolves the prompt by beginning a lunch break of the given
// duration. The scheduler owns the ledger interaction for lunch entries; this
// component makes no direct ledger call. The duration must be positive to be
// confirmable.
func (c *Cycle) StartLunch(durationMinutes int) error {
	if durationMinutes <= 0 {
		return fmt.Errorf("lunch duration must be positive (got %d)", durationMinutes)
	}
	if err := c.sched.StartLunchBreak(durationMinutes); err != nil {
		return err
	}

	c.resolve(Resolution{Kind: ResolvedLunch})
	return nil
}

// EnterManualTask resolves the prompt with a free-text task under the chosen
// project: a new task row with a reserved-prefix key is synthesized, then
// tracking switches to it. Requires both a project selection and non-empty
// text.
func (c *Cycle) EnterManualTask(projectID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("manual task text must not be empty")
	}
	if _, err := c.provider.GetProject(projectID); err != nil {
		return fmt.Errorf("error resolving project %d (%w)", projectID, err)
	}

	task, err := c.provider.AddTask(model.Task{
		Key:       c.nextManualKey(),
		Summary:   text,
		Active:    true,
		ProjectID: projectID,
	})
	if err != nil {
		return fmt.Errorf("error creating manual task (%w)", err)
	}

	if _, err := c.ledger.SwitchTo(task.ID); err != nil {
		return err
	}

	c.resolve(Resolution{Kind: ResolvedManual, Task: &task})
	return nil
}

// Cancel resolves the prompt without any mutation.
func (c *Cycle) Cancel() {
	c.resolve(Resolution{Kind: ResolvedCancel})
}

// resolveTimeout handles timeout expiry: with a pre-selected task it is an
// implicit confirm of that task, otherwise nothing is mutated and tracking
// silently continues on whatever was previously active. The Idle transition
// is claimed under the lock before any ledger call, so a user resolution
// landing first makes the expired timer a no-op, and a timer that claims
// first makes later user calls no-ops.
func (c *Cycle) resolveTimeout() {
	preselected, won := c.claim()
	if !won {
		return
	}

	if preselected == nil {
		c.publish(Resolution{Kind: ResolvedTimeout})
		return
	}

	if _, err := c.ledger.SwitchTo(preselected.ID); err != nil {
		log.Error().Err(err).Int64("task", preselected.ID).Msg("could not confirm pre-selected task on timeout")
		c.publish(Resolution{Kind: ResolvedTimeout})
		return
	}
	c.publish(Resolution{Kind: ResolvedSelect, Task: preselected})
}

// claim atomically takes the AwaitingResponse -> Idle transition and cancels
// the timeout timer. Exactly one caller wins it per prompt; only the winner
// publishes a resolution.
func (c *Cycle) claim() (preselected *model.Task, won bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state != StateAwaitingResponse {
		return nil, false
	}
	c.state = StateIdle
	preselected = c.preselected
	c.preselected = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return preselected, true
}

// resolve claims the Idle transition and publishes the resolution; a no-op
// when the prompt was already resolved.
func (c *Cycle) resolve(r Resolution) {
	if _, won := c.claim(); !won {
		return
	}
	c.publish(r)
}

func (c *Cycle) publish(r Resolution) {
	r.At = c.Now()
	select {
	case c.resolutions <- r:
	default:
		log.Warn().Msg("resolution queue full, dropping resolution")
	}
}

// nextManualKey produces an unused reserved-prefix task key.
func (c *Cycle) nextManualKey() string {
	for n := 1; ; n++ {
		key := fmt.Sprintf("%s-%d", model.ManualTaskKeyPrefix, n)
		_, err := c.provider.TaskByKey(key)
		if errors.Is(err, storage.ErrNotFound) {
			return key
		}
		if err != nil {
			// provider failure: fall back to a time-derived key rather than
			// looping forever
			return fmt.Sprintf("%s-%d", model.ManualTaskKeyPrefix, c.Now().Unix())
		}
	}
}
