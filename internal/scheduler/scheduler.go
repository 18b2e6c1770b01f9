// Package scheduler owns the repeating timers of the tracker and the
// lunch-break and end-of-day state that hangs off them.
//
// The scheduler holds no business data; it emits typed events onto a single
// channel, and exactly one dispatcher (the embedding shell) consumes them.
// All handlers therefore run on one logical thread; timer callbacks never
// mutate tracking state themselves beyond the scheduler's own bookkeeping.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/indicator"
	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/tracking"
)

// EventKind discriminates scheduler events.
type EventKind int

const (
	// EventPromptDue asks the shell to prompt the user for their current
	// task. Only emitted when the tracking state's prompt gate allows it.
	EventPromptDue EventKind = iota
	// EventRefreshDue asks the shell to refresh tasks/projects from JIRA.
	EventRefreshDue
	// EventCalendarScanDue asks the shell to scan calendar events for
	// bracketed issue keys.
	EventCalendarScanDue
	// EventTrackingStarted fires once when the clock enters the tracking
	// window (and on startup inside the window); it drives the initial
	// daily prompt.
	EventTrackingStarted
	// EventTrackingEnded fires once when the clock leaves the tracking
	// window; any open entry has been stopped by then.
	EventTrackingEnded
	// EventLunchEnded fires when a lunch break ends, by timer or
	// explicitly.
	EventLunchEnded
	// EventStatusChanged reports a change of the derived tracking status.
	EventStatusChanged
)

func (k EventKind) String() string {
	switch k {
	case EventPromptDue:
		return "prompt-due"
	case EventRefreshDue:
		return "refresh-due"
	case EventCalendarScanDue:
		return "calendar-scan-due"
	case EventTrackingStarted:
		return "tracking-started"
	case EventTrackingEnded:
		return "tracking-ended"
	case EventLunchEnded:
		return "lunch-ended"
	case EventStatusChanged:
		return "status-changed"
	default:
		return "unknown"
	}
}

// An Event is a discrete "due" signal from the scheduler.
type Event struct {
	Kind   EventKind
	At     time.Time
	Status model.TrackingStatus
}

type lunchBreak struct {
	active   bool
	start    time.Time
	duration time.Duration
	entryID  int64
	timer    *time.Timer
}

// Scheduler owns the prompt, refresh, calendar-scan, and status-tick timers
// plus the one-shot lunch timer. The embedding shell owns one instance; there
// is no package-level state.
type Scheduler struct {
	ledger      *ledger.Ledger
	state       *tracking.State
	indicator   indicator.Indicator
	lunchTaskID int64

	// Now is the clock; tests override it.
	Now func() time.Time

	events chan Event

	mtx     sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	promptEvery time.Duration
	updateEvery time.Duration
	scanEvery   time.Duration

	promptTicker *time.Ticker
	updateTicker *time.Ticker
	scanTicker   *time.Ticker
	scanStopCh   chan struct{}

	lunch lunchBreak

	withinKnown bool
	lastWithin  bool

	statusKnown bool
	lastStatus  model.TrackingStatus

	lastAutoStop model.Date
}

// New creates a scheduler. lunchTaskID is the id of the reserved lunch task
// that break entries are booked against.
func New(l *ledger.Ledger, state *tracking.State, ind indicator.Indicator, lunchTaskID int64) *Scheduler {
	return &Scheduler{
		ledger:      l,
		state:       state,
		indicator:   ind,
		lunchTaskID: lunchTaskID,
		Now:         time.Now,
		events:      make(chan Event, 32),
	}
}

// Events returns the channel the scheduler emits on. Exactly one dispatcher
// should consume it.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// SetIntervals configures the timer periods before Start. A non-positive
// scanEvery disables calendar scanning.
func (s *Scheduler) SetIntervals(promptEvery, updateEvery, scanEvery time.Duration) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.promptEvery = promptEvery
	s.updateEvery = updateEvery
	s.scanEvery = scanEvery
}

// Start (re)initializes all timers. Idempotent: a running scheduler is
// stopped first.
func (s *Scheduler) Start() {
	s.Stop()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.running = true
	s.stopCh = make(chan struct{})

	s.promptTicker = time.NewTicker(s.promptEvery)
	s.wg.Add(1)
	go s.promptLoop(s.promptTicker, s.stopCh)

	s.updateTicker = time.NewTicker(s.updateEvery)
	s.wg.Add(1)
	go s.updateLoop(s.updateTicker, s.stopCh)

	if s.scanEvery > 0 {
		s.startScanLoopLocked()
	}

	s.wg.Add(1)
	go s.statusTickLoop(s.stopCh)

	// an active lunch break survives a Stop/Start cycle: re-arm its one-shot
	// timer for whatever remains, or end it if it expired while stopped
	if s.lunch.active {
		remaining := s.lunch.duration - s.Now().Sub(s.lunch.start)
		if remaining > 0 {
			s.lunch.timer = time.AfterFunc(remaining, s.EndLunchBreak)
		} else {
			go s.EndLunchBreak()
		}
	}

	// establish the initial status and window baseline right away rather
	// than waiting for the first minute boundary
	go s.Tick(s.Now())
}

// Stop cancels all timers. Safe to call when none are running.
func (s *Scheduler) Stop() {
	s.mtx.Lock()
	if !s.running {
		s.mtx.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.promptTicker.Stop()
	s.updateTicker.Stop()
	s.stopScanLoopLocked()
	if s.lunch.timer != nil {
		s.lunch.timer.Stop()
	}
	s.mtx.Unlock()

	s.wg.Wait()
}

// SetPromptInterval adjusts the running prompt timer's period without
// restarting the scheduler.
func (s *Scheduler) SetPromptInterval(minutes int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.promptEvery = time.Duration(minutes) * time.Minute
	if s.running {
		s.promptTicker.Reset(s.promptEvery)
	}
}

// SetUpdateInterval adjusts the running refresh timer's period without
// restarting the scheduler.
func (s *Scheduler) SetUpdateInterval(minutes int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.updateEvery = time.Duration(minutes) * time.Minute
	if s.running {
		s.updateTicker.Reset(s.updateEvery)
	}
}

// SetCalendarScanInterval adjusts the calendar-scan period; a value <= 0
// tears down that timer specifically, leaving all others running.
func (s *Scheduler) SetCalendarScanInterval(minutes int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.scanEvery = time.Duration(minutes) * time.Minute
	if !s.running {
		return
	}

	switch {
	case minutes <= 0:
		s.stopScanLoopLocked()
	case s.scanTicker != nil:
		s.scanTicker.Reset(s.scanEvery)
	default:
		s.startScanLoopLocked()
	}
}

// StartLunchBreak records lunch state, books an entry against the reserved
// lunch task (closing any open entry in the process), and arms the one-shot
// lunch timer.
func (s *Scheduler) StartLunchBreak(durationMinutes int) error {
	if durationMinutes <= 0 {
		return fmt.Errorf("lunch duration must be positive (got %d)", durationMinutes)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.lunch.active {
		return fmt.Errorf("lunch break already active")
	}

	entry, err := s.ledger.Start(s.lunchTaskID)
	if err != nil {
		return fmt.Errorf("error opening lunch entry (%w)", err)
	}

	now := s.Now()
	duration := time.Duration(durationMinutes) * time.Minute
	s.lunch = lunchBreak{
		active:   true,
		start:    now,
		duration: duration,
		entryID:  entry.ID,
		timer:    time.AfterFunc(duration, s.EndLunchBreak),
	}
	s.state.SetOnLunch(true)

	s.publishStatusLocked(now)
	return nil
}

// EndLunchBreak closes the lunch entry and clears lunch state. Called by the
// one-shot timer on expiry or explicitly by the user; calling it with no
// active lunch break is a no-op.
func (s *Scheduler) EndLunchBreak() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.lunch.active {
		return
	}

	// stopping an already-fired timer is a no-op
	s.lunch.timer.Stop()

	now := s.Now()
	if err := s.ledger.CloseEntry(s.lunch.entryID, now); err != nil {
		log.Error().Err(err).Int64("entry", s.lunch.entryID).Msg("could not close lunch entry")
	}

	s.lunch = lunchBreak{}
	s.state.SetOnLunch(false)

	s.emit(Event{Kind: EventLunchEnded, At: now})
	s.publishStatusLocked(now)
}

// OnLunchBreak reports whether a lunch break is active and, if so, how much
// of it remains.
func (s *Scheduler) OnLunchBreak() (bool, time.Duration) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.lunch.active {
		return false, 0
	}
	remaining := s.lunch.duration - s.Now().Sub(s.lunch.start)
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining
}

// Tick re-evaluates tracking-hours membership for the given time. It raises
// tracking-started/-ended transitions exactly once per boundary crossing
// (edge-triggered) and performs the once-per-day end-of-day stop.
//
// The minute granularity makes end-of-day detection a best-effort
// approximation: a missed tick (system sleep) may skip the exact boundary,
// which is acceptable for minute-granularity tracking.
func (s *Scheduler) Tick(now time.Time) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.publishStatusLocked(now)

	within := tracking.IsWithinTrackingHours(now, s.state.TrackingStart, s.state.TrackingEnd)
	defer func() {
		s.lastWithin = within
		s.withinKnown = true
	}()

	switch {
	case within && (!s.withinKnown || !s.lastWithin):
		s.emit(Event{Kind: EventTrackingStarted, At: now})

	case !within && s.withinKnown && s.lastWithin:
		today := model.DateFromGotime(now)
		if s.lastAutoStop != today {
			s.lastAutoStop = today
			// fire-and-forget from the timer's perspective: a failed stop
			// is logged, and the next tick re-derives state from the ledger
			if err := s.ledger.Stop(); err != nil {
				log.Error().Err(err).Msg("could not auto-stop open entry at end of day")
			}
		}
		s.emit(Event{Kind: EventTrackingEnded, At: now})
	}
}

func (s *Scheduler) promptLoop(ticker *time.Ticker, stopCh <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			if s.state.ShouldPromptUser(now) {
				s.emit(Event{Kind: EventPromptDue, At: now})
			} else {
				log.Debug().Msg("prompt due but gated off")
			}
		}
	}
}

func (s *Scheduler) updateLoop(ticker *time.Ticker, stopCh <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			s.emit(Event{Kind: EventRefreshDue, At: now})
		}
	}
}

func (s *Scheduler) scanLoop(ticker *time.Ticker, stopCh, scanStopCh <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case <-scanStopCh:
			return
		case now := <-ticker.C:
			s.emit(Event{Kind: EventCalendarScanDue, At: now})
		}
	}
}

// statusTickLoop re-evaluates the tracking status at the start of every
// minute.
func (s *Scheduler) statusTickLoop(stopCh <-chan struct{}) {
	defer s.wg.Done()
	for {
		now := s.Now()
		next := now.Truncate(time.Minute).Add(time.Minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
			s.Tick(s.Now())
		}
	}
}

// startScanLoopLocked and stopScanLoopLocked must be called with the mutex
// held.
func (s *Scheduler) startScanLoopLocked() {
	s.scanTicker = time.NewTicker(s.scanEvery)
	s.scanStopCh = make(chan struct{})
	s.wg.Add(1)
	go s.scanLoop(s.scanTicker, s.stopCh, s.scanStopCh)
}

func (s *Scheduler) stopScanLoopLocked() {
	if s.scanTicker == nil {
		return
	}
	s.scanTicker.Stop()
	close(s.scanStopCh)
	s.scanTicker = nil
	s.scanStopCh = nil
}

// publishStatusLocked pushes the derived status to the indicator and emits a
// status-changed event when it differs from the last published one. Must be
// called with the mutex held.
func (s *Scheduler) publishStatusLocked(now time.Time) {
	status := s.state.Status(now)
	if s.statusKnown && status == s.lastStatus {
		return
	}
	s.lastStatus = status
	s.statusKnown = true

	if s.indicator != nil {
		s.indicator.Set(status)
	}
	s.emit(Event{Kind: EventStatusChanged, At: now, Status: status})
}

func (s *Scheduler) emit(e Event) {
	select {
	case s.events <- e:
	default:
		// a full queue means the dispatcher is gone or wedged; dropping is
		// preferable to blocking a timer callback
		log.Warn().Str("kind", e.Kind.String()).Msg("event queue full, dropping event")
	}
}
