package prompt_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhartmann/worklog/internal/ledger"
	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/prompt"
	"github.com/lhartmann/worklog/internal/scheduler"
	"github.com/lhartmann/worklog/internal/storage/providers"
	"github.com/lhartmann/worklog/internal/tracking"
)

type fixture struct {
	cycle    *prompt.Cycle
	ledger   *ledger.Ledger
	provider *providers.MemoryDataProvider

	projectID   int64
	lunchTaskID int64
	taskA       model.Task
	taskB       model.Task
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	provider := providers.NewMemoryDataProvider()
	project, err := provider.AddProject(model.Project{Code: "ABC", Name: "Alphabet", Tracked: true})
	require.NoError(t, err)
	lunch, err := provider.AddTask(model.Task{Key: model.LunchTaskKey, Summary: "Lunch break", Active: true, ProjectID: project.ID})
	require.NoError(t, err)
	taskA, err := provider.AddTask(model.Task{Key: "ABC-1", Summary: "first", Active: true, ProjectID: project.ID})
	require.NoError(t, err)
	taskB, err := provider.AddTask(model.Task{Key: "ABC-2", Summary: "second", Active: true, ProjectID: project.ID})
	require.NoError(t, err)

	l := ledger.New(provider)
	state := tracking.NewState("09:00", "17:30", true)
	sched := scheduler.New(l, state, nil, lunch.ID)

	return &fixture{
		cycle:       prompt.New(l, sched, provider, timeout),
		ledger:      l,
		provider:    provider,
		projectID:   project.ID,
		lunchTaskID: lunch.ID,
		taskA:       taskA,
		taskB:       taskB,
	}
}

func (f *fixture) awaitResolution(t *testing.T) prompt.Resolution {
	t.Helper()
	select {
	case r := <-f.cycle.Resolutions():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no resolution published")
		return prompt.Resolution{}
	}
}

func TestSelectTaskResolvesAndSwitches(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.cycle.Open(nil)
	assert.Equal(t, prompt.StateAwaitingResponse, f.cycle.State())

	require.NoError(t, f.cycle.SelectTask(f.taskA.ID))
	assert.Equal(t, prompt.StateIdle, f.cycle.State())

	r := f.awaitResolution(t)
	assert.Equal(t, prompt.ResolvedSelect, r.Kind)
	require.NotNil(t, r.Task)
	assert.Equal(t, f.taskA.ID, r.Task.ID)

	active, err := f.ledger.ActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, f.taskA.ID, active.TaskID)
}

func TestSelectUnknownTaskKeepsPromptOpen(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.cycle.Open(nil)
	assert.ErrorIs(t, f.cycle.SelectTask(99), ledger.ErrNotFound)
	assert.Equal(t, prompt.StateAwaitingResponse, f.cycle.State())

	active, err := f.ledger.ActiveEntry()
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestStartLunchResolvesViaScheduler(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.cycle.Open(nil)
	require.NoError(t, f.cycle.StartLunch(30))

	r := f.awaitResolution(t)
	assert.Equal(t, prompt.ResolvedLunch, r.Kind)

	active, err := f.ledger.ActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, f.lunchTaskID, active.TaskID)
}

func TestStartLunchRequiresPositiveDuration(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.cycle.Open(nil)
	assert.Error(t, f.cycle.StartLunch(0))
	assert.Error(t, f.cycle.StartLunch(-30))
	assert.Equal(t, prompt.StateAwaitingResponse, f.cycle.State())
}

func TestEnterManualTask(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.cycle.Open(nil)
	require.NoError(t, f.cycle.EnterManualTask(f.projectID, "  unplanned support call  "))

	r := f.awaitResolution(t)
	assert.Equal(t, prompt.ResolvedManual, r.Kind)
	require.NotNil(t, r.Task)
	assert.Equal(t, "ADHOC-1", r.Task.Key)
	assert.Equal(t, "unplanned support call", r.Task.Summary)
	assert.True(t, r.Task.Manual())

	active, err := f.ledger.ActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, r.Task.ID, active.TaskID)

	// a second manual task gets the next free key
	f.cycle.Open(nil)
	require.NoError(t, f.cycle.EnterManualTask(f.projectID, "another one"))
	r = f.awaitResolution(t)
	assert.Equal(t, "ADHOC-2", r.Task.Key)
}

func TestEnterManualTaskValidation(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.cycle.Open(nil)
	assert.Error(t, f.cycle.EnterManualTask(f.projectID, "   "))
	assert.Error(t, f.cycle.EnterManualTask(99, "text"))
	assert.Equal(t, prompt.StateAwaitingResponse, f.cycle.State())

	// no task rows were synthesized
	tasks, err := f.provider.Tasks()
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestCancelMutatesNothing(t *testing.T) {
	f := newFixture(t, time.Hour)

	_, err := f.ledger.Start(f.taskA.ID)
	require.NoError(t, err)

	f.cycle.Open(&f.taskB)
	f.cycle.Cancel()

	r := f.awaitResolution(t)
	assert.Equal(t, prompt.ResolvedCancel, r.Kind)
	assert.Nil(t, r.Task)

	// tracking continues on the previously active task
	active, err := f.ledger.ActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, f.taskA.ID, active.TaskID)
}

func TestTimeoutConfirmsPreselectedTask(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	f.cycle.Open(&f.taskB)

	r := f.awaitResolution(t)
	assert.Equal(t, prompt.ResolvedSelect, r.Kind)
	require.NotNil(t, r.Task)
	assert.Equal(t, f.taskB.ID, r.Task.ID)

	active, err := f.ledger.ActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, f.taskB.ID, active.TaskID)
	assert.Equal(t, prompt.StateIdle, f.cycle.State())
}

func TestTimeoutWithoutPreselectionMutatesNothing(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	f.cycle.Open(nil)

	r := f.awaitResolution(t)
	assert.Equal(t, prompt.ResolvedTimeout, r.Kind)
	assert.Nil(t, r.Task)

	active, err := f.ledger.ActiveEntry()
	require.NoError(t, err)
	assert.Nil(t, active)
}

// gateProvider blocks the first task lookup until released, holding a
// resolution mid-flight so another resolution can race it.
type gateProvider struct {
	*providers.MemoryDataProvider

	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gateProvider) GetTask(id int64) (model.Task, error) {
	p.once.Do(func() { close(p.entered) })
	<-p.release
	return p.MemoryDataProvider.GetTask(id)
}

func TestCancelAfterTimeoutClaimIsANoOp(t *testing.T) {
	base := providers.NewMemoryDataProvider()
	project, err := base.AddProject(model.Project{Code: "ABC", Name: "Alphabet", Tracked: true})
	require.NoError(t, err)
	lunch, err := base.AddTask(model.Task{Key: model.LunchTaskKey, Summary: "Lunch break", Active: true, ProjectID: project.ID})
	require.NoError(t, err)
	taskB, err := base.AddTask(model.Task{Key: "ABC-2", Summary: "second", Active: true, ProjectID: project.ID})
	require.NoError(t, err)

	gated := &gateProvider{
		MemoryDataProvider: base,
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	l := ledger.New(gated)
	state := tracking.NewState("09:00", "17:30", true)
	sched := scheduler.New(l, state, nil, lunch.ID)
	cycle := prompt.New(l, sched, gated, 10*time.Millisecond)

	cycle.Open(&taskB)

	// the timeout claims the prompt, then sits blocked inside the switch
	select {
	case <-gated.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never reached the store")
	}

	// too late: the prompt is already claimed, so this must publish nothing
	// and mutate nothing
	cycle.Cancel()
	close(gated.release)

	var r prompt.Resolution
	select {
	case r = <-cycle.Resolutions():
	case <-time.After(2 * time.Second):
		t.Fatal("no resolution published")
	}
	assert.Equal(t, prompt.ResolvedSelect, r.Kind)
	require.NotNil(t, r.Task)
	assert.Equal(t, taskB.ID, r.Task.ID)

	// exactly one resolution per prompt
	select {
	case extra := <-cycle.Resolutions():
		t.Fatalf("unexpected second resolution (%v)", extra.Kind)
	case <-time.After(50 * time.Millisecond):
	}

	// the ledger agrees with the published resolution
	active, err := l.ActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, taskB.ID, active.TaskID)
	assert.Equal(t, prompt.StateIdle, cycle.State())
}

func TestReopenRefreshesPreselection(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.cycle.Open(&f.taskA)
	f.cycle.Open(&f.taskB)

	require.NotNil(t, f.cycle.Preselected())
	assert.Equal(t, f.taskB.ID, f.cycle.Preselected().ID)
	assert.Equal(t, prompt.StateAwaitingResponse, f.cycle.State())
}
