package shell

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/model"
	"github.com/lhartmann/worklog/internal/prompt"
	"github.com/lhartmann/worklog/internal/scheduler"
)

type (
	schedEventMsg scheduler.Event
	resolutionMsg prompt.Resolution
	tickMsg       time.Time
	openPromptMsg struct{}
)

// after a lunch break ends or tracking starts for the day the prompt opens
// automatically after this short delay
const autoPromptDelay = 3 * time.Second

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func delayedPromptCmd() tea.Cmd {
	return tea.Tick(autoPromptDelay, func(time.Time) tea.Msg {
		return openPromptMsg{}
	})
}

type uiMode int

const (
	modeStatus uiMode = iota
	modePick
	modeLunch
	modeManual
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	lunchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5A56E0")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#909090")).
			Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5A56E0")).
			Padding(1, 2)
)

type trackerModel struct {
	shell *Shell

	mode   uiMode
	width  int
	height int

	tasks    []model.Task
	projects []model.Project

	cursor         int
	projectCursor  int
	pickingProject bool
	manualText     string
	lunchMinutes   int

	promptOpened time.Time
	note         string
}

func newTrackerModel(s *Shell) trackerModel {
	return trackerModel{
		shell:        s,
		lunchMinutes: s.Config.Tracking.LunchDurationMinutes,
	}
}

func (m trackerModel) Init() tea.Cmd {
	return tickCmd()
}

func (m trackerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tickCmd()

	case openPromptMsg:
		return m.openPrompt(), nil

	case schedEventMsg:
		return m.handleSchedEvent(scheduler.Event(msg))

	case resolutionMsg:
		return m.handleResolution(prompt.Resolution(msg)), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m trackerModel) handleSchedEvent(event scheduler.Event) (tea.Model, tea.Cmd) {
	switch event.Kind {
	case scheduler.EventPromptDue:
		return m.openPrompt(), nil
	case scheduler.EventTrackingStarted:
		m.note = "tracking hours started"
		return m, delayedPromptCmd()
	case scheduler.EventLunchEnded:
		m.note = "lunch break over"
		return m, delayedPromptCmd()
	case scheduler.EventTrackingEnded:
		m.note = "tracking hours ended, open entry stopped"
	}
	return m, nil
}

func (m trackerModel) handleResolution(r prompt.Resolution) trackerModel {
	m.mode = modeStatus
	switch r.Kind {
	case prompt.ResolvedSelect, prompt.ResolvedManual:
		if r.Task != nil {
			m.note = "tracking " + r.Task.Key
		}
	case prompt.ResolvedLunch:
		m.note = "enjoy your lunch"
	case prompt.ResolvedCancel:
		m.note = "prompt dismissed"
	case prompt.ResolvedTimeout:
		m.note = "prompt timed out"
	}
	return m
}

func (m trackerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key := msg.String(); key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeStatus:
		return m.handleStatusKey(msg)
	case modePick:
		return m.handlePickKey(msg)
	case modeLunch:
		return m.handleLunchKey(msg)
	case modeManual:
		return m.handleManualKey(msg)
	}
	return m, nil
}

func (m trackerModel) handleStatusKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "p":
		return m.openPrompt(), nil
	case "l":
		m.mode = modeLunch
		m.lunchMinutes = m.shell.Config.Tracking.LunchDurationMinutes
	case "e":
		m.shell.Scheduler.EndLunchBreak()
	case "s":
		if err := m.shell.Ledger.Stop(); err != nil {
			m.note = err.Error()
		} else {
			m.note = "tracking stopped"
		}
	case "r":
		shell := m.shell
		return m, func() tea.Msg {
			shell.refresh()
			return tickMsg(time.Now())
		}
	}
	return m, nil
}

func (m trackerModel) handlePickKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.tasks) == 0 {
			break
		}
		if err := m.shell.Cycle.SelectTask(m.tasks[m.cursor].ID); err != nil {
			m.note = err.Error()
		}
	case "l":
		m.mode = modeLunch
		m.lunchMinutes = m.shell.Config.Tracking.LunchDurationMinutes
	case "m":
		m.mode = modeManual
		m.pickingProject = true
		m.projectCursor = 0
		m.manualText = ""
	case "esc":
		m.shell.Cycle.Cancel()
	}
	return m, nil
}

func (m trackerModel) handleLunchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "+":
		m.lunchMinutes += 5
	case "down", "-":
		if m.lunchMinutes > 5 {
			m.lunchMinutes -= 5
		}
	case "enter":
		if err := m.shell.Cycle.StartLunch(m.lunchMinutes); err != nil {
			m.note = err.Error()
			break
		}
		// resolution arrives asynchronously; leave the mode right away in
		// case the prompt was not open
		m.mode = modeStatus
	case "esc":
		if m.shell.Cycle.State() == prompt.StateAwaitingResponse {
			m.mode = modePick
		} else {
			m.mode = modeStatus
		}
	}
	return m, nil
}

func (m trackerModel) handleManualKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pickingProject {
		switch msg.String() {
		case "up", "k":
			if m.projectCursor > 0 {
				m.projectCursor--
			}
		case "down", "j":
			if m.projectCursor < len(m.projects)-1 {
				m.projectCursor++
			}
		case "enter":
			if len(m.projects) > 0 {
				m.pickingProject = false
			}
		case "esc":
			m.mode = modePick
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		if len(m.projects) == 0 {
			break
		}
		err := m.shell.Cycle.EnterManualTask(m.projects[m.projectCursor].ID, m.manualText)
		if err != nil {
			m.note = err.Error()
		}
	case tea.KeyEsc:
		m.pickingProject = true
	case tea.KeyBackspace:
		if len(m.manualText) > 0 {
			runes := []rune(m.manualText)
			m.manualText = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		m.manualText += " "
	case tea.KeyRunes:
		m.manualText += string(msg.Runes)
	}
	return m, nil
}

// openPrompt loads the pickable tasks and projects, opens the cycle with the
// active entry's task pre-selected, and switches to the pick view.
func (m trackerModel) openPrompt() trackerModel {
	m.tasks = m.loadTasks()
	m.projects = m.loadProjects()

	preselected := m.activeTask()
	m.shell.Cycle.Open(preselected)

	m.cursor = 0
	if preselected != nil {
		for i := range m.tasks {
			if m.tasks[i].ID == preselected.ID {
				m.cursor = i
				break
			}
		}
	}

	m.mode = modePick
	m.promptOpened = time.Now()
	return m
}

func (m *trackerModel) loadTasks() []model.Task {
	all, err := m.shell.Provider.Tasks()
	if err != nil {
		log.Error().Err(err).Msg("could not list tasks")
		return nil
	}
	result := make([]model.Task, 0, len(all))
	for _, t := range all {
		if t.Selectable() {
			result = append(result, t)
		}
	}
	return result
}

func (m *trackerModel) loadProjects() []model.Project {
	all, err := m.shell.Provider.Projects()
	if err != nil {
		log.Error().Err(err).Msg("could not list projects")
		return nil
	}
	result := make([]model.Project, 0, len(all))
	for _, p := range all {
		if p.Selectable() {
			result = append(result, p)
		}
	}
	return result
}

func (m *trackerModel) activeTask() *model.Task {
	active, err := m.shell.Ledger.ActiveEntry()
	if err != nil || active == nil {
		return nil
	}
	task, err := m.shell.Provider.GetTask(active.TaskID)
	if err != nil {
		return nil
	}
	return &task
}

func (m trackerModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("worklog") + "\n\n")
	b.WriteString(m.statusView())

	switch m.mode {
	case modeStatus:
		b.WriteString(helpStyle.Render("p: prompt  l: lunch  e: end lunch  s: stop  r: refresh  q: quit"))
	case modePick:
		b.WriteString(m.pickView())
	case modeLunch:
		b.WriteString(m.lunchView())
	case modeManual:
		b.WriteString(m.manualView())
	}

	if m.note != "" {
		b.WriteString("\n" + noteStyle.Render(m.note))
	}
	return b.String()
}

func (m trackerModel) statusView() string {
	now := time.Now()

	var statusStr string
	switch m.shell.State.Status(now) {
	case model.StatusActive:
		statusStr = activeStyle.Render("ACTIVE")
	case model.StatusOnLunch:
		statusStr = lunchStyle.Render("ON LUNCH")
	default:
		statusStr = inactiveStyle.Render("INACTIVE")
	}

	lines := []string{"status: " + statusStr}

	if task := m.activeTask(); task != nil {
		lines = append(lines, fmt.Sprintf("tracking: %s  %s", task.Key, task.Summary))
	} else {
		lines = append(lines, "tracking: (nothing)")
	}

	if onLunch, remaining := m.shell.Scheduler.OnLunchBreak(); onLunch {
		lines = append(lines, fmt.Sprintf("lunch remaining: %s", remaining.Round(time.Second)))
	}

	if daySummary, err := m.shell.Summaries.ForDay(model.DateFromGotime(now)); err == nil {
		lines = append(lines, fmt.Sprintf("today: %s", daySummary.Total.Round(time.Minute)))
	}

	return boxStyle.Render(strings.Join(lines, "\n")) + "\n\n"
}

func (m trackerModel) pickView() string {
	var b strings.Builder
	b.WriteString("what are you working on?")
	if remaining := m.promptRemaining(); remaining > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  (%ds)", int(remaining.Seconds()))))
	}
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(noteStyle.Render("no tasks available, refresh from JIRA first") + "\n")
	}
	for i, task := range m.tasks {
		line := fmt.Sprintf("%s  %s", task.Key, task.Summary)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("enter: select  l: lunch  m: manual task  esc: dismiss"))
	return b.String()
}

func (m trackerModel) lunchView() string {
	return fmt.Sprintf("lunch break: %d minutes\n\n", m.lunchMinutes) +
		helpStyle.Render("up/down: adjust  enter: start  esc: back")
}

func (m trackerModel) manualView() string {
	var b strings.Builder
	if m.pickingProject {
		b.WriteString("manual task: pick a project\n\n")
		if len(m.projects) == 0 {
			b.WriteString(noteStyle.Render("no projects available") + "\n")
		}
		for i, project := range m.projects {
			line := fmt.Sprintf("%s  %s", project.Code, project.Name)
			if i == m.projectCursor {
				b.WriteString(cursorStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
		b.WriteString("\n" + helpStyle.Render("enter: select  esc: back"))
	} else {
		b.WriteString(fmt.Sprintf("manual task under %s:\n\n", m.projects[m.projectCursor].Code))
		b.WriteString("> " + m.manualText + "_\n")
		b.WriteString("\n" + helpStyle.Render("enter: confirm  esc: back"))
	}
	return b.String()
}

func (m trackerModel) promptRemaining() time.Duration {
	if m.shell.Cycle.State() != prompt.StateAwaitingResponse {
		return 0
	}
	remaining := m.shell.Cycle.Timeout - time.Since(m.promptOpened)
	if remaining < 0 {
		return 0
	}
	return remaining
}
