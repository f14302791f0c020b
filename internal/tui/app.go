package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/export"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	userID int64
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	tasks     tasksModel
	entries   entriesModel
	profile   profileModel

	help   help.Model
	status string
}

// NewApp builds the root model. The session controller recovers any open
// entry left behind by a previous process before the first frame renders.
func NewApp(s *store.Store, userID int64) App {
	h := help.New()
	h.ShowAll = false

	ctrl := tracker.NewController(s, userID)

	app := App{
		store:     s,
		userID:    userID,
		dashboard: newDashboardModel(s, ctrl, userID),
		tasks:     newTasksModel(s, userID),
		entries:   newEntriesModel(s, userID),
		profile:   newProfileModel(s, userID),
		help:      h,
	}
	if err := ctrl.Recover(); err != nil {
		app.status = fmt.Sprintf("Recovery failed: %v", err)
	}
	return app
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.entries.setSize(a.width, contentHeight)
		a.profile.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewEntries
			return a, a.entries.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewProfile
			return a, a.profile.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			return a, nil
		}
		// A successful mutation invalidates every cached aggregate.
		return a, a.refreshAll()

	case sessionStartedMsg:
		a.status = "Session started"
		return a, a.refreshAll()

	case sessionStoppedMsg:
		a.status = "Session stopped"
		return a, a.refreshAll()

	case rateSavedMsg:
		a.status = "Hourly rate saved"
		return a, a.refreshAll()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewEntries:
		a.entries, cmd = a.entries.update(msg)
	case viewProfile:
		a.profile, cmd = a.profile.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.picking
	case viewTasks:
		return a.tasks.formActive
	case viewEntries:
		return a.entries.formActive
	case viewProfile:
		return a.profile.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewEntries:
		return a.entries.refresh()
	case viewProfile:
		return a.profile.refresh()
	}
	return nil
}

// refreshAll recomputes the dashboard aggregates plus whichever view is
// active, so no surface keeps showing a stale number after a mutation.
func (a App) refreshAll() tea.Cmd {
	if a.activeView == viewDashboard {
		return a.dashboard.loadData()
	}
	return tea.Batch(a.dashboard.loadData(), a.refreshCurrentView())
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTasks:
		content = a.tasks.view()
	case viewEntries:
		content = a.entries.view()
	case viewProfile:
		content = a.profile.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("worklog")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Session indicator in footer
	timerInfo := ""
	if a.dashboard.ctrl.Running() {
		timerInfo = successStyle.Render(" ● " + formatDuration(a.dashboard.ctrl.Elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	formats := []string{"CSV", "JSON", "PDF report (this month)"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 2 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		filter := store.EntryFilter{UserID: a.userID}
		monthStart := tracker.MonthStart(time.Now())
		if format == 2 {
			monthEnd := monthStart.AddDate(0, 1, 0)
			filter.From = &monthStart
			filter.To = &monthEnd
		}

		entries, err := a.store.ListEntries(filter)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		rate, _ := a.store.HourlyRate(a.userID)

		tasks := make(map[int64]*store.Task)
		tlist, _ := a.store.ListTasks(a.userID)
		for i := range tlist {
			tasks[tlist[i].ID] = &tlist[i]
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		switch format {
		case 0:
			path = filepath.Join(home, fmt.Sprintf("worklog-export-%s.csv", dateStr))
			if err := export.ToCSV(entries, tasks, rate, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		case 1:
			path = filepath.Join(home, fmt.Sprintf("worklog-export-%s.json", dateStr))
			if err := export.ToJSON(entries, tasks, rate, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		default:
			path = filepath.Join(home, fmt.Sprintf("worklog-report-%s.pdf", monthStart.Format("2006-01")))
			if err := export.WorkReport(entries, tasks, rate, monthStart, path); err != nil {
				return statusMsg{text: fmt.Sprintf("PDF error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
