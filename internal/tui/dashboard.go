package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

type dashboardModel struct {
	store  *store.Store
	ctrl   *tracker.Controller
	userID int64
	width  int
	height int

	tasks         []store.Task
	totals        tracker.Totals
	dayTotals     []store.DayTotal
	recentEntries []store.TimeEntry
	taskNames     map[int64]string

	chart barchart.Model

	// Task picker state
	picking      bool
	pickerCursor int
}

func newDashboardModel(s *store.Store, ctrl *tracker.Controller, userID int64) dashboardModel {
	return dashboardModel{
		store:  s,
		ctrl:   ctrl,
		userID: userID,
		chart:  barchart.New(60, 10),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) runningTaskName() string {
	if !d.ctrl.Running() {
		return ""
	}
	if name, ok := d.taskNames[d.ctrl.TaskID()]; ok {
		return name
	}
	return "Unknown"
}

type dashboardDataMsg struct {
	tasks         []store.Task
	totals        tracker.Totals
	dayTotals     []store.DayTotal
	recentEntries []store.TimeEntry
}

// loadData refreshes every aggregate the dashboard shows. It is re-issued
// after each successful mutation so stale numbers are never left on screen.
func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		monthStart := tracker.MonthStart(now)

		entries, _ := d.store.ListEntries(store.EntryFilter{UserID: d.userID, From: &monthStart})
		rate, _ := d.store.HourlyRate(d.userID)
		tasks, _ := d.store.ListTasks(d.userID)
		recent, _ := d.store.ListEntries(store.EntryFilter{UserID: d.userID, Limit: 5})

		// Bucketed client-side so the bars follow local day boundaries.
		weekAgo := tracker.DayStart(now).AddDate(0, 0, -6)
		chartEntries, _ := d.store.ListEntries(store.EntryFilter{UserID: d.userID, From: &weekAgo})
		dayTotals := tracker.DayTotals(chartEntries, 7, now)

		return dashboardDataMsg{
			tasks:         tasks,
			totals:        tracker.Aggregate(entries, rate, now),
			dayTotals:     dayTotals,
			recentEntries: recent,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.tasks = msg.tasks
		d.totals = msg.totals
		d.dayTotals = msg.dayTotals
		d.recentEntries = msg.recentEntries
		d.taskNames = make(map[int64]string, len(d.tasks))
		for _, t := range d.tasks {
			d.taskNames[t.ID] = t.Name
		}
		d.buildChart()
		return d, nil

	case tickMsg:
		// Re-render only; elapsed time is derived from the wall clock.
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if d.ctrl.Running() {
				return d, nil
			}
			if len(d.tasks) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No tasks yet. Press 2 to go to Tasks and create one.", isError: true}
				}
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopSession()
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.pickerCursor > 0 {
				d.pickerCursor--
			}
		case key.Matches(msg, keys.Down):
			if d.pickerCursor < len(d.tasks)-1 {
				d.pickerCursor++
			}
		case key.Matches(msg, keys.Enter):
			task := d.tasks[d.pickerCursor]
			d.picking = false
			return d.startSession(task.ID)
		case key.Matches(msg, keys.Back):
			d.picking = false
		}
	}
	return d, nil
}

func (d dashboardModel) startSession(taskID int64) (dashboardModel, tea.Cmd) {
	entry, err := d.ctrl.Start(taskID)
	if err != nil {
		return d, tea.Batch(
			d.loadData(),
			func() tea.Msg { return errStatus(err) },
		)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return sessionStartedMsg{entry: entry} },
	)
}

func (d dashboardModel) stopSession() (dashboardModel, tea.Cmd) {
	entry, err := d.ctrl.Stop()
	if err != nil {
		return d, tea.Batch(
			d.loadData(),
			func() tea.Msg { return errStatus(err) },
		)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return sessionStoppedMsg{entry: entry} },
	)
}

func (d *dashboardModel) buildChart() {
	chartWidth := d.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	d.chart = barchart.New(chartWidth, 10)

	totalsByDate := make(map[string]int64, len(d.dayTotals))
	for _, dt := range d.dayTotals {
		totalsByDate[dt.Date] = dt.TotalSeconds
	}

	today := tracker.DayStart(time.Now())
	var bars []barchart.BarData
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		hours := float64(totalsByDate[day.Format("2006-01-02")]) / 3600.0
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if hours == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label:  day.Format("Mon 02"),
			Values: []barchart.BarValue{{Name: "worked", Value: hours, Style: style}},
		})
	}

	d.chart.PushAll(bars)
	d.chart.Draw()
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	timerPanel := d.renderTimerPanel(contentWidth)
	earningsPanel := d.renderEarningsPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderTaskPicker(contentWidth)
	} else {
		bottomPanel = d.renderChartPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, earningsPanel, bottomPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.ctrl.Running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(d.ctrl.Elapsed()))
		indicator := successStyle.Render("●  RUNNING")
		taskLine := highlightStyle.Render(d.runningTaskName())

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, taskLine)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("Press s to start tracking")

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderEarningsPanel(w int) string {
	title := titleStyle.Render("Totals")

	row := fmt.Sprintf("  Today %s (%s)    Month %s (%s)",
		highlightStyle.Render(formatShort(d.totals.TodaySeconds)),
		successStyle.Render(formatMoney(d.totals.TodayEarnings)),
		highlightStyle.Render(formatShort(d.totals.MonthSeconds)),
		successStyle.Render(formatMoney(d.totals.MonthEarnings)),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, row))
}

func (d dashboardModel) renderChartPanel(w int) string {
	title := titleStyle.Render("Last 7 days")
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", d.chart.View()),
	)
}

func (d dashboardModel) renderTaskPicker(w int) string {
	title := titleStyle.Render("Select Task")

	var rows []string
	rows = append(rows, title)
	for i, t := range d.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := t.Name
		if t.Description != "" {
			line += mutedStyle.Render("  " + t.Description)
		}
		rows = append(rows, style.Render(cursor+line))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: start  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
