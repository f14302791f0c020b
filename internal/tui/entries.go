package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

const entryTimeLayout = "2006-01-02 15:04"

type entriesModel struct {
	store  *store.Store
	userID int64
	width  int
	height int

	entries     []store.TimeEntry
	tasks       []store.Task
	taskNames   map[int64]string
	rate        float64
	monthOffset int // months back from the current month, 0 = current
	cursor      int

	todaySeconds  int64
	todayEarnings int64
	monthSeconds  int64
	monthEarnings int64

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formStart  *string
	formEnd    *string
	formTaskID *string

	editingID int64 // entry ID being edited, 0 = creating
}

func newEntriesModel(s *store.Store, userID int64) entriesModel {
	start, end, taskID := "", "", ""
	return entriesModel{
		store:      s,
		userID:     userID,
		formStart:  &start,
		formEnd:    &end,
		formTaskID: &taskID,
	}
}

func (m *entriesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m entriesModel) month() time.Time {
	return tracker.MonthStart(time.Now()).AddDate(0, -m.monthOffset, 0)
}

type entriesDataMsg struct {
	entries       []store.TimeEntry
	tasks         []store.Task
	rate          float64
	todaySeconds  int64
	todayEarnings int64
	monthSeconds  int64
	monthEarnings int64
}

// refresh loads the selected month's entries and recomputes the summary
// figures from scratch; nothing is cached across mutations.
func (m entriesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		monthStart := m.month()
		monthEnd := monthStart.AddDate(0, 1, 0)

		entries, _ := m.store.ListEntries(store.EntryFilter{
			UserID: m.userID,
			From:   &monthStart,
			To:     &monthEnd,
		})
		tasks, _ := m.store.ListTasks(m.userID)
		rate, _ := m.store.HourlyRate(m.userID)

		now := time.Now()
		windowEnd := now.Add(time.Second)
		monthSeconds := tracker.SecondsInWindow(entries, monthStart, monthEnd, now)
		todaySeconds := tracker.SecondsInWindow(entries, tracker.DayStart(now), windowEnd, now)

		return entriesDataMsg{
			entries:       entries,
			tasks:         tasks,
			rate:          rate,
			todaySeconds:  todaySeconds,
			todayEarnings: tracker.Earnings(todaySeconds, rate),
			monthSeconds:  monthSeconds,
			monthEarnings: tracker.Earnings(monthSeconds, rate),
		}
	}
}

func (m entriesModel) update(msg tea.Msg) (entriesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case entriesDataMsg:
		m.entries = msg.entries
		m.tasks = msg.tasks
		m.rate = msg.rate
		m.todaySeconds = msg.todaySeconds
		m.todayEarnings = msg.todayEarnings
		m.monthSeconds = msg.monthSeconds
		m.monthEarnings = msg.monthEarnings
		m.taskNames = make(map[int64]string, len(m.tasks))
		for _, t := range m.tasks {
			m.taskNames[t.ID] = t.Name
		}
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Left):
			m.monthOffset++
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			if m.monthOffset > 0 {
				m.monthOffset--
			}
			return m, m.refresh()
		case key.Matches(msg, keys.New):
			return m.showForm(nil)
		case key.Matches(msg, keys.Edit):
			if m.cursor < len(m.entries) {
				e := m.entries[m.cursor]
				if e.Open() {
					return m, func() tea.Msg {
						return statusMsg{text: "Stop the running session before editing it", isError: true}
					}
				}
				return m.showForm(&e)
			}
		case key.Matches(msg, keys.Delete):
			if m.cursor < len(m.entries) {
				return m.deleteEntry(m.entries[m.cursor].ID)
			}
		}
	}
	return m, nil
}

func (m entriesModel) showForm(entry *store.TimeEntry) (entriesModel, tea.Cmd) {
	if len(m.tasks) == 0 {
		return m, func() tea.Msg {
			return statusMsg{text: "No tasks yet. Press 2 to go to Tasks and create one.", isError: true}
		}
	}

	if entry != nil {
		m.editingID = entry.ID
		*m.formStart = entry.StartTime.Local().Format(entryTimeLayout)
		*m.formEnd = ""
		if entry.EndTime != nil {
			*m.formEnd = entry.EndTime.Local().Format(entryTimeLayout)
		}
		*m.formTaskID = ""
		if entry.TaskID != nil {
			*m.formTaskID = fmt.Sprintf("%d", *entry.TaskID)
		}
	} else {
		m.editingID = 0
		now := time.Now()
		*m.formStart = now.Add(-time.Hour).Format(entryTimeLayout)
		*m.formEnd = now.Format(entryTimeLayout)
		*m.formTaskID = fmt.Sprintf("%d", m.tasks[0].ID)
	}

	var options []huh.Option[string]
	for _, t := range m.tasks {
		options = append(options, huh.NewOption(t.Name, fmt.Sprintf("%d", t.ID)))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Task").Options(options...).Value(m.formTaskID),
			huh.NewInput().Title("Start (YYYY-MM-DD HH:MM)").Value(m.formStart),
			huh.NewInput().Title("End (YYYY-MM-DD HH:MM)").Value(m.formEnd),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m entriesModel) updateForm(msg tea.Msg) (entriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, m.saveEntry()
	}

	return m, cmd
}

// saveEntry validates the form and hands the times to the engine, which
// recomputes the duration; it is never taken from user input.
func (m entriesModel) saveEntry() tea.Cmd {
	startStr, endStr, taskStr := *m.formStart, *m.formEnd, *m.formTaskID
	editingID := m.editingID

	return func() tea.Msg {
		var taskID int64
		fmt.Sscanf(taskStr, "%d", &taskID)

		start, err := time.ParseInLocation(entryTimeLayout, strings.TrimSpace(startStr), time.Local)
		if err != nil {
			return statusMsg{text: "Invalid start time", isError: true}
		}
		end, err := time.ParseInLocation(entryTimeLayout, strings.TrimSpace(endStr), time.Local)
		if err != nil {
			return statusMsg{text: "Invalid end time", isError: true}
		}

		if editingID != 0 {
			if err := tracker.EditEntry(m.store, editingID, taskID, start, end); err != nil {
				return errStatus(err)
			}
		} else {
			if _, err := tracker.AddEntry(m.store, m.userID, taskID, start, end); err != nil {
				return errStatus(err)
			}
		}
		return statusMsg{text: "Entry saved"}
	}
}

func (m entriesModel) deleteEntry(id int64) (entriesModel, tea.Cmd) {
	return m, func() tea.Msg {
		if err := m.store.DeleteEntry(id); err != nil {
			return errStatus(err)
		}
		return statusMsg{text: "Entry deleted"}
	}
}

func (m entriesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Entry")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Entries"), "  ",
		mutedStyle.Render(m.month().Format("January 2006")),
	)

	summary := fmt.Sprintf("  Today %s (%s)    Month %s (%s)",
		highlightStyle.Render(formatShort(m.todaySeconds)),
		successStyle.Render(formatMoney(m.todayEarnings)),
		highlightStyle.Render(formatShort(m.monthSeconds)),
		successStyle.Render(formatMoney(m.monthEarnings)),
	)

	var rows []string
	rows = append(rows, header)
	rows = append(rows, summary)
	rows = append(rows, "")

	if len(m.entries) == 0 {
		rows = append(rows, mutedStyle.Render("No entries this month"))
	} else {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf(
			"  %-20s %-12s %-12s %10s %10s", "Task", "Start", "End", "Duration", "Earnings")))
		now := time.Now()
		for i, e := range m.entries {
			cursor := "  "
			style := normalItemStyle
			if i == m.cursor {
				cursor = "> "
				style = selectedItemStyle
			}

			name := "Unknown"
			if e.TaskID != nil {
				if n, ok := m.taskNames[*e.TaskID]; ok {
					name = n
				}
			}

			// A running entry shows its live elapsed time and earnings.
			endStr := "—"
			if e.EndTime != nil {
				endStr = e.EndTime.Local().Format("02.01. 15:04")
			}
			secs := liveSeconds(&e, now)

			rows = append(rows, style.Render(fmt.Sprintf("%s%-20s %-12s %-12s %10s %10s",
				cursor,
				truncate(name, 20),
				e.StartTime.Local().Format("02.01. 15:04"),
				endStr,
				formatShort(secs),
				formatMoney(tracker.Earnings(secs, m.rate)),
			)))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: add  e: edit  d: delete  ←/→: month"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
