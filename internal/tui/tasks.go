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

type tasksModel struct {
	store  *store.Store
	userID int64
	width  int
	height int

	tasks  []store.Task
	times  map[int64]store.TaskTimes
	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName        *string
	formDescription *string

	editingID int64 // task ID being edited, 0 = creating
}

func newTasksModel(s *store.Store, userID int64) tasksModel {
	name, desc := "", ""
	return tasksModel{
		store:           s,
		userID:          userID,
		formName:        &name,
		formDescription: &desc,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tasksDataMsg struct {
	tasks []store.Task
	times map[int64]store.TaskTimes
}

// refresh reloads tasks enriched with their today/month worked time. The
// per-task rollup degrades to zeros on failure instead of hiding the list.
func (m tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, _ := m.store.ListTasks(m.userID)

		now := time.Now()
		times := make(map[int64]store.TaskTimes, len(tasks))
		for _, t := range tasks {
			times[t.ID] = tracker.FetchTaskSeconds(m.store, t.ID, m.userID, now)
		}
		return tasksDataMsg{tasks: tasks, times: times}
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.tasks = msg.tasks
		m.times = msg.times
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showForm(nil)
		case key.Matches(msg, keys.Edit):
			if m.cursor < len(m.tasks) {
				return m.showForm(&m.tasks[m.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if m.cursor < len(m.tasks) {
				return m.deleteTask(m.tasks[m.cursor].ID)
			}
		}
	}
	return m, nil
}

func (m tasksModel) showForm(task *store.Task) (tasksModel, tea.Cmd) {
	if task != nil {
		m.editingID = task.ID
		*m.formName = task.Name
		*m.formDescription = task.Description
	} else {
		m.editingID = 0
		*m.formName = ""
		*m.formDescription = ""
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(m.formName),
			huh.NewText().Title("Description").Lines(3).Value(m.formDescription),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
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
		return m, m.saveTask()
	}

	return m, cmd
}

func (m tasksModel) saveTask() tea.Cmd {
	name := strings.TrimSpace(*m.formName)
	desc := strings.TrimSpace(*m.formDescription)
	editingID := m.editingID

	return func() tea.Msg {
		if name == "" {
			return statusMsg{text: "Task name is required", isError: true}
		}
		if editingID != 0 {
			if err := m.store.UpdateTask(editingID, name, desc); err != nil {
				return errStatus(err)
			}
		} else {
			if _, err := m.store.CreateTask(m.userID, name, desc); err != nil {
				return errStatus(err)
			}
		}
		return statusMsg{text: "Task saved"}
	}
}

func (m tasksModel) deleteTask(id int64) (tasksModel, tea.Cmd) {
	return m, func() tea.Msg {
		if err := m.store.DeleteTask(id); err != nil {
			return errStatus(err)
		}
		return statusMsg{text: "Task deleted"}
	}
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Task")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Tasks")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if len(m.tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks yet. Press n to create one."))
	}

	for i, t := range m.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		tt := m.times[t.ID]
		row := fmt.Sprintf("%s%-24s today %-8s month %-8s",
			cursor, truncate(t.Name, 24), formatShort(tt.Daily), formatShort(tt.Monthly))
		rows = append(rows, style.Render(row))
		if t.Description != "" && i == m.cursor {
			rows = append(rows, mutedStyle.Render("    "+t.Description))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
