package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/store"
)

type profileModel struct {
	store  *store.Store
	userID int64
	width  int
	height int

	rate float64

	formActive bool
	form       *huh.Form

	// Form value as pointer (survives value copies)
	formRate *string
}

func newProfileModel(s *store.Store, userID int64) profileModel {
	rate := ""
	return profileModel{
		store:    s,
		userID:   userID,
		formRate: &rate,
	}
}

func (m *profileModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type profileDataMsg struct {
	rate float64
}

func (m profileModel) refresh() tea.Cmd {
	return func() tea.Msg {
		rate, _ := m.store.HourlyRate(m.userID)
		return profileDataMsg{rate: rate}
	}
}

func (m profileModel) update(msg tea.Msg) (profileModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case profileDataMsg:
		m.rate = msg.rate
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return m.showForm()
		}
	}
	return m, nil
}

func (m profileModel) showForm() (profileModel, tea.Cmd) {
	*m.formRate = strconv.FormatFloat(m.rate, 'f', -1, 64)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hourly rate").Value(m.formRate).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || v < 0 {
						return fmt.Errorf("enter a non-negative number")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m profileModel) updateForm(msg tea.Msg) (profileModel, tea.Cmd) {
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
		return m, m.saveRate()
	}

	return m, cmd
}

func (m profileModel) saveRate() tea.Cmd {
	rateStr := strings.TrimSpace(*m.formRate)
	return func() tea.Msg {
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil || rate < 0 {
			return statusMsg{text: "Invalid hourly rate", isError: true}
		}
		if err := m.store.SetHourlyRate(m.userID, rate); err != nil {
			return errStatus(err)
		}
		return rateSavedMsg{}
	}
}

func (m profileModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Profile")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Profile")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Width(16).Render("Hourly rate"),
		highlightStyle.Render(strconv.FormatFloat(m.rate, 'f', -1, 64)),
	))
	if m.rate == 0 {
		rows = append(rows, mutedStyle.Render("  No rate configured; earnings show as 0."))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: edit"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
