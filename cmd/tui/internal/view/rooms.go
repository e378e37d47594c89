package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/innkeeper/internal/expiry"
	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

type RoomsModel struct {
	CommonModel
	svc     *reservation.Service
	sweeper *expiry.Sweeper

	table   table.Model
	rooms   []*reservation.Room
	loading bool
	err     error
	status  string
}

func NewRoomsModel(svc *reservation.Service, sweeper *expiry.Sweeper) RoomsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Room", Width: 10},
			{Title: "Status", Width: 18},
			{Title: "Since", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return RoomsModel{svc: svc, sweeper: sweeper, table: t, loading: true}
}

func (m RoomsModel) Title() string { return "Rooms" }

func (m RoomsModel) ShortHelp() string {
	return "Esc: back | r: refresh | x: release expired holds"
}

func (m RoomsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RoomsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case roomsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.rooms = msg.rooms
		m.refreshTable()

		return m, nil

	case sweepDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Sweep failed: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Released %d expired reservations.", msg.released)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			m.status = ""

			return m, m.loadCmd()
		case "x":
			return m, m.sweepCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *RoomsModel) refreshTable() {
	rows := make([]table.Row, len(m.rooms))
	for i, r := range m.rooms {
		rows[i] = table.Row{strconv.FormatInt(r.ID, 10), statusLabel(r.Status), FormatDate(r.CreatedAt)}
	}

	m.table.SetRows(rows)
}

func statusLabel(s reservation.RoomStatus) string {
	switch s {
	case reservation.RoomAvailable:
		return "Available"
	case reservation.RoomPendingPayment:
		return "Awaiting payment"
	case reservation.RoomPaid:
		return "Paid"
	}

	return s.String()
}

func (m RoomsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading rooms...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	content := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if m.status == "" {
		return panelStyle.Render(content)
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, content, "", m.status))
}

type roomsLoadedMsg struct {
	rooms []*reservation.Room
	err   error
}

type sweepDoneMsg struct {
	released int
	err      error
}

func (m RoomsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rooms, err := m.svc.ListRooms(ctx)

		return roomsLoadedMsg{rooms: rooms, err: err}
	}
}

func (m RoomsModel) sweepCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		released, err := m.sweeper.Run(ctx)

		return sweepDoneMsg{released: released, err: err}
	}
}
