package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

type reserveState int

const (
	reserveStateForm reserveState = iota
	reserveStateSubmitting
	reserveStateResult
)

type ReserveModel struct {
	CommonModel
	svc *reservation.Service

	state reserveState
	form  *huh.Form

	created *reservation.Reservation
	err     error
}

func NewReserveModel(svc *reservation.Service) ReserveModel {
	return ReserveModel{svc: svc, form: buildReserveForm()}
}

func (m ReserveModel) Title() string { return "New Reservation" }

func (m ReserveModel) ShortHelp() string { return "Esc: back | Enter: next" }

func (m ReserveModel) Init() tea.Cmd {
	return m.form.Init()
}

func buildReserveForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("room").
				Title("Room").
				Placeholder("101").
				Value(new(string)).
				Validate(func(s string) error {
					_, err := parseID(s)
					return err
				}),
			huh.NewInput().
				Key("check_in").
				Title("Check-in").
				Placeholder("2025-10-01").
				Value(new(string)).
				Validate(func(s string) error {
					_, err := parseDate(s)
					return err
				}),
			huh.NewInput().
				Key("check_out").
				Title("Check-out").
				Placeholder("2025-10-05").
				Value(new(string)).
				Validate(func(s string) error {
					_, err := parseDate(s)
					return err
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

// reserveParams converts completed form values, which the field validators guarantee parse.
func reserveParams(room, checkIn, checkOut string) reservation.CreateParams {
	id, _ := parseID(room)
	in, _ := parseDate(checkIn)
	out, _ := parseDate(checkOut)

	return reservation.CreateParams{RoomID: id, CheckIn: in, CheckOut: out}
}

func (m ReserveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	if res, ok := msg.(reservedMsg); ok {
		m.state = reserveStateResult
		m.created = res.res
		m.err = res.err

		return m, nil
	}

	if m.state != reserveStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = reserveStateSubmitting
	params := reserveParams(m.form.GetString("room"), m.form.GetString("check_in"), m.form.GetString("check_out"))

	return m, m.createCmd(params)
}

func (m ReserveModel) View() string {
	if m.state == reserveStateSubmitting {
		return panelStyle.Render("Reserving room...")
	}

	if m.state == reserveStateResult {
		ok := ""
		if m.created != nil {
			ok = fmt.Sprintf("Reservation #%d created for room %d (%s to %s). Awaiting payment.",
				m.created.ID, m.created.RoomID, FormatDate(m.created.CheckIn), FormatDate(m.created.CheckOut))
		}

		return resultView(m.err, ok)
	}

	return panelStyle.Render(m.form.View())
}

type reservedMsg struct {
	res *reservation.Reservation
	err error
}

func (m ReserveModel) createCmd(params reservation.CreateParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.svc.Create(ctx, params)

		return reservedMsg{res: res, err: err}
	}
}
