package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

// SettleAction is what the settle screen does with a reservation.
type SettleAction int

const (
	SettleConfirm SettleAction = iota
	SettleCancel
)

type SettleModel struct {
	CommonModel
	svc    *reservation.Service
	action SettleAction

	form       *huh.Form
	submitting bool
	done       bool
	outcome    string
	err        error
}

func NewSettleModel(svc *reservation.Service, action SettleAction) SettleModel {
	return SettleModel{svc: svc, action: action, form: buildSettleForm(action)}
}

func (m SettleModel) Title() string {
	if m.action == SettleCancel {
		return "Cancel Reservation"
	}

	return "Confirm Payment"
}

func (m SettleModel) ShortHelp() string { return "Esc: back | Enter: next" }

func (m SettleModel) Init() tea.Cmd {
	return m.form.Init()
}

func buildSettleForm(action SettleAction) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Key("reservation").
			Title("Reservation number").
			Value(new(string)).
			Validate(func(s string) error {
				_, err := parseID(s)
				return err
			}),
	}

	if action == SettleCancel {
		fields = append(fields, huh.NewConfirm().
			Key("sure").
			Title("Release the room?").
			Description("The room becomes available again, even if the reservation was paid.").
			Affirmative("Cancel it").
			Negative("Keep it").
			Value(new(true)))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
}

func (m SettleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	if res, ok := msg.(settledMsg); ok {
		m.done = true
		m.outcome = res.outcome
		m.err = res.err

		return m, nil
	}

	if m.done || m.submitting {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.action == SettleCancel && !m.form.GetBool("sure") {
		return m, Back
	}

	m.submitting = true
	id, _ := parseID(m.form.GetString("reservation"))

	return m, m.settleCmd(id)
}

func (m SettleModel) View() string {
	if m.done {
		return resultView(m.err, m.outcome)
	}

	return panelStyle.Render(m.Title() + "\n\n" + m.form.View())
}

type settledMsg struct {
	outcome string
	err     error
}

func (m SettleModel) settleCmd(id int64) tea.Cmd {
	action := m.action

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if action == SettleCancel {
			if err := m.svc.Cancel(ctx, id); err != nil {
				return settledMsg{err: err}
			}

			return settledMsg{outcome: fmt.Sprintf("Reservation #%d canceled.", id)}
		}

		conf, err := m.svc.Confirm(ctx, id)
		if err != nil {
			return settledMsg{err: err}
		}

		return settledMsg{outcome: fmt.Sprintf("Payment for reservation #%d confirmed at %s.",
			conf.ReservationID, conf.PaidAt.Local().Format("2006-01-02 15:04"))}
	}
}
