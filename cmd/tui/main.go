package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/innkeeper/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/innkeeper/internal/config"
	"github.com/MrJamesThe3rd/innkeeper/internal/database"
	"github.com/MrJamesThe3rd/innkeeper/internal/expiry"
	"github.com/MrJamesThe3rd/innkeeper/internal/inventory"
	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
	"github.com/MrJamesThe3rd/innkeeper/internal/reservation/store"
)

type model struct {
	reservationService *reservation.Service
	inventoryService   *inventory.Service
	sweeper            *expiry.Sweeper

	currentView View
	active      view.Screen
}

type View int

const (
	ViewMenu View = iota
	ViewRooms
	ViewReserve
	ViewConfirm
	ViewCancel
	ViewImport
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString(), database.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	rs := store.New(db)
	resSvc := reservation.NewService(rs)

	return model{
		reservationService: resSvc,
		inventoryService:   inventory.NewService(rs),
		sweeper:            expiry.NewSweeper(resSvc, cfg.Reservation.PaymentWindow),
		currentView:        ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) open(v View) (tea.Model, tea.Cmd) {
	switch v {
	case ViewRooms:
		m.active = view.NewRoomsModel(m.reservationService, m.sweeper)
	case ViewReserve:
		m.active = view.NewReserveModel(m.reservationService)
	case ViewConfirm:
		m.active = view.NewSettleModel(m.reservationService, view.SettleConfirm)
	case ViewCancel:
		m.active = view.NewSettleModel(m.reservationService, view.SettleCancel)
	case ViewImport:
		m.active = view.NewImportModel(m.inventoryService)
	default:
		return m, nil
	}

	m.currentView = v

	return m, m.active.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				return m.open(ViewRooms)
			case "2":
				return m.open(ViewReserve)
			case "3":
				return m.open(ViewConfirm)
			case "4":
				return m.open(ViewCancel)
			case "5":
				return m.open(ViewImport)
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		m.active = nil

		return m, nil
	}

	if m.active == nil {
		return m, nil
	}

	updated, cmd := m.active.Update(msg)
	if screen, ok := updated.(view.Screen); ok {
		m.active = screen
	}

	return m, cmd
}

func (m model) View() string {
	if m.currentView == ViewMenu || m.active == nil {
		return lipgloss.NewStyle().Padding(2).Render(
			"Innkeeper\n\n" +
				"1. Rooms\n" +
				"2. New Reservation\n" +
				"3. Confirm Payment\n" +
				"4. Cancel Reservation\n" +
				"5. Import Rooms\n\n" +
				"q. Quit",
		)
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Render(m.active.Title())
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.active.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, m.active.View(), help)
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
