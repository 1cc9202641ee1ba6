package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jaylorddeguzman/importer/internal/tui/views"
)

// App is the root bubbletea model. It centres the dashboard in the terminal.
type App struct {
	width     int
	height    int
	dashboard views.DashboardModel
}

func NewApp(target string, interval time.Duration) App {
	return App{
		dashboard: views.NewDashboardModel(NewClient(target), target, interval),
	}
}

func (a App) Init() tea.Cmd {
	return a.dashboard.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = ws.Width
		a.height = ws.Height
	}

	m, cmd := a.dashboard.Update(msg)
	a.dashboard = m.(views.DashboardModel)
	return a, cmd
}

func (a App) View() string {
	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Top,
		a.dashboard.View(),
	)
}

// Run starts the dashboard against target and remembers it for next time.
func Run(target string, interval time.Duration) error {
	SaveTarget(target)
	p := tea.NewProgram(NewApp(target, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
