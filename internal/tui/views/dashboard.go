package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/Jaylorddeguzman/importer/internal/model"
	"github.com/Jaylorddeguzman/importer/internal/tui/components"
	"github.com/Jaylorddeguzman/importer/internal/tui/styles"
	"github.com/Jaylorddeguzman/importer/internal/web"
)

const recentLimit = 50

// Fetcher reads a running importer's monitoring endpoints.
type Fetcher interface {
	Stats(ctx context.Context) (web.StatsResponse, error)
	Recent(ctx context.Context, limit int) ([]model.Record, error)
}

// DashboardModel polls an importer and renders its progress, a plot of the
// latest records and a table of them.
type DashboardModel struct {
	fetcher  Fetcher
	target   string
	interval time.Duration

	spinner  spinner.Model
	progress progress.Model
	table    table.Model
	filter   textinput.Model
	plot     components.Plot

	stats     *web.StatsResponse
	records   []model.Record
	err       error
	polledAt  time.Time
	paused    bool
	filtering bool
	width     int
	height    int
}

type pollTickMsg time.Time

type snapshotMsg struct {
	stats   web.StatsResponse
	records []model.Record
	err     error
	at      time.Time
}

func NewDashboardModel(fetcher Fetcher, target string, interval time.Duration) DashboardModel {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	filter := textinput.New()
	filter.Placeholder = "filter by name, category or location"
	filter.Prompt = "/ "
	filter.CharLimit = 64

	return DashboardModel{
		fetcher:  fetcher,
		target:   target,
		interval: interval,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		table:    newRecentTable(10),
		filter:   filter,
		plot:     components.NewPlot(30, 8),
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

func (m DashboardModel) poll() tea.Cmd {
	fetcher := m.fetcher
	timeout := max(m.interval, 5*time.Second)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		stats, err := fetcher.Stats(ctx)
		if err != nil {
			return snapshotMsg{err: err, at: time.Now()}
		}
		records, err := fetcher.Recent(ctx, recentLimit)
		return snapshotMsg{stats: stats, records: records, err: err, at: time.Now()}
	}
}

func (m DashboardModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
			return m, nil
		case "r":
			return m, m.poll()
		case "/":
			m.filtering = true
			return m, m.filter.Focus()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case pollTickMsg:
		if m.paused {
			return m, m.tick()
		}
		return m, m.poll()

	case snapshotMsg:
		m.polledAt = msg.at
		m.err = msg.err
		if msg.err == nil {
			stats := msg.stats
			m.stats = &stats
			m.records = msg.records
			m.refreshRecords()
		}
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	pModel, cmd := m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m DashboardModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.SetValue("")
		fallthrough
	case "enter":
		m.filtering = false
		m.filter.Blur()
		m.refreshRecords()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refreshRecords()
	return m, cmd
}

func (m *DashboardModel) refreshRecords() {
	visible := filterRecords(m.records, m.filter.Value())
	m.table.SetRows(recentRows(visible, m.table.Columns(), time.Now()))

	points := make(orb.MultiPoint, 0, len(visible))
	for _, r := range visible {
		points = append(points, orb.Point{r.Lng, r.Lat})
	}
	m.plot.SetPoints(points)
}

func (m *DashboardModel) updateLayout() {
	if m.width <= 0 {
		return
	}
	m.progress.Width = min(max(m.width-10, 20), 80)
	m.plot.SetSize(max(m.width-52, 20), 8)
	m.table.SetColumns(recentColumns(m.width - 4))
	m.table.SetHeight(max(m.height-24, 5))
	m.refreshRecords()
}

// CycleFraction is the share of the current catalog pass already done.
func (m DashboardModel) CycleFraction() float64 {
	if m.stats == nil {
		return 0
	}
	st := m.stats.State
	total := st.TotalLocations * st.TotalCategories
	if total == 0 {
		return 0
	}
	return float64(st.CurrentLocationIndex*st.TotalCategories+st.CurrentCategoryIndex) / float64(total)
}

func (m DashboardModel) View() string {
	var b strings.Builder

	header := styles.Title.Render("POI importer") + " " + styles.Faint.Render(m.target)
	if m.stats != nil && m.stats.State.IsRunning && !m.paused {
		header = m.spinner.View() + " " + header
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.stats == nil {
		if m.err != nil {
			b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Cannot reach importer: %v", m.err)))
		} else {
			b.WriteString(styles.Faint.Render("Waiting for first snapshot..."))
		}
		b.WriteString("\n")
		b.WriteString(styles.StatusBar.Render("r retry • q quit"))
		return b.String()
	}

	statsBox := styles.Panel.Width(44).Render(m.renderStats())
	plotBox := styles.Panel.Render(m.plot.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, statsBox, " ", plotBox))
	b.WriteString("\n\n")

	st := m.stats.State
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("Cycle %d  %s / %s",
		m.stats.Progress.CycleCount+1, st.CurrentLocation, st.CurrentCategory)))
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(m.CycleFraction()))
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Last poll failed: %v", m.err)))
		b.WriteString("\n")
	}

	help := "/ filter • p pause • r refresh • q quit"
	if m.paused {
		help = styles.Caution.Render("paused") + "  " + help
	}
	b.WriteString(styles.StatusBar.Render(help))
	return b.String()
}

func (m DashboardModel) renderStats() string {
	var sb strings.Builder
	p := m.stats.Progress
	ka := m.stats.KeepAlive

	row := func(label string, value string) {
		sb.WriteString(styles.Label.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	num := func(n int64) string { return styles.Value.Render(fmt.Sprintf("%d", n)) }

	state := styles.ErrorText.Render("stopped")
	if m.stats.State.IsRunning {
		state = styles.Good.Render(m.stats.State.Mode)
	}
	row("State:", state)
	row("Imported:", num(p.TotalImported))
	row("Duplicates:", num(p.DuplicatesSkipped))

	errStyle := styles.Value
	if p.Errors > 0 {
		errStyle = styles.ErrorText
	}
	row("Errors:", errStyle.Render(fmt.Sprintf("%d", p.Errors)))
	if p.RateLimits > 0 {
		row("Rate Lim:", styles.Caution.Render(fmt.Sprintf("%d", p.RateLimits)))
	}

	last := time.Time{}
	if p.LastImportTime != nil {
		last = *p.LastImportTime
	}
	row("Last unit:", styles.Value.Render(timeAgo(last, m.polledAt)))
	row("Uptime:", styles.Value.Render((time.Duration(p.UptimeSeconds) * time.Second).String()))

	keepAlive := styles.Faint.Render("off")
	if ka.Enabled {
		keepAlive = styles.Value.Render(fmt.Sprintf("%d pings, %s", ka.Pings, ka.IntervalDescription))
	}
	sb.WriteString(styles.Label.Render("Keep-alive:"))
	sb.WriteString(keepAlive)

	return sb.String()
}
