package views

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Jaylorddeguzman/importer/internal/model"
	"github.com/Jaylorddeguzman/importer/internal/tui/styles"
)

func newRecentTable(height int) table.Model {
	t := table.New(
		table.WithColumns(recentColumns(80)),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Bold(true)
	t.SetStyles(s)
	return t
}

func recentColumns(width int) []table.Column {
	nameW, catW, locW, whenW := 26, 14, 14, 10
	if extra := width - (nameW + catW + locW + whenW + 8); extra > 0 {
		nameW += extra / 2
		catW += extra / 4
		locW += extra / 4
	}
	return []table.Column{
		{Title: "Name", Width: nameW},
		{Title: "Category", Width: catW},
		{Title: "Location", Width: locW},
		{Title: "Imported", Width: whenW},
	}
}

func recentRows(records []model.Record, cols []table.Column, now time.Time) []table.Row {
	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row{
			truncate(r.Name, cols[0].Width),
			truncate(r.Category, cols[1].Width),
			truncate(r.Location, cols[2].Width),
			timeAgo(r.ImportedAt, now),
		}
	}
	return rows
}

// filterRecords keeps records whose name, category or location contains the
// query, ignoring case and diacritics.
func filterRecords(records []model.Record, query string) []model.Record {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	var out []model.Record
	for _, r := range records {
		if strings.Contains(fold(r.Name), q) ||
			strings.Contains(fold(r.Category), q) ||
			strings.Contains(fold(r.Location), q) {
			out = append(out, r)
		}
	}
	return out
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func timeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
