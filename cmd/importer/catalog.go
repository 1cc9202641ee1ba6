package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Jaylorddeguzman/importer/internal/engine/catalog"
	"github.com/Jaylorddeguzman/importer/internal/model"
	"github.com/Jaylorddeguzman/importer/internal/tui/styles"
)

var (
	catalogFile  string
	catalogUnits bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and print the location and category catalog",
	Example: `  importer catalog
  importer catalog --file catalog.yaml --units`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := catalogFile
		if path == "" {
			path = os.Getenv("CATALOG_FILE")
		}

		cat := catalog.Default()
		if path != "" {
			var err error
			if cat, err = catalog.LoadFile(path); err != nil {
				return err
			}
		}

		printCatalog(cmd.OutOrStdout(), cat, catalogUnits)
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogFile, "file", "", "YAML catalog file (default: $CATALOG_FILE or the built-in catalog)")
	catalogCmd.Flags().BoolVar(&catalogUnits, "units", false, "List every work unit in traversal order")
	rootCmd.AddCommand(catalogCmd)
}

func printCatalog(w io.Writer, cat *catalog.Catalog, units bool) {
	border := lipgloss.NewStyle().Foreground(styles.Muted)

	locations := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		Headers("#", "Location", "Lat", "Lng", "Radius (m)")
	for i, l := range cat.Locations {
		locations.Row(
			strconv.Itoa(i),
			l.Name,
			strconv.FormatFloat(l.Lat, 'f', 4, 64),
			strconv.FormatFloat(l.Lng, 'f', 4, 64),
			strconv.FormatFloat(l.Radius, 'f', 0, 64),
		)
	}
	fmt.Fprintln(w, locations)

	categories := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		Headers("#", "Category", "Tag")
	for i, c := range cat.Categories {
		k, v := c.Tag()
		categories.Row(strconv.Itoa(i), c.Label(), k+"="+v)
	}
	fmt.Fprintln(w, categories)

	fmt.Fprintf(w, "%d locations x %d categories = %d work units per cycle\n",
		len(cat.Locations), len(cat.Categories), cat.Len())

	if units {
		for i, u := range cat.Units() {
			fmt.Fprintf(w, "%4d  %s\n", i, unitLabel(u))
		}
	}
}

func unitLabel(u model.WorkUnit) string {
	return fmt.Sprintf("[%d,%d] %s / %s", u.LocationIndex, u.CategoryIndex, u.Location.Name, u.Category)
}
