package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jaylorddeguzman/importer/internal/engine/storage"
	"github.com/Jaylorddeguzman/importer/internal/model"
)

var (
	exportDB     string
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to CSV or GeoJSON",
	Example: `  importer export --db sqlite://places.db
  importer export --format geojson --output places.geojson
  importer export --output - | head`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "Store connection string (default: $DATABASE_URL)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", `Output file, "-" for stdout (default: places.<format>)`)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Export format: csv or geojson")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	dsn := exportDB
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return fmt.Errorf("--db or DATABASE_URL is required")
	}

	var write func(context.Context, io.Writer, storage.Store) (int, error)
	switch exportFormat {
	case "csv":
		write = writeCSV
	case "geojson":
		write = writeGeoJSON
	default:
		return fmt.Errorf("unsupported format: %s (csv or geojson)", exportFormat)
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, dsn, storage.DefaultTimeout)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	path := exportOutput
	if path == "" {
		path = "places." + exportFormat
	}

	var out io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	n, err := write(ctx, out, store)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no records found in store")
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", n, path)
	return nil
}

var csvHeader = []string{
	"id", "name", "category", "lat", "lng", "address", "phone", "website",
	"source", "osm_type", "osm_id", "location", "imported_at",
}

func writeCSV(ctx context.Context, out io.Writer, store storage.Store) (int, error) {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return 0, err
	}

	n := 0
	err := store.Each(ctx, func(r model.Record) error {
		n++
		osmID := ""
		if r.OSMID != 0 {
			osmID = strconv.FormatInt(r.OSMID, 10)
		}
		return w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Category,
			strconv.FormatFloat(r.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Lng, 'f', -1, 64),
			r.Address,
			r.Phone,
			r.Website,
			r.Source,
			r.OSMType,
			osmID,
			r.Location,
			r.ImportedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return n, fmt.Errorf("reading records: %w", err)
	}

	w.Flush()
	return n, w.Error()
}

func writeGeoJSON(ctx context.Context, out io.Writer, store storage.Store) (int, error) {
	var records []model.Record
	err := store.Each(ctx, func(r model.Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reading records: %w", err)
	}

	body, err := model.FeatureCollection(records).MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("encoding geojson: %w", err)
	}
	if _, err := out.Write(append(body, '\n')); err != nil {
		return 0, err
	}
	return len(records), nil
}
