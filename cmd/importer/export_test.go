package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaylorddeguzman/importer/internal/engine/catalog"
	"github.com/Jaylorddeguzman/importer/internal/engine/storage"
	"github.com/Jaylorddeguzman/importer/internal/model"
)

func seededStore(t *testing.T) storage.Store {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "places.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, r := range []model.Record{
		{Name: "Jollibee", Category: "fast_food", Lat: 14.5995, Lng: 120.9842, Address: "Rizal Ave, Manila", Phone: "+63 2 1234", Source: model.SourceOpenStreetMap, OSMType: "node", OSMID: 1, Location: "Manila"},
		{Name: "Cafe, \"Quoted\"", Category: "cafe", Lat: 10.3157, Lng: 123.8854, Address: model.AddressUnavailable, Source: model.SourceOpenStreetMap, OSMType: "way", OSMID: 2, Location: "Cebu City"},
	} {
		r.ImportedAt = at.Add(time.Duration(i) * time.Minute)
		outcome, err := store.Insert(ctx, &r)
		require.NoError(t, err)
		require.Equal(t, storage.Inserted, outcome)
	}
	return store
}

func TestWriteCSV(t *testing.T) {
	store := seededStore(t)

	var buf bytes.Buffer
	n, err := writeCSV(context.Background(), &buf, store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Jollibee", rows[1][1])
	assert.Equal(t, "14.5995", rows[1][3])
	assert.Equal(t, "120.9842", rows[1][4])
	assert.Equal(t, "1", rows[1][10])
	assert.Equal(t, "2024-03-01T08:00:00Z", rows[1][12])
	assert.Equal(t, `Cafe, "Quoted"`, rows[2][1])
	assert.Equal(t, "", rows[2][6], "empty phone stays empty")
}

func TestWriteGeoJSON(t *testing.T) {
	store := seededStore(t)

	var buf bytes.Buffer
	n, err := writeGeoJSON(context.Background(), &buf, store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 2)
	assert.Equal(t, "Point", doc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{120.9842, 14.5995}, doc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "Jollibee", doc.Features[0].Properties["name"])
}

func TestWriteCSVEmptyStore(t *testing.T) {
	store, err := storage.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "empty.db"), time.Second)
	require.NoError(t, err)
	defer store.Close()

	var buf bytes.Buffer
	n, err := writeCSV(context.Background(), &buf, store)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, strings.Join(csvHeader, ",")+"\n", buf.String())
}

func TestPrintCatalog(t *testing.T) {
	cat := &catalog.Catalog{
		Locations:  []model.Location{{Name: "Manila", Lat: 14.5995, Lng: 120.9842, Radius: 5000}},
		Categories: []model.Category{"restaurant", "shop=supermarket"},
	}

	var buf bytes.Buffer
	printCatalog(&buf, cat, true)
	out := buf.String()

	assert.Contains(t, out, "Manila")
	assert.Contains(t, out, "shop=supermarket")
	assert.Contains(t, out, "1 locations x 2 categories = 2 work units per cycle")
	assert.Contains(t, out, "[0,1] Manila / shop=supermarket")
}
