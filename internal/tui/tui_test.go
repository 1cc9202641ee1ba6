package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempTargets(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.json")
	prev := targetsFile
	targetsFile = func() string { return path }
	t.Cleanup(func() { targetsFile = prev })
}

func TestTargetsMostRecentFirst(t *testing.T) {
	useTempTargets(t)

	assert.Equal(t, DefaultTarget, LastTarget())

	SaveTarget("http://a.example:3001")
	SaveTarget("http://b.example:3001/")
	SaveTarget("http://a.example:3001")

	targets := LoadTargets()
	require.Len(t, targets, 2)
	assert.Equal(t, "http://a.example:3001", targets[0].URL)
	assert.Equal(t, "http://b.example:3001", targets[1].URL)
	assert.Equal(t, "http://a.example:3001", LastTarget())
}

func TestTargetsCapped(t *testing.T) {
	useTempTargets(t)
	for i := 0; i < maxTargets+5; i++ {
		SaveTarget(fmt.Sprintf("http://host%d:3001", i))
	}
	assert.Len(t, LoadTargets(), maxTargets)
}

func TestClientReadsEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"state":{"isRunning":true,"mode":"continuous","currentLocation":"Manila",
			"currentCategory":"cafe","currentLocationIndex":0,"currentCategoryIndex":1,
			"totalLocations":10,"totalCategories":10},
			"progress":{"totalImported":5,"cycleCount":0,"errors":0,"uptimeSeconds":12,"lastImportTime":null},
			"keepAlive":{"enabled":false,"pings":0,"intervalDescription":"every 14 minutes"}}`)
	})
	mux.HandleFunc("/api/recent", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"success":true,"count":1,"records":[{"name":"Kape","category":"cafe","lat":14.6,"lng":121,"address":"Address not available","source":"openstreetmap","importedAt":"2026-01-01T00:00:00Z"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL + "/")

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.State.IsRunning)
	assert.Equal(t, "Manila", stats.State.CurrentLocation)
	assert.Equal(t, int64(5), stats.Progress.TotalImported)
	assert.Nil(t, stats.Progress.LastImportTime)

	records, err := c.Recent(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Kape", records[0].Name)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Stats(context.Background())
	assert.ErrorContains(t, err, "502")
}
