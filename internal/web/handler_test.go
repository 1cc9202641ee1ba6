package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaylorddeguzman/importer/internal/engine/importer"
	"github.com/Jaylorddeguzman/importer/internal/engine/keepalive"
	"github.com/Jaylorddeguzman/importer/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProgress struct {
	report importer.Report
	uptime time.Duration
}

func (f fakeProgress) Report() importer.Report { return f.report }
func (f fakeProgress) Uptime() time.Duration   { return f.uptime }

type fakeRecords struct {
	records   []model.Record
	err       error
	lastLimit int
}

func (f *fakeRecords) Recent(_ context.Context, limit int) ([]model.Record, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func sampleRecords(n int) []model.Record {
	at := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{
			ID:         int64(n - i),
			Name:       "Place",
			Category:   "cafe",
			Lat:        14.5 + float64(i)/100,
			Lng:        121.0,
			Address:    model.AddressUnavailable,
			Source:     model.SourceOpenStreetMap,
			ImportedAt: at.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func newTestRouter(progress fakeProgress, records *fakeRecords) *gin.Engine {
	h := NewHandler(progress, records, keepalive.Disabled(), Info{Name: "poi-importer", Version: "test"})
	return NewRouter(h, zerolog.Nop())
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	progress := fakeProgress{uptime: 95 * time.Second}
	progress.report.State.IsRunning = true
	progress.report.Progress.TotalImported = 12

	w := get(t, newTestRouter(progress, &fakeRecords{}), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, HealthResponse{Status: "ok", UptimeSeconds: 95, IsImporting: true, TotalImported: 12}, body)
}

func TestStatsShape(t *testing.T) {
	last := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	progress := fakeProgress{report: importer.Report{
		State: importer.StateView{
			IsRunning:            true,
			Mode:                 "continuous",
			CurrentLocation:      "Makati",
			CurrentCategory:      "bar",
			CurrentLocationIndex: 2,
			CurrentCategoryIndex: 3,
			TotalLocations:       10,
			TotalCategories:      10,
		},
		Progress: importer.ProgressView{
			TotalImported:  40,
			CycleCount:     1,
			Errors:         2,
			UptimeSeconds:  600,
			LastImportTime: &last,
		},
	}}

	w := get(t, newTestRouter(progress, &fakeRecords{}), "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	for _, key := range []string{"isRunning", "mode", "currentLocation", "currentCategory",
		"currentLocationIndex", "currentCategoryIndex", "totalLocations", "totalCategories"} {
		assert.Contains(t, body["state"], key)
	}
	for _, key := range []string{"totalImported", "cycleCount", "errors", "uptimeSeconds", "lastImportTime"} {
		assert.Contains(t, body["progress"], key)
	}
	for _, key := range []string{"enabled", "pings", "intervalDescription"} {
		assert.Contains(t, body["keepAlive"], key)
	}

	assert.Equal(t, "Makati", body["state"]["currentLocation"])
	assert.Equal(t, float64(2), body["state"]["currentLocationIndex"])
	assert.Equal(t, "2026-06-01T09:30:00Z", body["progress"]["lastImportTime"])
	assert.Equal(t, false, body["keepAlive"]["enabled"])
}

func TestRecentLimits(t *testing.T) {
	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, DefaultRecentLimit},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=0", http.StatusOK, 1},
		{"?limit=-3", http.StatusOK, 1},
		{"?limit=1000", http.StatusOK, MaxRecentLimit},
		{"?limit=ten", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			records := &fakeRecords{records: sampleRecords(30)}
			w := get(t, newTestRouter(fakeProgress{}, records), "/api/recent"+tt.query)
			require.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantLimit, records.lastLimit)

			var body RecentResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantCode == http.StatusOK {
				assert.True(t, body.Success)
				assert.Equal(t, min(tt.wantLimit, 30), body.Count)
				assert.Len(t, body.Records, body.Count)
			} else {
				assert.False(t, body.Success)
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestRecentEmptyStoreReturnsEmptyArray(t *testing.T) {
	w := get(t, newTestRouter(fakeProgress{}, &fakeRecords{records: []model.Record{}}), "/api/recent")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"count":0,"records":[]}`, w.Body.String())
}

func TestRecentStoreError(t *testing.T) {
	w := get(t, newTestRouter(fakeProgress{}, &fakeRecords{err: errors.New("pool closed")}), "/api/recent")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pool closed")
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRecentGeoJSON(t *testing.T) {
	w := get(t, newTestRouter(fakeProgress{}, &fakeRecords{records: sampleRecords(3)}), "/api/recent.geojson?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	var body struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FeatureCollection", body.Type)
	require.Len(t, body.Features, 2)
	assert.Equal(t, []float64{121.0, 14.5}, body.Features[0].Geometry.Coordinates)
}

func TestIndex(t *testing.T) {
	w := get(t, newTestRouter(fakeProgress{}, &fakeRecords{}), "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"poi-importer"`)
}
