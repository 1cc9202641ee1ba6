package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jaylorddeguzman/importer/internal/engine/importer"
	"github.com/Jaylorddeguzman/importer/internal/engine/keepalive"
	"github.com/Jaylorddeguzman/importer/internal/model"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

type ProgressReporter interface {
	Report() importer.Report
	Uptime() time.Duration
}

type KeepAliveStatus interface {
	Status() keepalive.Status
}

type RecentReader interface {
	Recent(ctx context.Context, limit int) ([]model.Record, error)
}

// Info describes the running service on the index route.
type Info struct {
	Name    string
	Version string
}

type Handler struct {
	progress  ProgressReporter
	records   RecentReader
	keepAlive KeepAliveStatus
	info      Info
}

func NewHandler(progress ProgressReporter, records RecentReader, keepAlive KeepAliveStatus, info Info) *Handler {
	return &Handler{
		progress:  progress,
		records:   records,
		keepAlive: keepAlive,
		info:      info,
	}
}

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	IsImporting   bool   `json:"isImporting"`
	TotalImported int64  `json:"totalImported"`
}

type StatsResponse struct {
	State     importer.StateView    `json:"state"`
	Progress  importer.ProgressView `json:"progress"`
	KeepAlive keepalive.Status      `json:"keepAlive"`
}

type RecentResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Records []model.Record `json:"records"`
	Error   string         `json:"error,omitempty"`
}

func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   h.info.Name,
		"version":   h.info.Version,
		"endpoints": []string{"/health", "/stats", "/api/recent", "/api/recent.geojson"},
	})
}

func (h *Handler) Health(c *gin.Context) {
	rep := h.progress.Report()
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(h.progress.Uptime() / time.Second),
		IsImporting:   rep.State.IsRunning,
		TotalImported: rep.Progress.TotalImported,
	})
}

func (h *Handler) Stats(c *gin.Context) {
	rep := h.progress.Report()
	c.JSON(http.StatusOK, StatsResponse{
		State:     rep.State,
		Progress:  rep.Progress,
		KeepAlive: h.keepAlive.Status(),
	})
}

func (h *Handler) Recent(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, RecentResponse{Records: []model.Record{}, Error: err.Error()})
		return
	}

	records, err := h.records.Recent(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, RecentResponse{Records: []model.Record{}, Error: "failed to load recent records"})
		return
	}

	c.JSON(http.StatusOK, RecentResponse{Success: true, Count: len(records), Records: records})
}

func (h *Handler) RecentGeoJSON(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.records.Recent(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent records"})
		return
	}

	body, err := model.FeatureCollection(records).MarshalJSON()
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode records"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// parseLimit applies the default for an empty value and clamps numbers into
// [1, MaxRecentLimit].
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultRecentLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidLimit(raw)
	}
	return max(1, min(n, MaxRecentLimit)), nil
}

type errInvalidLimit string

func (e errInvalidLimit) Error() string {
	return "limit must be an integer, got " + strconv.Quote(string(e))
}
