package importer

import (
	"time"

	"github.com/Jaylorddeguzman/importer/internal/engine/source"
)

// FetchStatser is implemented by sources that count their own failures.
type FetchStatser interface {
	Stats() source.Stats
}

// StateView is the "state" section of the progress report.
type StateView struct {
	IsRunning            bool   `json:"isRunning"`
	Mode                 string `json:"mode"`
	CurrentLocation      string `json:"currentLocation"`
	CurrentCategory      string `json:"currentCategory"`
	CurrentLocationIndex int    `json:"currentLocationIndex"`
	CurrentCategoryIndex int    `json:"currentCategoryIndex"`
	TotalLocations       int    `json:"totalLocations"`
	TotalCategories      int    `json:"totalCategories"`
}

// ProgressView is the "progress" section of the progress report.
type ProgressView struct {
	TotalImported     int64      `json:"totalImported"`
	CycleCount        int64      `json:"cycleCount"`
	Errors            int64      `json:"errors"`
	UptimeSeconds     int64      `json:"uptimeSeconds"`
	LastImportTime    *time.Time `json:"lastImportTime"`
	StartedAt         *time.Time `json:"startedAt"`
	DuplicatesSkipped int64      `json:"duplicatesSkipped"`
	Discarded         int64      `json:"discarded"`
	RateLimits        int64      `json:"rateLimits"`
	FetchFailures     int64      `json:"fetchFailures"`
	LastError         string     `json:"lastError,omitempty"`
}

type Report struct {
	State    StateView    `json:"state"`
	Progress ProgressView `json:"progress"`
}

// Reporter projects orchestrator state into reports. It never mutates state.
type Reporter struct {
	orch  *Orchestrator
	stats FetchStatser
}

func NewReporter(orch *Orchestrator) *Reporter {
	r := &Reporter{orch: orch}
	if fs, ok := orch.source.(FetchStatser); ok {
		r.stats = fs
	}
	return r
}

func (r *Reporter) Report() Report {
	snap := r.orch.state.Snapshot()
	cat := r.orch.catalog
	now := r.orch.opts.Now()

	unit := cat.Unit(snap.Cursor.LocationIndex, snap.Cursor.CategoryIndex)

	rep := Report{
		State: StateView{
			IsRunning:            snap.Running,
			Mode:                 snap.Mode,
			CurrentLocation:      unit.Location.Name,
			CurrentCategory:      string(unit.Category),
			CurrentLocationIndex: snap.Cursor.LocationIndex,
			CurrentCategoryIndex: snap.Cursor.CategoryIndex,
			TotalLocations:       len(cat.Locations),
			TotalCategories:      len(cat.Categories),
		},
		Progress: ProgressView{
			TotalImported:     snap.TotalImported,
			CycleCount:        snap.Cursor.CycleCount,
			Errors:            snap.Errors,
			UptimeSeconds:     int64(now.Sub(snap.CreatedAt) / time.Second),
			LastImportTime:    timePtr(snap.LastImportTime),
			StartedAt:         timePtr(snap.StartedAt),
			DuplicatesSkipped: snap.DuplicatesSkipped,
			Discarded:         snap.Discarded,
			LastError:         snap.LastError,
		},
	}
	if r.stats != nil {
		st := r.stats.Stats()
		rep.Progress.RateLimits = st.RateLimits
		rep.Progress.FetchFailures = st.Failures
	}
	return rep
}

// Uptime is the time since the orchestrator was created.
func (r *Reporter) Uptime() time.Duration {
	return r.orch.opts.Now().Sub(r.orch.state.Snapshot().CreatedAt)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
