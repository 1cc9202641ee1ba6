package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxTargets    = 10
	DefaultTarget = "http://localhost:3001"
)

// Target is an importer URL the dashboard has watched before.
type Target struct {
	URL       string    `json:"url"`
	WatchedAt time.Time `json:"watched_at"`
}

var targetsFile = func() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		cfg = os.TempDir()
	}
	return filepath.Join(cfg, "poi-importer", "targets.json")
}

func LoadTargets() []Target {
	data, err := os.ReadFile(targetsFile())
	if err != nil {
		return nil
	}
	var targets []Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil
	}
	return targets
}

// LastTarget returns the most recently watched URL, or DefaultTarget.
func LastTarget() string {
	if t := LoadTargets(); len(t) > 0 {
		return t[0].URL
	}
	return DefaultTarget
}

// SaveTarget moves url to the front of the remembered targets. Failures are
// ignored; the list is a convenience.
func SaveTarget(url string) {
	url = strings.TrimRight(url, "/")

	existing := LoadTargets()
	targets := make([]Target, 0, len(existing)+1)
	targets = append(targets, Target{URL: url, WatchedAt: time.Now()})
	for _, t := range existing {
		if t.URL != url {
			targets = append(targets, t)
		}
	}
	if len(targets) > maxTargets {
		targets = targets[:maxTargets]
	}

	data, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return
	}
	path := targetsFile()
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, data, 0644)
}
