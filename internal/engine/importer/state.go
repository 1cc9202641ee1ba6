package importer

import (
	"sync"
	"time"
)

// State holds the counters of a running import. The orchestrator is the only
// writer; the monitoring surface reads it through Snapshot.
type State struct {
	mu sync.RWMutex

	running   bool
	mode      string
	createdAt time.Time
	startedAt time.Time

	cursor Cursor

	totalImported     int64
	duplicatesSkipped int64
	discarded         int64
	errors            int64
	lastImportTime    time.Time
	lastError         string
}

func newState(mode string, cursor Cursor, now time.Time) *State {
	return &State{mode: mode, cursor: cursor, createdAt: now}
}

// StateSnapshot is a consistent copy of State taken under a single read lock.
type StateSnapshot struct {
	Running           bool
	Mode              string
	CreatedAt         time.Time
	StartedAt         time.Time
	Cursor            Cursor
	TotalImported     int64
	DuplicatesSkipped int64
	Discarded         int64
	Errors            int64
	LastImportTime    time.Time
	LastError         string
}

func (s *State) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StateSnapshot{
		Running:           s.running,
		Mode:              s.mode,
		CreatedAt:         s.createdAt,
		StartedAt:         s.startedAt,
		Cursor:            s.cursor,
		TotalImported:     s.totalImported,
		DuplicatesSkipped: s.duplicatesSkipped,
		Discarded:         s.discarded,
		Errors:            s.errors,
		LastImportTime:    s.lastImportTime,
		LastError:         s.lastError,
	}
}

func (s *State) start(now time.Time) {
	s.mu.Lock()
	s.running = true
	s.startedAt = now
	s.mu.Unlock()
}

func (s *State) stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *State) setCursor(c Cursor) {
	s.mu.Lock()
	s.cursor = c
	s.mu.Unlock()
}

func (s *State) addImported() {
	s.mu.Lock()
	s.totalImported++
	s.mu.Unlock()
}

func (s *State) addDuplicate() {
	s.mu.Lock()
	s.duplicatesSkipped++
	s.mu.Unlock()
}

func (s *State) addDiscarded() {
	s.mu.Lock()
	s.discarded++
	s.mu.Unlock()
}

func (s *State) addError(err error) {
	s.mu.Lock()
	s.errors++
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	s.lastImportTime = now
	s.mu.Unlock()
}
