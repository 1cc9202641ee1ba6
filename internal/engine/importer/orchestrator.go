package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jaylorddeguzman/importer/internal/engine/catalog"
	"github.com/Jaylorddeguzman/importer/internal/engine/storage"
	"github.com/Jaylorddeguzman/importer/internal/model"
)

const (
	ModeContinuous = "continuous"

	DefaultDelay       = 3000 * time.Millisecond
	DefaultErrorDelay  = 10 * time.Second
	DefaultUnitRetries = 3
)

// Source yields the raw elements of one work unit. Implementations absorb
// their own failures and report them as an empty result.
type Source interface {
	Fetch(ctx context.Context, unit model.WorkUnit) []model.RawElement
}

type Options struct {
	// Delay is the pause after every work unit, including empty ones.
	Delay time.Duration
	// ErrorDelay replaces Delay after a unit failed on the store side.
	ErrorDelay time.Duration
	// MaxUnitRetries bounds how often a failing unit is retried before the
	// cursor moves past it. Zero means DefaultUnitRetries.
	MaxUnitRetries int
	Mode           string
	// ProgressInterval enables a periodic progress log line. Zero disables it.
	ProgressInterval time.Duration
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Orchestrator walks the catalog forever, one work unit at a time, and stores
// every new record it finds.
type Orchestrator struct {
	catalog *catalog.Catalog
	source  Source
	store   storage.Store
	opts    Options
	logger  zerolog.Logger

	cursor Cursor
	state  *State
}

func New(cat *catalog.Catalog, src Source, store storage.Store, opts Options, logger zerolog.Logger) (*Orchestrator, error) {
	if opts.Mode == "" {
		opts.Mode = ModeContinuous
	}
	if opts.Mode != ModeContinuous {
		return nil, fmt.Errorf("unsupported import mode %q", opts.Mode)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if opts.Delay < 0 {
		opts.Delay = DefaultDelay
	}
	if opts.ErrorDelay < 0 {
		opts.ErrorDelay = DefaultErrorDelay
	}
	if opts.MaxUnitRetries <= 0 {
		opts.MaxUnitRetries = DefaultUnitRetries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cursor := NewCursor(len(cat.Locations), len(cat.Categories))
	return &Orchestrator{
		catalog: cat,
		source:  src,
		store:   store,
		opts:    opts,
		logger:  logger.With().Str("component", "importer").Logger(),
		cursor:  cursor,
		state:   newState(opts.Mode, cursor, opts.Now()),
	}, nil
}

// State exposes the live counters for read-only consumers.
func (o *Orchestrator) State() *State {
	return o.state
}

// Run drives the import loop until ctx is cancelled. It returns nil on
// shutdown; no single work unit can end the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.state.start(o.opts.Now())
	defer o.state.stop()

	o.logger.Info().
		Str("mode", o.opts.Mode).
		Int("locations", len(o.catalog.Locations)).
		Int("categories", len(o.catalog.Categories)).
		Dur("delay", o.opts.Delay).
		Msg("import loop started")

	if o.opts.ProgressInterval > 0 {
		done := make(chan struct{})
		defer close(done)
		go o.logProgress(done)
	}

	failures := 0
	for ctx.Err() == nil {
		unit := o.catalog.Unit(o.cursor.LocationIndex, o.cursor.CategoryIndex)

		if err := o.processUnit(ctx, unit); err != nil {
			if ctx.Err() != nil {
				break
			}
			failures++
			o.state.addError(err)
			o.logger.Error().Err(err).
				Str("location", unit.Location.Name).
				Str("category", string(unit.Category)).
				Int("attempt", failures).
				Dur("retry_in", o.opts.ErrorDelay).
				Msg("work unit failed")
			sleepCtx(ctx, o.opts.ErrorDelay)
			if failures <= o.opts.MaxUnitRetries || ctx.Err() != nil {
				continue
			}
			o.logger.Warn().
				Str("location", unit.Location.Name).
				Str("category", string(unit.Category)).
				Int("attempts", failures).
				Msg("skipping work unit")
		}
		skipped := failures > 0
		failures = 0

		if o.cursor.Advance() {
			o.logger.Info().Int64("cycle", o.cursor.CycleCount).Msg("catalog cycle completed")
		}
		o.state.setCursor(o.cursor)

		// a skipped unit already waited out the recovery delay
		if !skipped {
			sleepCtx(ctx, o.opts.Delay)
		}
	}

	snap := o.state.Snapshot()
	o.logger.Info().
		Int64("imported", snap.TotalImported).
		Int64("cycles", snap.Cursor.CycleCount).
		Int64("errors", snap.Errors).
		Msg("import loop stopped")
	return nil
}

// processUnit runs fetch, normalize, dedupe and insert for one work unit. A
// returned error means the unit should be retried.
func (o *Orchestrator) processUnit(ctx context.Context, unit model.WorkUnit) error {
	elements := o.source.Fetch(ctx, unit)

	var imported int
	for _, el := range elements {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, ok := model.Normalize(el, unit, o.opts.Now())
		if !ok {
			o.state.addDiscarded()
			continue
		}

		exists, err := o.store.Exists(ctx, rec.Key())
		if err != nil {
			return fmt.Errorf("dedup check for %q: %w", rec.Name, err)
		}
		if exists {
			o.state.addDuplicate()
			continue
		}

		outcome, err := o.store.Insert(ctx, &rec)
		switch outcome {
		case storage.Inserted:
			imported++
			o.state.addImported()
		case storage.DuplicateSkipped:
			o.state.addDuplicate()
		default:
			if err == nil {
				err = errors.New("insert failed")
			}
			o.state.addError(err)
			o.logger.Warn().Err(err).Str("name", rec.Name).Msg("record skipped")
		}
	}

	o.state.touch(o.opts.Now())
	o.logger.Debug().
		Str("location", unit.Location.Name).
		Str("category", string(unit.Category)).
		Int("elements", len(elements)).
		Int("imported", imported).
		Msg("work unit done")
	return nil
}

func (o *Orchestrator) logProgress(done <-chan struct{}) {
	ticker := time.NewTicker(o.opts.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap := o.state.Snapshot()
			o.logger.Info().
				Int("location_index", snap.Cursor.LocationIndex).
				Int("category_index", snap.Cursor.CategoryIndex).
				Int64("cycles", snap.Cursor.CycleCount).
				Int64("imported", snap.TotalImported).
				Int64("duplicates", snap.DuplicatesSkipped).
				Int64("errors", snap.Errors).
				Dur("elapsed", o.opts.Now().Sub(snap.StartedAt).Truncate(time.Second)).
				Msg("progress")
		case <-done:
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
