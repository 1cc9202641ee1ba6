package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const DefaultInterval = 14 * time.Minute

// Status is the keep-alive section of the progress report.
type Status struct {
	Enabled             bool   `json:"enabled"`
	Pings               int64  `json:"pings"`
	IntervalDescription string `json:"intervalDescription"`
}

// Pinger periodically requests the service's own health endpoint so that a
// host which sleeps idle services keeps this one awake.
type Pinger struct {
	target   string
	interval time.Duration
	enabled  bool
	client   *http.Client
	logger   zerolog.Logger

	pings    atomic.Int64
	failures atomic.Int64
}

// New returns a pinger for baseURL. An empty baseURL yields a disabled pinger
// whose Run returns immediately.
func New(baseURL string, interval time.Duration, logger zerolog.Logger) *Pinger {
	if interval <= 0 {
		interval = DefaultInterval
	}
	base := strings.TrimRight(baseURL, "/")
	return &Pinger{
		target:   base + "/health",
		interval: interval,
		enabled:  base != "",
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With().Str("component", "keepalive").Logger(),
	}
}

// Disabled returns a pinger that never pings.
func Disabled() *Pinger {
	return New("", DefaultInterval, zerolog.Nop())
}

func (p *Pinger) Enabled() bool {
	return p.enabled
}

func (p *Pinger) Status() Status {
	return Status{
		Enabled:             p.enabled,
		Pings:               p.pings.Load(),
		IntervalDescription: describe(p.interval),
	}
}

// Run pings on every tick until ctx is done.
func (p *Pinger) Run(ctx context.Context) error {
	if !p.enabled {
		return nil
	}

	p.logger.Info().Str("target", p.target).Str("interval", describe(p.interval)).Msg("keep-alive started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.ping(ctx); err != nil && ctx.Err() == nil {
				p.failures.Add(1)
				p.logger.Warn().Err(err).Msg("keep-alive ping failed")
			}
		}
	}
}

func (p *Pinger) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	n := p.pings.Add(1)
	p.logger.Debug().Int64("pings", n).Msg("keep-alive ping ok")
	return nil
}

func describe(d time.Duration) string {
	switch {
	case d%time.Minute == 0:
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("every %d minutes", m)
		}
		return "every minute"
	case d%time.Second == 0:
		return fmt.Sprintf("every %d seconds", int(d/time.Second))
	default:
		return "every " + d.String()
	}
}
