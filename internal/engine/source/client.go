package source

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Jaylorddeguzman/importer/internal/model"
)

const (
	DefaultEndpoint = "https://overpass-api.de/api/interpreter"
	DefaultTimeout  = 50 * time.Second
	DefaultCooldown = 60 * time.Second

	// remote query budget stays under the client deadline
	queryBudgetMargin = 5 * time.Second

	userAgent = "poi-importer/1.0 (+https://github.com/Jaylorddeguzman/importer)"
)

// Options configures the Overpass client.
type Options struct {
	Endpoint string
	// Timeout is the hard deadline for a single query, response body included.
	Timeout time.Duration
	// Cooldown is how long Fetch blocks after a throttling response.
	Cooldown time.Duration
	// MinInterval spaces outbound queries. Zero disables the limiter.
	MinInterval time.Duration
	// TLSFingerprint "chrome" dials with a uTLS Chrome ClientHello.
	TLSFingerprint string
	ProxyURL       string
}

// Client fetches raw elements from an Overpass API endpoint. Failures never
// escape Fetch: they are logged, counted, and reported as zero elements.
type Client struct {
	http     *http.Client
	endpoint string
	budget   int
	cooldown time.Duration
	limiter  *rate.Limiter
	logger   zerolog.Logger

	rateLimits atomic.Int64
	failures   atomic.Int64
}

// Stats is a snapshot of the client's failure counters.
type Stats struct {
	RateLimits int64 `json:"rateLimits"`
	Failures   int64 `json:"fetchFailures"`
}

func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}

	budget := opts.Timeout - queryBudgetMargin
	if budget < time.Second {
		budget = time.Second
	}

	logger = logger.With().Str("component", "source").Logger()
	c := &Client{
		http: &http.Client{
			Transport: newTransport(opts.TLSFingerprint, opts.ProxyURL, logger),
			Timeout:   opts.Timeout,
		},
		endpoint: opts.Endpoint,
		budget:   int(budget / time.Second),
		cooldown: opts.Cooldown,
		logger:   logger,
	}
	if opts.MinInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return c
}

func newTransport(fingerprint, proxyURL string, logger zerolog.Logger) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if strings.EqualFold(fingerprint, "chrome") {
		transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}

			// Chrome hello with HTTP/1.1 ALPN; net/http cannot speak h2 over a uTLS conn
			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, err
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
					break
				}
			}

			tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		}
	}

	if proxyURL != "" {
		proxyParsed, err := url.Parse(proxyURL)
		if err != nil {
			logger.Warn().Err(err).Msg("ignoring invalid proxy url")
			return transport
		}
		if transport.DialTLSContext != nil {
			logger.Warn().Str("fingerprint", fingerprint).Msg("proxy configured, tls fingerprint disabled")
		}
		transport.Proxy = http.ProxyURL(proxyParsed)
		// the proxy terminates the connection, fall back to standard TLS
		transport.DialTLSContext = nil
		transport.TLSClientConfig = &tls.Config{}
	}

	return transport
}

// Fetch returns the raw elements for a work unit. On a throttling response it
// waits out the cool-down (or until ctx is done) and returns no elements; any
// other failure returns no elements immediately.
func (c *Client) Fetch(ctx context.Context, unit model.WorkUnit) []model.RawElement {
	log := c.logger.With().
		Str("location", unit.Location.Name).
		Str("category", string(unit.Category)).
		Logger()

	elements, err := c.query(ctx, unit)
	if err == nil {
		log.Debug().Int("elements", len(elements)).Msg("fetched")
		return elements
	}

	if ctx.Err() != nil {
		log.Debug().Err(err).Msg("fetch abandoned on shutdown")
		return nil
	}

	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == KindRateLimit {
		c.rateLimits.Add(1)
		log.Warn().Int("status", fe.StatusCode).Dur("cooldown", c.cooldown).Msg("rate limited, cooling down")
		sleepCtx(ctx, c.cooldown)
		return nil
	}

	c.failures.Add(1)
	ev := log.Warn().Err(err)
	if fe != nil {
		ev = ev.Str("kind", string(fe.Kind))
	}
	ev.Msg("fetch failed")
	return nil
}

// Stats returns the client's failure counters.
func (c *Client) Stats() Stats {
	return Stats{
		RateLimits: c.rateLimits.Load(),
		Failures:   c.failures.Load(),
	}
}

func (c *Client) query(ctx context.Context, unit model.WorkUnit) ([]model.RawElement, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	form := url.Values{"data": {BuildQuery(unit, c.budget)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	switch {
	case isThrottled(resp.StatusCode):
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Kind: KindRateLimit, StatusCode: resp.StatusCode, Err: errors.New("throttled by remote")}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Kind: KindStatus, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// the body read shares the client deadline
		if fe := classifyTransport(err); fe.Kind == KindTimeout {
			return nil, fe
		}
		return nil, &FetchError{Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	if body.Remark != "" {
		c.logger.Debug().Str("remark", body.Remark).Msg("overpass remark")
	}

	return body.Elements, nil
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
