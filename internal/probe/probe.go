package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/rollupscore/rollupscore/internal/config"
)

// Measurement is the outcome of one latency probe.
type Measurement struct {
	Endpoint string
	Method   string

	// LatencyMs is the elapsed wall-clock time of the round-trip, or the
	// configured failure latency when the probe failed.
	LatencyMs float64

	// BlockHeight is the chain height returned by eth_blockNumber.
	// Zero for other methods or on failure.
	BlockHeight uint64

	// Err is the recovered transport or protocol fault, kept for logging.
	// A non-nil Err always comes with LatencyMs == failure latency.
	Err error
}

// OK reports whether the measurement is a real round-trip time.
func (m Measurement) OK() bool {
	return m.Err == nil
}

// Prober performs a single latency measurement against one endpoint.
// Measure never returns an error: failures are folded into the Measurement.
type Prober interface {
	Measure(ctx context.Context) Measurement
}

// querier sends one JSON-RPC request and returns its raw result.
type querier interface {
	query(ctx context.Context, req rpcRequest) ([]byte, error)
	close()
}

type prober struct {
	endpoint string
	host     string
	cfg      config.ProbeConfig
	q        querier
	now      func() time.Time // injectable for tests
}

// ErrBadEndpoint is recorded on the Measurement when the endpoint URL cannot
// be probed at all (unparseable, unsupported scheme, no host).
var ErrBadEndpoint = errors.New("probe: unusable endpoint")

// New returns a Prober for endpoint, choosing the transport from the URL
// scheme: http/https use JSON-RPC over HTTP POST, ws/wss use a WebSocket.
// Zero timeout, failure latency and method fall back to the defaults.
//
// An endpoint that cannot be probed is not an error here; its Measure reports
// the failure latency with ErrBadEndpoint. Errors are configuration errors
// (negative failure latency, unreadable client certificate, missing auth
// secret); nothing is dialled here.
func New(endpoint string, cfg config.ProbeConfig) (Prober, error) {
	if cfg.FailureLatencyMs < 0 {
		return nil, fmt.Errorf("probe: failure latency %v must be non-negative", cfg.FailureLatencyMs)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultProbeTimeout
	}
	if cfg.FailureLatencyMs == 0 {
		cfg.FailureLatencyMs = config.DefaultFailureLatencyMs
	}
	if cfg.Method == "" {
		cfg.Method = config.DefaultMethod
	}

	p := &prober{
		endpoint: endpoint,
		cfg:      cfg,
		now:      time.Now,
	}

	u, err := parseEndpoint(endpoint)
	if err != nil {
		p.q = unusableEndpoint{err: err}
		return p, nil
	}
	p.host = u.Host

	switch u.Scheme {
	case "http", "https":
		p.q, err = newHTTPQuerier(endpoint, cfg)
	case "ws", "wss":
		p.q, err = newWSQuerier(endpoint, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", u.Host, err)
	}
	return p, nil
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadEndpoint, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrBadEndpoint, endpoint)
	}
	return u, nil
}

// unusableEndpoint fails every query with the reason the URL was rejected.
type unusableEndpoint struct {
	err error
}

func (e unusableEndpoint) query(context.Context, rpcRequest) ([]byte, error) {
	return nil, e.err
}

func (unusableEndpoint) close() {}

// Measure issues exactly one query, bounded by the configured timeout.
// Timeouts, refused connections, DNS failures, bad status codes, malformed
// bodies and JSON-RPC errors all yield LatencyMs == FailureLatencyMs.
func (p *prober) Measure(ctx context.Context) Measurement {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	defer p.q.close()

	m := Measurement{Endpoint: p.endpoint, Method: p.cfg.Method}

	start := p.now()
	result, err := p.q.query(ctx, newRequest(p.cfg.Method))
	elapsed := p.now().Sub(start)

	if err == nil {
		m.BlockHeight, err = decodeResult(p.cfg.Method, result)
	}
	if err != nil {
		m.LatencyMs = p.cfg.FailureLatencyMs
		m.Err = err
		slog.Warn("probe: measurement failed",
			"host", p.host,
			"method", p.cfg.Method,
			"latency_ms", m.LatencyMs,
			"err", err)
		return m
	}

	m.LatencyMs = float64(elapsed) / float64(time.Millisecond)
	slog.Debug("probe: measured",
		"host", p.host,
		"method", p.cfg.Method,
		"latency_ms", m.LatencyMs,
		"block_height", m.BlockHeight)
	return m
}

// Latency measures endpoint once and returns the latency in milliseconds.
// A probe that cannot be built counts as a failed measurement.
func Latency(ctx context.Context, endpoint string, cfg config.ProbeConfig) float64 {
	p, err := New(endpoint, cfg)
	if err != nil {
		slog.Warn("probe: build failed", "err", err)
		if cfg.FailureLatencyMs <= 0 {
			return config.DefaultFailureLatencyMs
		}
		return cfg.FailureLatencyMs
	}
	return p.Measure(ctx).LatencyMs
}
