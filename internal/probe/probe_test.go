package probe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/rollupscore/rollupscore/internal/config"
)

// rpcHandler answers every JSON-RPC request with body and records the request.
func rpcHandler(t *testing.T, body string, seen *rpcRequest, hdr *http.Header) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
		}
		if hdr != nil {
			*hdr = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func defaultProbeConfig() config.ProbeConfig {
	return config.Default().Probe
}

// stepClock returns a clock that advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func mustNew(t *testing.T, endpoint string, cfg config.ProbeConfig) *prober {
	t.Helper()
	p, err := New(endpoint, cfg)
	require.NoError(t, err)
	return p.(*prober)
}

func TestMeasure_HTTP(t *testing.T) {
	var seen rpcRequest
	var hdr http.Header
	srv := httptest.NewServer(rpcHandler(t, `{"jsonrpc":"2.0","id":1,"result":"0x10d4f"}`, &seen, &hdr))
	defer srv.Close()

	p := mustNew(t, srv.URL, defaultProbeConfig())
	m := p.Measure(context.Background())

	require.NoError(t, m.Err)
	assert.True(t, m.OK())
	assert.Equal(t, uint64(68943), m.BlockHeight)
	assert.Equal(t, srv.URL, m.Endpoint)
	assert.Equal(t, "eth_blockNumber", m.Method)
	assert.GreaterOrEqual(t, m.LatencyMs, 0.0)
	assert.Less(t, m.LatencyMs, config.DefaultFailureLatencyMs)

	assert.Equal(t, "2.0", seen.JSONRPC)
	assert.Equal(t, "eth_blockNumber", seen.Method)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
}

func TestMeasure_ElapsedTime(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, `{"jsonrpc":"2.0","id":1,"result":"0x1"}`, nil, nil))
	defer srv.Close()

	p := mustNew(t, srv.URL, defaultProbeConfig())
	p.now = stepClock(50 * time.Millisecond)

	m := p.Measure(context.Background())
	require.NoError(t, m.Err)
	assert.Equal(t, 50.0, m.LatencyMs)
}

func TestMeasure_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>not json</html>"))
			},
		},
		{
			name: "json-rpc error object",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
			},
		},
		{
			name: "null result",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
			},
			wantErr: ErrEmptyResult,
		},
		{
			name: "bad hex height",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"12345"}`))
			},
			wantErr: ErrBadQuantity,
		},
		{
			name: "numeric height",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":12345}`))
			},
			wantErr: ErrBadQuantity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			m := mustNew(t, srv.URL, defaultProbeConfig()).Measure(context.Background())

			require.Error(t, m.Err)
			assert.False(t, m.OK())
			assert.Equal(t, 9999.0, m.LatencyMs)
			assert.Zero(t, m.BlockHeight)
			if tc.wantErr != nil {
				assert.ErrorIs(t, m.Err, tc.wantErr)
			}
		})
	}
}

func TestMeasure_RPCErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"rate limited"}}`, nil, nil))
	defer srv.Close()

	m := mustNew(t, srv.URL, defaultProbeConfig()).Measure(context.Background())

	var rpcErr *RPCError
	require.True(t, errors.As(m.Err, &rpcErr))
	assert.Equal(t, -32005, rpcErr.Code)
	assert.Equal(t, "rate limited", rpcErr.Message)
}

func TestMeasure_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := mustNew(t, url, defaultProbeConfig()).Measure(context.Background())
	require.Error(t, m.Err)
	assert.Equal(t, 9999.0, m.LatencyMs)
}

func TestMeasure_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := defaultProbeConfig()
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	m := mustNew(t, srv.URL, cfg).Measure(context.Background())

	require.Error(t, m.Err)
	assert.Equal(t, 9999.0, m.LatencyMs)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestMeasure_UnresolvableHost(t *testing.T) {
	cfg := defaultProbeConfig()
	cfg.Timeout = 2 * time.Second

	m := mustNew(t, "http://rpc.nonexistent.invalid", cfg).Measure(context.Background())
	require.Error(t, m.Err)
	assert.Equal(t, 9999.0, m.LatencyMs)
}

func TestMeasure_CustomFailureLatencyAndMethod(t *testing.T) {
	var seen rpcRequest
	srv := httptest.NewServer(rpcHandler(t, `{"jsonrpc":"2.0","id":1,"result":"0x1"}`, &seen, nil))
	defer srv.Close()

	cfg := defaultProbeConfig()
	cfg.Method = "eth_chainId"
	m := mustNew(t, srv.URL, cfg).Measure(context.Background())
	require.NoError(t, m.Err)
	assert.Equal(t, "eth_chainId", seen.Method)
	assert.Zero(t, m.BlockHeight)

	srv.Close()
	cfg.FailureLatencyMs = 1234.5
	m = mustNew(t, srv.URL, cfg).Measure(context.Background())
	assert.Equal(t, 1234.5, m.LatencyMs)
}

func TestNew_ZeroConfigUsesDefaults(t *testing.T) {
	p := mustNew(t, "http://127.0.0.1:1", config.ProbeConfig{})
	assert.Equal(t, config.DefaultProbeTimeout, p.cfg.Timeout)
	assert.Equal(t, config.DefaultFailureLatencyMs, p.cfg.FailureLatencyMs)
	assert.Equal(t, config.DefaultMethod, p.cfg.Method)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		auth     config.AuthConfig
	}{
		{"mtls missing cert", "https://rpc.example.org", config.AuthConfig{Mode: config.AuthMTLS, CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}},
		{"bearer token unset", "https://rpc.example.org", config.AuthConfig{Mode: config.AuthBearer, TokenEnv: "ROLLUPSCORE_TEST_UNSET"}},
		{"apikey unset", "wss://rpc.example.org", config.AuthConfig{Mode: config.AuthAPIKey, Header: "X-Key", KeyEnv: "ROLLUPSCORE_TEST_UNSET"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultProbeConfig()
			cfg.Auth = tc.auth
			_, err := New(tc.endpoint, cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_NegativeFailureLatency(t *testing.T) {
	cfg := defaultProbeConfig()
	cfg.FailureLatencyMs = -1
	_, err := New("http://rpc.example.org", cfg)
	assert.Error(t, err)
}

func TestMeasure_UnusableEndpoint(t *testing.T) {
	endpoints := []string{
		"not-a-url",
		"localhost:8545",
		"http://",
		"ws://",
		"://nope",
		"ftp://rpc.example.org",
	}
	for _, endpoint := range endpoints {
		t.Run(endpoint, func(t *testing.T) {
			p, err := New(endpoint, defaultProbeConfig())
			require.NoError(t, err)

			m := p.Measure(context.Background())
			assert.ErrorIs(t, m.Err, ErrBadEndpoint)
			assert.Equal(t, 9999.0, m.LatencyMs)
			assert.False(t, m.OK())
		})
	}
}

func TestMeasure_UnusableEndpointCustomFailureLatency(t *testing.T) {
	cfg := defaultProbeConfig()
	cfg.FailureLatencyMs = 500
	m := mustNew(t, "not-a-url", cfg).Measure(context.Background())
	assert.ErrorIs(t, m.Err, ErrBadEndpoint)
	assert.Equal(t, 500.0, m.LatencyMs)
}

func TestLatency(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, `{"jsonrpc":"2.0","id":1,"result":"0x2a"}`, nil, nil))
	defer srv.Close()

	l := Latency(context.Background(), srv.URL, defaultProbeConfig())
	assert.GreaterOrEqual(t, l, 0.0)
	assert.Less(t, l, 9999.0)

	assert.Equal(t, 9999.0, Latency(context.Background(), "ftp://rpc.example.org", config.ProbeConfig{}))
	assert.Equal(t, 9999.0, Latency(context.Background(), "http://rpc.example.org", config.ProbeConfig{FailureLatencyMs: -5}))
}

func TestMeasure_HTTPAuth(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("rollupscore", "ci", "kr-token"))
	t.Setenv("ROLLUPSCORE_TEST_KEY", "k-123")
	t.Setenv("ROLLUPSCORE_TEST_TOKEN", "t-456")
	t.Setenv("ROLLUPSCORE_TEST_PASS", "p-789")

	tests := []struct {
		name       string
		auth       config.AuthConfig
		wantHeader string
		wantValue  string
	}{
		{
			name:       "apikey",
			auth:       config.AuthConfig{Mode: config.AuthAPIKey, Header: "X-API-Key", KeyEnv: "ROLLUPSCORE_TEST_KEY"},
			wantHeader: "X-API-Key",
			wantValue:  "k-123",
		},
		{
			name:       "bearer",
			auth:       config.AuthConfig{Mode: config.AuthBearer, TokenEnv: "ROLLUPSCORE_TEST_TOKEN"},
			wantHeader: "Authorization",
			wantValue:  "Bearer t-456",
		},
		{
			name:       "keyring",
			auth:       config.AuthConfig{Mode: config.AuthKeyring, KeyringUser: "ci"},
			wantHeader: "Authorization",
			wantValue:  "Bearer kr-token",
		},
		{
			name:       "basic",
			auth:       config.AuthConfig{Mode: config.AuthBasic, Username: "alice", PasswordEnv: "ROLLUPSCORE_TEST_PASS"},
			wantHeader: "Authorization",
			wantValue:  "Basic YWxpY2U6cC03ODk=",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var hdr http.Header
			srv := httptest.NewServer(rpcHandler(t, `{"jsonrpc":"2.0","id":1,"result":"0x1"}`, nil, &hdr))
			defer srv.Close()

			cfg := defaultProbeConfig()
			cfg.Auth = tc.auth
			m := mustNew(t, srv.URL, cfg).Measure(context.Background())

			require.NoError(t, m.Err)
			assert.Equal(t, tc.wantValue, hdr.Get(tc.wantHeader))
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x0", 0, false},
		{"0x1", 1, false},
		{"0x10d4f", 68943, false},
		{"0xffffffffffffffff", 1<<64 - 1, false},
		{"0x", 0, true},
		{"10d4f", 0, true},
		{"0xzz", 0, true},
		{"0x1ffffffffffffffff", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseQuantity(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrBadQuantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
