package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"

	"github.com/rollupscore/rollupscore/internal/config"
)

// httpQuerier sends JSON-RPC requests as HTTP POSTs.
type httpQuerier struct {
	endpoint  string
	client    *http.Client
	transport *http.Transport
}

func newHTTPQuerier(endpoint string, cfg config.ProbeConfig) (*httpQuerier, error) {
	tlsCfg, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsCfg,
	}
	rt, err := wrapAuth(transport, cfg.Auth)
	if err != nil {
		return nil, err
	}
	return &httpQuerier{
		endpoint:  endpoint,
		client:    &http.Client{Transport: rt, Timeout: cfg.Timeout},
		transport: transport,
	}, nil
}

func (h *httpQuerier) query(ctx context.Context, req rpcRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return decodeResponse(resp.Body)
}

func (h *httpQuerier) close() {
	h.transport.CloseIdleConnections()
}

// authRoundTripper injects API key or basic-auth headers into every request.
type authRoundTripper struct {
	base   http.RoundTripper
	header string
	value  string
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(t.header, t.value)
	return t.base.RoundTrip(req)
}

// wrapAuth layers the configured authentication over base. Bearer tokens
// (from the environment or the OS keyring) go through oauth2.Transport.
func wrapAuth(base http.RoundTripper, a config.AuthConfig) (http.RoundTripper, error) {
	switch a.Mode {
	case config.AuthBearer, config.AuthKeyring:
		tok, err := a.BearerToken()
		if err != nil {
			return nil, err
		}
		return &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Bearer", AccessToken: tok}),
			Base:   base,
		}, nil
	case config.AuthAPIKey, config.AuthBasic:
		h, v, err := staticAuthHeader(a)
		if err != nil {
			return nil, err
		}
		return &authRoundTripper{base: base, header: h, value: v}, nil
	default:
		return base, nil
	}
}

// authHeaders returns the handshake headers for the WebSocket transport.
func authHeaders(a config.AuthConfig) (http.Header, error) {
	h := http.Header{}
	switch a.Mode {
	case config.AuthBearer, config.AuthKeyring:
		tok, err := a.BearerToken()
		if err != nil {
			return nil, err
		}
		h.Set("Authorization", "Bearer "+tok)
	case config.AuthAPIKey, config.AuthBasic:
		name, v, err := staticAuthHeader(a)
		if err != nil {
			return nil, err
		}
		h.Set(name, v)
	}
	return h, nil
}

// staticAuthHeader resolves the header for the apikey and basic modes.
func staticAuthHeader(a config.AuthConfig) (string, string, error) {
	if a.Mode == config.AuthBasic {
		cred := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password()))
		return "Authorization", "Basic " + cred, nil
	}
	key := a.Key()
	if key == "" {
		return "", "", fmt.Errorf("env %q: %w", a.KeyEnv, config.ErrMissingSecret)
	}
	return a.Header, key, nil
}

// buildTLSConfig constructs the TLS settings shared by both transports.
func buildTLSConfig(cfg config.ProbeConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	if cfg.Auth.Mode != config.AuthMTLS {
		return tlsCfg, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.Auth.CertFile, cfg.Auth.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client cert: %w", err)
	}
	tlsCfg.Certificates = []tls.Certificate{cert}

	if cfg.Auth.CAFile != "" {
		caPEM, err := os.ReadFile(cfg.Auth.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no valid certs found in ca file %q", cfg.Auth.CAFile)
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}
