package probe

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rollupscore/rollupscore/internal/config"
)

// wsQuerier sends one JSON-RPC request over a fresh WebSocket connection.
// The handshake is part of the measured round-trip, as a new HTTP
// connection is for the HTTP transport.
type wsQuerier struct {
	endpoint string
	dialer   *websocket.Dialer
	header   http.Header
}

func newWSQuerier(endpoint string, cfg config.ProbeConfig) (*wsQuerier, error) {
	tlsCfg, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	header, err := authHeaders(cfg.Auth)
	if err != nil {
		return nil, err
	}
	return &wsQuerier{
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.Timeout,
			TLSClientConfig:  tlsCfg,
		},
		header: header,
	}, nil
}

func (w *wsQuerier) query(ctx context.Context, req rpcRequest) ([]byte, error) {
	conn, resp, err := w.dialer.DialContext(ctx, w.endpoint, w.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("websocket write: %w", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return decodeResponse(bytes.NewReader(data))
}

// close is a no-op: each query owns and closes its connection.
func (w *wsQuerier) close() {}
