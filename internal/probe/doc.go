// Package probe measures the round-trip latency of a blockchain RPC endpoint.
//
// New(endpoint, cfg) returns a Prober whose transport follows the URL scheme:
// JSON-RPC over HTTP POST for http/https, over a WebSocket (gorilla/websocket)
// for ws/wss. A URL that cannot be probed at all still yields a Prober whose
// Measure fails with ErrBadEndpoint. Authentication (API key, basic, bearer via oauth2, OS keyring,
// mTLS) is layered onto the transport in client.go.
//
// Measure sends exactly one request (eth_blockNumber by default) bounded by
// cfg.Timeout, with no retries. It never returns an error: any fault becomes
// LatencyMs == cfg.FailureLatencyMs (9999 by default) with the cause kept in
// Measurement.Err. Connections are released on both paths.
package probe
