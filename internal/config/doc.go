// Package config loads the optional rollupscore configuration file.
//
// Top-level types:
//   - Config: rpc, model, format, log_level, probe, fail_if
//   - ProbeConfig: timeout (10s), failure_latency_ms (9999), method
//     (eth_blockNumber), auth, tls
//   - AuthConfig: mode (none|apikey|bearer|basic|keyring|mtls); secrets are
//     resolved from environment variables (Key, Token, Password) or the OS
//     keyring (KeyringToken), never stored inline
//
// Load(path) reads the YAML file, applies defaults, then validates everything
// except the endpoint. Flags are merged on top by the CLI, which then calls
// Validate on the result.
package config
