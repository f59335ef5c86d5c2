package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/rollupscore/rollupscore/internal/catalog"
	"github.com/rollupscore/rollupscore/internal/gate"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultModel            = catalog.DefaultKey
	DefaultFormat           = FormatText
	DefaultLogLevel         = "info"
	DefaultProbeTimeout     = 10 * time.Second
	DefaultFailureLatencyMs = 9999.0
	DefaultMethod           = "eth_blockNumber"
	DefaultKeyringService   = "rollupscore"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatProm = "prom"
)

// Auth modes.
const (
	AuthNone    = "none"
	AuthAPIKey  = "apikey"
	AuthBearer  = "bearer"
	AuthBasic   = "basic"
	AuthKeyring = "keyring"
	AuthMTLS    = "mtls"
)

// ErrMissingSecret is returned when an auth mode needs a secret that cannot be resolved.
var ErrMissingSecret = errors.New("auth secret not found")

// Config is the top-level configuration of one evaluation run.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	// RPC is the endpoint URL to probe (http, https, ws or wss).
	RPC string `yaml:"rpc"`

	// Model is the catalog key of the rollup profile to score.
	Model string `yaml:"model"`

	// Format selects the report format: text | json | yaml | prom.
	Format string `yaml:"format"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Probe configures the latency measurement.
	Probe ProbeConfig `yaml:"probe"`

	// FailIf lists gate conditions such as "final_score < 0.5". The run exits
	// non-zero when any of them fires.
	FailIf []string `yaml:"fail_if"`
}

// ProbeConfig holds the latency probe settings.
type ProbeConfig struct {
	// Timeout bounds the single RPC round-trip.
	Timeout time.Duration `yaml:"timeout"`

	// FailureLatencyMs is the latency reported when the probe fails.
	// Zero means DefaultFailureLatencyMs; negative values are rejected.
	FailureLatencyMs float64 `yaml:"failure_latency_ms"`

	// Method is the JSON-RPC method used as the probe query.
	Method string `yaml:"method"`

	// Auth configures how the probe authenticates to the endpoint.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for the RPC endpoint.
type AuthConfig struct {
	// Mode is one of: none | apikey | bearer | basic | keyring | mtls.
	Mode string `yaml:"mode"`

	// API key fields, used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv holds the bearer token variable name, used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields, used when Mode == "basic".
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`

	// OS keyring fields, used when Mode == "keyring". The stored secret is
	// sent as a bearer token.
	KeyringService string `yaml:"keyring_service"`
	KeyringUser    string `yaml:"keyring_user"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// KeyringToken reads the token stored in the OS keyring under
// KeyringService/KeyringUser.
func (a AuthConfig) KeyringToken() (string, error) {
	service := a.KeyringService
	if service == "" {
		service = DefaultKeyringService
	}
	tok, err := keyring.Get(service, a.KeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("config: keyring %s/%s: %w", service, a.KeyringUser, ErrMissingSecret)
		}
		return "", fmt.Errorf("config: keyring %s/%s: %w", service, a.KeyringUser, err)
	}
	return tok, nil
}

// BearerToken resolves the token for the bearer and keyring modes.
// Other modes return an empty token and no error.
func (a AuthConfig) BearerToken() (string, error) {
	switch a.Mode {
	case AuthBearer:
		tok := a.Token()
		if tok == "" {
			return "", fmt.Errorf("config: env %q: %w", a.TokenEnv, ErrMissingSecret)
		}
		return tok, nil
	case AuthKeyring:
		return a.KeyringToken()
	default:
		return "", nil
	}
}

// TLSConfig holds TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults. The endpoint is
// not required here since it may still come from a flag; call Validate once
// every source has been merged.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validateOptions(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Model:    DefaultModel,
		Format:   DefaultFormat,
		LogLevel: DefaultLogLevel,
		Probe: ProbeConfig{
			Timeout:          DefaultProbeTimeout,
			FailureLatencyMs: DefaultFailureLatencyMs,
			Method:           DefaultMethod,
			Auth:             AuthConfig{Mode: AuthNone},
		},
	}
}

// Validate checks the fully merged configuration. The endpoint only has to
// be present: an unusable URL is a probe failure, not a config error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPC) == "" {
		return fmt.Errorf("config: rpc is required")
	}
	if err := validateOptions(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// validateOptions checks everything except the endpoint.
func validateOptions(c *Config) error {
	if !catalog.Default().Has(c.Model) {
		return fmt.Errorf("model: %w: %q (valid: %v)", catalog.ErrUnknownProfile, c.Model, catalog.Default().Keys())
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML, FormatProm:
	default:
		return fmt.Errorf("format: unknown format %q", c.Format)
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be positive")
	}
	if c.Probe.FailureLatencyMs < 0 || math.IsNaN(c.Probe.FailureLatencyMs) {
		return fmt.Errorf("probe.failure_latency_ms must be non-negative")
	}
	if c.Probe.Method == "" {
		return fmt.Errorf("probe.method is required")
	}
	if err := validateAuth(c.Probe.Auth); err != nil {
		return fmt.Errorf("probe.auth: %w", err)
	}
	for i, expr := range c.FailIf {
		if _, err := gate.Parse(expr); err != nil {
			return fmt.Errorf("fail_if[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAuth(a AuthConfig) error {
	switch a.Mode {
	case AuthNone, "":
	case AuthAPIKey:
		if a.Header == "" || a.KeyEnv == "" {
			return fmt.Errorf("apikey mode requires header and key_env")
		}
	case AuthBearer:
		if a.TokenEnv == "" {
			return fmt.Errorf("bearer mode requires token_env")
		}
	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("basic mode requires username")
		}
	case AuthKeyring:
		if a.KeyringUser == "" {
			return fmt.Errorf("keyring mode requires keyring_user")
		}
	case AuthMTLS:
		if a.CertFile == "" || a.KeyFile == "" {
			return fmt.Errorf("mtls mode requires cert_file and key_file")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", a.Mode)
	}
	return nil
}
