// FILE: logsproxy/src/internal/config/config.go
package config

// Config is the complete logsproxy configuration
type Config struct {
	// Suppress console output during startup
	Quiet bool `toml:"quiet"`

	Server    ServerConfig    `toml:"server"`
	Upstream  UpstreamConfig  `toml:"upstream"`
	Translate TranslateConfig `toml:"translate"`
	CORS      CORSConfig      `toml:"cors"`
	NetLimit  NetLimitConfig  `toml:"net_limit"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Logging   *LogConfig      `toml:"logging"`
}

// ServerConfig controls the inbound HTTP listener
type ServerConfig struct {
	Host               string     `toml:"host"`
	Port               int64      `toml:"port"`
	ReadTimeoutMS      int64      `toml:"read_timeout_ms"`
	WriteTimeoutMS     int64      `toml:"write_timeout_ms"`
	MaxRequestBodySize int64      `toml:"max_request_body_size"`
	TLS                *TLSConfig `toml:"tls"`
}

// TLSConfig enables HTTPS on the inbound listener
type TLSConfig struct {
	Enabled  bool   `toml:"enabled"`
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`

	// "TLS1.2" or "TLS1.3"
	MinVersion string `toml:"min_version"`

	// Comma-separated cipher suite names, empty for secure defaults
	CipherSuites string `toml:"cipher_suites"`

	// Require client certificates signed by ClientCAFile
	ClientAuth   bool   `toml:"client_auth"`
	ClientCAFile string `toml:"client_ca_file"`
}

// UpstreamConfig selects and reaches the collector traces are forwarded to
type UpstreamConfig struct {
	// Base URL template, "{region}" is replaced by the token's region tag
	URLTemplate string `toml:"url_template"`

	// Region used when the token carries none
	DefaultRegion string `toml:"default_region"`

	// Regex with one capture group extracting the region from the token
	TokenPattern string `toml:"token_pattern"`

	TimeoutMS       int64 `toml:"timeout_ms"`
	MaxConnsPerHost int64 `toml:"max_conns_per_host"`

	// Extra CA bundle for verifying the upstream, system roots when empty
	CAFile             string `toml:"ca_file"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// TranslateConfig tunes the log to span mapping
type TranslateConfig struct {
	ProxyName          string `toml:"proxy_name"`
	MaxNameLength      int64  `toml:"max_name_length"`
	PlaceholderName    string `toml:"placeholder_name"`
	PreferObservedTime bool   `toml:"prefer_observed_time"`
}

// CORSConfig controls Access-Control-Allow-Origin decisions
type CORSConfig struct {
	DefaultOrigin         string   `toml:"default_origin"`
	AllowLocalhost        bool     `toml:"allow_localhost"`
	AllowedOriginSuffixes []string `toml:"allowed_origin_suffixes"`
}

// NetLimitConfig controls per-client inbound rate limiting
type NetLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int64   `toml:"burst_size"`
	CleanupIntervalS  int64   `toml:"cleanup_interval_s"`
	ResponseCode      int64   `toml:"response_code"`
	ResponseMessage   string  `toml:"response_message"`
}

// MetricsConfig exposes Prometheus metrics on the gateway listener
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8787,
			ReadTimeoutMS:      10000,
			WriteTimeoutMS:     10000,
			MaxRequestBodySize: 16 * 1024 * 1024,
			TLS:                &TLSConfig{},
		},
		Upstream: UpstreamConfig{
			URLTemplate:     "https://logfire-{region}.pydantic.dev",
			DefaultRegion:   "us",
			TokenPattern:    `^pylf_v[0-9]+_([a-z]+)_[a-zA-Z0-9]+$`,
			TimeoutMS:       30000,
			MaxConnsPerHost: 64,
		},
		Translate: TranslateConfig{
			ProxyName:       "logfire-logs-proxy",
			MaxNameLength:   120,
			PlaceholderName: "unknown log",
		},
		CORS: CORSConfig{
			DefaultOrigin:         "https://pydantic.run",
			AllowLocalhost:        true,
			AllowedOriginSuffixes: []string{".pydantic.workers.dev"},
		},
		NetLimit: NetLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			BurstSize:         100,
			CleanupIntervalS:  60,
			ResponseCode:      429,
			ResponseMessage:   "Rate limit exceeded",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
		Logging: DefaultLogConfig(),
	}
}
