// FILE: logsproxy/src/internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

// validateConfig is the centralized validator for the entire configuration
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Logging == nil {
		cfg.Logging = DefaultLogConfig()
	}
	if err := validateLogConfig(cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateUpstream(&cfg.Upstream); err != nil {
		return fmt.Errorf("upstream config: %w", err)
	}

	if err := validateTranslate(&cfg.Translate); err != nil {
		return fmt.Errorf("translate config: %w", err)
	}

	if err := validateCORS(&cfg.CORS); err != nil {
		return fmt.Errorf("cors config: %w", err)
	}

	if err := validateNetLimit(&cfg.NetLimit); err != nil {
		return fmt.Errorf("net_limit config: %w", err)
	}

	if err := validateMetrics(&cfg.Metrics); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	if cfg.Console != nil {
		validTargets := map[string]bool{
			"stdout": true, "stderr": true, "split": true,
		}
		if !validTargets[cfg.Console.Target] {
			return fmt.Errorf("invalid console target: %s", cfg.Console.Target)
		}

		validFormats := map[string]bool{
			"txt": true, "json": true, "": true,
		}
		if !validFormats[cfg.Console.Format] {
			return fmt.Errorf("invalid console format: %s", cfg.Console.Format)
		}
	}

	if (cfg.Output == "file" || cfg.Output == "both") && cfg.File != nil {
		if err := lconfig.NonEmpty(cfg.File.Directory); err != nil {
			return fmt.Errorf("file output requires a directory: %w", err)
		}
	}

	return nil
}

func validateServer(s *ServerConfig) error {
	if err := lconfig.Port(s.Port); err != nil {
		return err
	}

	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Host != "0.0.0.0" && s.Host != "localhost" {
		if err := lconfig.IPAddress(s.Host); err != nil {
			return err
		}
	}

	if s.ReadTimeoutMS <= 0 {
		s.ReadTimeoutMS = 10000
	}
	if s.WriteTimeoutMS <= 0 {
		s.WriteTimeoutMS = 10000
	}
	if s.MaxRequestBodySize <= 0 {
		s.MaxRequestBodySize = 16 * 1024 * 1024
	}

	if s.TLS != nil && s.TLS.Enabled {
		if s.TLS.CertFile == "" || s.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert/key files not specified")
		}
		if _, err := os.Stat(s.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file: %w", err)
		}
		if _, err := os.Stat(s.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file: %w", err)
		}
		if s.TLS.ClientAuth && s.TLS.ClientCAFile == "" {
			return fmt.Errorf("client_auth is enabled but client_ca_file is not specified")
		}
	}

	return nil
}

func validateUpstream(u *UpstreamConfig) error {
	if err := lconfig.NonEmpty(u.URLTemplate); err != nil {
		return fmt.Errorf("url_template: %w", err)
	}

	probe := strings.ReplaceAll(u.URLTemplate, "{region}", "region")
	parsed, err := url.Parse(probe)
	if err != nil {
		return fmt.Errorf("invalid url_template: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url_template must use http or https: %s", u.URLTemplate)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url_template has no host: %s", u.URLTemplate)
	}

	if err := lconfig.NonEmpty(u.DefaultRegion); err != nil {
		return fmt.Errorf("default_region: %w", err)
	}

	re, err := regexp.Compile(u.TokenPattern)
	if err != nil {
		return fmt.Errorf("invalid token_pattern: %w", err)
	}
	if re.NumSubexp() != 1 {
		return fmt.Errorf("token_pattern must have exactly one capture group")
	}

	if u.CAFile != "" {
		if _, err := os.Stat(u.CAFile); err != nil {
			return fmt.Errorf("ca_file: %w", err)
		}
	}

	if u.TimeoutMS <= 0 {
		u.TimeoutMS = 30000
	}
	if u.MaxConnsPerHost <= 0 {
		u.MaxConnsPerHost = 64
	}

	return nil
}

func validateTranslate(t *TranslateConfig) error {
	if err := lconfig.NonEmpty(t.ProxyName); err != nil {
		return fmt.Errorf("proxy_name: %w", err)
	}
	if t.MaxNameLength < 1 {
		return fmt.Errorf("max_name_length must be positive: %d", t.MaxNameLength)
	}
	if t.PlaceholderName == "" {
		t.PlaceholderName = "unknown log"
	}
	return nil
}

func validateCORS(c *CORSConfig) error {
	if err := lconfig.NonEmpty(c.DefaultOrigin); err != nil {
		return fmt.Errorf("default_origin: %w", err)
	}
	if !strings.HasPrefix(c.DefaultOrigin, "http://") && !strings.HasPrefix(c.DefaultOrigin, "https://") {
		return fmt.Errorf("default_origin must be an http(s) origin: %s", c.DefaultOrigin)
	}
	for i, suffix := range c.AllowedOriginSuffixes {
		if suffix == "" {
			return fmt.Errorf("allowed_origin_suffixes[%d] is empty", i)
		}
	}
	return nil
}

func validateNetLimit(n *NetLimitConfig) error {
	if !n.Enabled {
		return nil
	}
	if n.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive: %f", n.RequestsPerSecond)
	}
	if n.BurstSize < 1 {
		return fmt.Errorf("burst_size must be at least 1: %d", n.BurstSize)
	}
	if n.CleanupIntervalS <= 0 {
		n.CleanupIntervalS = 60
	}
	if n.ResponseCode == 0 {
		n.ResponseCode = 429
	}
	if n.ResponseCode < 400 || n.ResponseCode > 599 {
		return fmt.Errorf("response_code must be 4xx or 5xx: %d", n.ResponseCode)
	}
	return nil
}

func validateMetrics(m *MetricsConfig) error {
	if !m.Enabled {
		return nil
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
	if !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("path must start with '/': %s", m.Path)
	}
	// "/" and "/v1/" belong to the proxy routes
	if m.Path == "/" || strings.HasPrefix(m.Path, "/v1/") {
		return fmt.Errorf("path conflicts with proxy routes: %s", m.Path)
	}
	return nil
}
