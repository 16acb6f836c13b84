// FILE: logsproxy/src/internal/tls/tls.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"logsproxy/src/internal/config"
)

var defaultCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// ServerConfig builds the listener TLS configuration. It returns nil when TLS
// is disabled.
func ServerConfig(cfg *config.TLSConfig) (*tls.Config, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server cert/key: %w", err)
	}

	minVersion, err := parseTLSVersion(cfg.MinVersion, tls.VersionTLS12)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
		CipherSuites: defaultCipherSuites,
	}

	if cfg.CipherSuites != "" {
		suites, err := parseCipherSuites(cfg.CipherSuites)
		if err != nil {
			return nil, err
		}
		tlsConfig.CipherSuites = suites
	}

	// mTLS
	if cfg.ClientAuth {
		if cfg.ClientCAFile == "" {
			return nil, fmt.Errorf("client_auth is enabled but client_ca_file is not specified")
		}
		pool, err := loadCertPool(cfg.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("client CA: %w", err)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tlsConfig, nil
}

// ClientConfig builds the TLS configuration for upstream connections
func ClientConfig(cfg config.UpstreamConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CAFile != "" {
		pool, err := loadCertPool(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("upstream CA: %w", err)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
