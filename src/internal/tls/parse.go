// FILE: logsproxy/src/internal/tls/parse.go
package tls

import (
	"crypto/tls"
	"fmt"
	"strings"
)

// parseTLSVersion converts "TLS1.2" or "TLS1.3" into a crypto/tls constant.
// Versions below 1.2 are not accepted.
func parseTLSVersion(version string, defaultVersion uint16) (uint16, error) {
	switch strings.ToUpper(strings.TrimSpace(version)) {
	case "":
		return defaultVersion, nil
	case "TLS1.2", "TLS12":
		return tls.VersionTLS12, nil
	case "TLS1.3", "TLS13":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", version)
	}
}

var suiteMap = map[string]uint16{
	"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384":         tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256":         tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384":       tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256":       tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256":   tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256": tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}

// parseCipherSuites converts a comma-separated list of suite names. Unknown
// names are an error rather than silently dropped.
func parseCipherSuites(suites string) ([]uint16, error) {
	var result []uint16
	for _, suite := range strings.Split(suites, ",") {
		suite = strings.TrimSpace(suite)
		if suite == "" {
			continue
		}
		id, ok := suiteMap[suite]
		if !ok {
			return nil, fmt.Errorf("unknown cipher suite %q", suite)
		}
		result = append(result, id)
	}
	return result, nil
}

// VersionString converts a crypto/tls version constant to its config form
func VersionString(version uint16) string {
	switch version {
	case tls.VersionTLS12:
		return "TLS1.2"
	case tls.VersionTLS13:
		return "TLS1.3"
	default:
		return fmt.Sprintf("0x%04x", version)
	}
}
