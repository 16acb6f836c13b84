// FILE: logsproxy/src/internal/gateway/cors.go
package gateway

import (
	"strings"

	"logsproxy/src/internal/config"
)

// originPolicy decides the Access-Control-Allow-Origin value for a request
type originPolicy struct {
	defaultOrigin  string
	allowLocalhost bool
	suffixes       []string
}

func newOriginPolicy(cfg config.CORSConfig) *originPolicy {
	def := cfg.DefaultOrigin
	if def == "" {
		def = "https://pydantic.run"
	}
	return &originPolicy{
		defaultOrigin:  def,
		allowLocalhost: cfg.AllowLocalhost,
		suffixes:       cfg.AllowedOriginSuffixes,
	}
}

// allow echoes localhost and allow-listed origins, anything else gets the
// default origin
func (p *originPolicy) allow(origin string) string {
	if origin == "" {
		return p.defaultOrigin
	}
	if p.allowLocalhost && strings.HasPrefix(origin, "http://localhost:") {
		return origin
	}
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(origin, suffix) {
			return origin
		}
	}
	return p.defaultOrigin
}
