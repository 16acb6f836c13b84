// FILE: logsproxy/src/internal/region/region.go
package region

import (
	"fmt"
	"regexp"
	"strings"
)

// Defaults matching the hosted Logfire deployment.
const (
	DefaultTokenPattern = `^pylf_v[0-9]+_([a-z]+)_[a-zA-Z0-9]+$`
	DefaultRegion       = "us"
	DefaultURLTemplate  = "https://logfire-{region}.pydantic.dev"

	placeholder = "{region}"
)

// Resolver maps an Authorization header to the upstream base URL of the
// region embedded in the token.
type Resolver struct {
	pattern       *regexp.Regexp
	defaultRegion string
	urlTemplate   string
}

// New compiles the token pattern. The pattern must have exactly one capture
// group holding the region tag.
func New(tokenPattern, defaultRegion, urlTemplate string) (*Resolver, error) {
	if tokenPattern == "" {
		tokenPattern = DefaultTokenPattern
	}
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}

	re, err := regexp.Compile(tokenPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid token pattern: %w", err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("token pattern must have exactly one capture group, has %d", re.NumSubexp())
	}

	return &Resolver{
		pattern:       re,
		defaultRegion: defaultRegion,
		urlTemplate:   strings.TrimRight(urlTemplate, "/"),
	}, nil
}

// Region returns the region tag of the token in authorization, or the default
// region when the header is empty or does not match.
func (r *Resolver) Region(authorization string) string {
	token := strings.TrimPrefix(authorization, "Bearer ")
	if m := r.pattern.FindStringSubmatch(token); m != nil && m[1] != "" {
		return m[1]
	}
	return r.defaultRegion
}

// BaseURL returns the upstream base URL, without trailing slash, for the
// given Authorization header.
func (r *Resolver) BaseURL(authorization string) string {
	return strings.ReplaceAll(r.urlTemplate, placeholder, r.Region(authorization))
}
