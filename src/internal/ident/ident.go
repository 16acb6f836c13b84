// FILE: logsproxy/src/internal/ident/ident.go
package ident

import (
	"crypto/rand"
	"fmt"
)

// Identifier widths used by OTLP traces.
const (
	TraceIDSize = 16
	SpanIDSize  = 8
)

// Generator produces random byte sequences used as trace and span identifiers.
type Generator interface {
	Generate(n int) []byte
}

// Random draws identifiers from the operating system CSPRNG.
type Random struct{}

// Generate returns n cryptographically random bytes. It panics if the platform
// cannot supply entropy, since no identifier can be produced safely.
func (Random) Generate(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("ident: entropy source unavailable: %v", err))
	}
	return b
}

// TraceID returns a fresh 16 byte trace identifier from g.
func TraceID(g Generator) []byte {
	return g.Generate(TraceIDSize)
}

// SpanID returns a fresh 8 byte span identifier from g.
func SpanID(g Generator) []byte {
	return g.Generate(SpanIDSize)
}
