// FILE: logsproxy/src/internal/otlpwire/errors.go
package otlpwire

import "fmt"

// DecodeError reports inbound bytes that do not conform to the log-export schema.
type DecodeError struct {
	Format string // "protobuf" or "json"
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s log export request: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError reports the first schema violation found in an assembled
// trace export request. Path uses the proto field names, e.g.
// "resource_spans[0].scope_spans[1].spans[2].trace_id".
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid trace export request: " + e.Reason
	}
	return fmt.Sprintf("invalid trace export request: %s: %s", e.Path, e.Reason)
}
