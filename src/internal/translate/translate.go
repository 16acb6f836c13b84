// FILE: logsproxy/src/internal/translate/translate.go
package translate

import (
	"fmt"

	"logsproxy/src/internal/ident"
	"logsproxy/src/internal/otlpwire"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// Options tunes the log to span mapping.
type Options struct {
	// ProxyName is the value of the "proxy" attribute appended to every resource.
	ProxyName string

	// MaxNameLength caps span names in runes, truncation marker included.
	MaxNameLength int

	// PlaceholderName is used when a record has no body.
	PlaceholderName string

	// PreferObservedTime picks observedTimeUnixNano over timeUnixNano for the
	// span timestamp when both are set.
	PreferObservedTime bool
}

// DefaultOptions returns the mapping used by the hosted proxy.
func DefaultOptions() Options {
	return Options{
		ProxyName:       DefaultProxyName,
		MaxNameLength:   DefaultMaxNameLength,
		PlaceholderName: DefaultPlaceholderName,
	}
}

// Translator maps OTLP log export requests to OTLP trace export requests.
// It holds no per-request state and is safe for concurrent use.
type Translator struct {
	opts Options
	ids  ident.Generator
}

// New creates a translator. Zero fields in opts fall back to DefaultOptions,
// and a nil generator falls back to ident.Random.
func New(opts Options, ids ident.Generator) *Translator {
	def := DefaultOptions()
	if opts.ProxyName == "" {
		opts.ProxyName = def.ProxyName
	}
	if opts.MaxNameLength <= 0 {
		opts.MaxNameLength = def.MaxNameLength
	}
	if opts.PlaceholderName == "" {
		opts.PlaceholderName = def.PlaceholderName
	}
	if ids == nil {
		ids = ident.Random{}
	}
	return &Translator{opts: opts, ids: ids}
}

// Translate converts every log record in req into a zero-duration span.
// It returns nil, nil when req carries no resource logs. A non-nil error means
// the assembled request failed schema validation and must not be sent.
func (t *Translator) Translate(req *collogspb.ExportLogsServiceRequest) (*coltracepb.ExportTraceServiceRequest, error) {
	if len(req.GetResourceLogs()) == 0 {
		return nil, nil
	}

	out := &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: make([]*tracepb.ResourceSpans, 0, len(req.ResourceLogs)),
	}
	for _, rl := range req.ResourceLogs {
		out.ResourceSpans = append(out.ResourceSpans, t.mapResource(rl))
	}

	if err := otlpwire.ValidateTraces(out); err != nil {
		return nil, fmt.Errorf("translated request rejected: %w", err)
	}
	return out, nil
}

func (t *Translator) mapResource(rl *logspb.ResourceLogs) *tracepb.ResourceSpans {
	rs := &tracepb.ResourceSpans{SchemaUrl: rl.GetSchemaUrl()}

	if res := rl.GetResource(); res != nil {
		attrs := withExtra(res.Attributes, 1)
		attrs = append(attrs, stringAttr(AttrProxy, t.opts.ProxyName))
		rs.Resource = &resourcepb.Resource{
			Attributes:             attrs,
			DroppedAttributesCount: res.DroppedAttributesCount,
		}
	}

	if scopes := rl.GetScopeLogs(); scopes != nil {
		rs.ScopeSpans = make([]*tracepb.ScopeSpans, 0, len(scopes))
		for _, sl := range scopes {
			rs.ScopeSpans = append(rs.ScopeSpans, t.mapScope(sl))
		}
	}
	return rs
}

func (t *Translator) mapScope(sl *logspb.ScopeLogs) *tracepb.ScopeSpans {
	ss := &tracepb.ScopeSpans{
		Scope:     sl.GetScope(),
		SchemaUrl: sl.GetSchemaUrl(),
	}

	if records := sl.GetLogRecords(); records != nil {
		ss.Spans = make([]*tracepb.Span, 0, len(records))
		for _, lr := range records {
			ss.Spans = append(ss.Spans, t.mapLogRecord(lr))
		}
	}
	return ss
}
