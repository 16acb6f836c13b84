// FILE: logsproxy/src/internal/otlpwire/validate.go
package otlpwire

import (
	"fmt"
	"unicode/utf8"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

// ValidateTraces walks an assembled trace export request and returns the first
// violation of the trace-export schema as a *ValidationError, or nil.
//
// The generated Go types already enforce scalar field types, so the pass
// covers what the type system cannot: nil entries in repeated fields,
// fixed identifier widths, UTF-8 validity of proto3 strings, and the
// start/end ordering of spans.
func ValidateTraces(req *coltracepb.ExportTraceServiceRequest) error {
	if req == nil {
		return &ValidationError{Reason: "request is nil"}
	}

	for i, rs := range req.ResourceSpans {
		path := fmt.Sprintf("resource_spans[%d]", i)
		if rs == nil {
			return &ValidationError{Path: path, Reason: "nil entry"}
		}
		if err := validateResource(path+".resource", rs.Resource); err != nil {
			return err
		}
		if !utf8.ValidString(rs.SchemaUrl) {
			return invalidUTF8(path + ".schema_url")
		}
		for j, ss := range rs.ScopeSpans {
			if err := validateScopeSpans(fmt.Sprintf("%s.scope_spans[%d]", path, j), ss); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateResource(path string, r *resourcepb.Resource) error {
	if r == nil {
		return nil
	}
	return validateAttributes(path+".attributes", r.Attributes)
}

func validateScopeSpans(path string, ss *tracepb.ScopeSpans) error {
	if ss == nil {
		return &ValidationError{Path: path, Reason: "nil entry"}
	}
	if !utf8.ValidString(ss.SchemaUrl) {
		return invalidUTF8(path + ".schema_url")
	}
	if sc := ss.Scope; sc != nil {
		if !utf8.ValidString(sc.Name) {
			return invalidUTF8(path + ".scope.name")
		}
		if !utf8.ValidString(sc.Version) {
			return invalidUTF8(path + ".scope.version")
		}
		if err := validateAttributes(path+".scope.attributes", sc.Attributes); err != nil {
			return err
		}
	}
	for k, span := range ss.Spans {
		if err := validateSpan(fmt.Sprintf("%s.spans[%d]", path, k), span); err != nil {
			return err
		}
	}
	return nil
}

func validateSpan(path string, s *tracepb.Span) error {
	if s == nil {
		return &ValidationError{Path: path, Reason: "nil entry"}
	}
	if len(s.TraceId) != TraceIDSize {
		return &ValidationError{Path: path + ".trace_id",
			Reason: fmt.Sprintf("want %d bytes, got %d", TraceIDSize, len(s.TraceId))}
	}
	if len(s.SpanId) != SpanIDSize {
		return &ValidationError{Path: path + ".span_id",
			Reason: fmt.Sprintf("want %d bytes, got %d", SpanIDSize, len(s.SpanId))}
	}
	if n := len(s.ParentSpanId); n != 0 && n != SpanIDSize {
		return &ValidationError{Path: path + ".parent_span_id",
			Reason: fmt.Sprintf("want 0 or %d bytes, got %d", SpanIDSize, n)}
	}
	if !utf8.ValidString(s.Name) {
		return invalidUTF8(path + ".name")
	}
	if !utf8.ValidString(s.TraceState) {
		return invalidUTF8(path + ".trace_state")
	}
	if s.EndTimeUnixNano < s.StartTimeUnixNano {
		return &ValidationError{Path: path + ".end_time_unix_nano", Reason: "precedes start_time_unix_nano"}
	}
	if err := validateAttributes(path+".attributes", s.Attributes); err != nil {
		return err
	}

	for i, ev := range s.Events {
		evPath := fmt.Sprintf("%s.events[%d]", path, i)
		if ev == nil {
			return &ValidationError{Path: evPath, Reason: "nil entry"}
		}
		if !utf8.ValidString(ev.Name) {
			return invalidUTF8(evPath + ".name")
		}
		if err := validateAttributes(evPath+".attributes", ev.Attributes); err != nil {
			return err
		}
	}

	for i, link := range s.Links {
		linkPath := fmt.Sprintf("%s.links[%d]", path, i)
		if link == nil {
			return &ValidationError{Path: linkPath, Reason: "nil entry"}
		}
		if len(link.TraceId) != TraceIDSize || len(link.SpanId) != SpanIDSize {
			return &ValidationError{Path: linkPath, Reason: "link identifiers have wrong width"}
		}
		if err := validateAttributes(linkPath+".attributes", link.Attributes); err != nil {
			return err
		}
	}

	if st := s.Status; st != nil && !utf8.ValidString(st.Message) {
		return invalidUTF8(path + ".status.message")
	}
	return nil
}

func validateAttributes(path string, attrs []*commonpb.KeyValue) error {
	for i, kv := range attrs {
		kvPath := fmt.Sprintf("%s[%d]", path, i)
		if kv == nil {
			return &ValidationError{Path: kvPath, Reason: "nil entry"}
		}
		if !utf8.ValidString(kv.Key) {
			return invalidUTF8(kvPath + ".key")
		}
		if err := validateValue(kvPath+".value", kv.Value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, v *commonpb.AnyValue) error {
	switch x := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		if !utf8.ValidString(x.StringValue) {
			return invalidUTF8(path + ".string_value")
		}
	case *commonpb.AnyValue_ArrayValue:
		if x.ArrayValue == nil {
			return &ValidationError{Path: path + ".array_value", Reason: "nil array"}
		}
		for i, elem := range x.ArrayValue.Values {
			elemPath := fmt.Sprintf("%s.array_value.values[%d]", path, i)
			if elem == nil {
				return &ValidationError{Path: elemPath, Reason: "nil entry"}
			}
			if err := validateValue(elemPath, elem); err != nil {
				return err
			}
		}
	case *commonpb.AnyValue_KvlistValue:
		if x.KvlistValue == nil {
			return &ValidationError{Path: path + ".kvlist_value", Reason: "nil kvlist"}
		}
		return validateAttributes(path+".kvlist_value.values", x.KvlistValue.Values)
	}
	return nil
}

func invalidUTF8(path string) error {
	return &ValidationError{Path: path, Reason: "string is not valid UTF-8"}
}
