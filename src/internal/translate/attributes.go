// FILE: logsproxy/src/internal/translate/attributes.go
package translate

import (
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
)

// Attribute keys injected during translation.
const (
	AttrProxy                   = "proxy"
	AttrSpanType                = "logfire.span_type"
	AttrLevelNum                = "logfire.level_num"
	AttrEventName               = "log_event_name"
	AttrTimeUnixNano            = "log_time_unix_nano"
	AttrObservedTimeUnixNano    = "log_observed_time_unix_nano"
	AttrBody                    = "log_body"
	SpanTypeLog                 = "log"
	DefaultProxyName            = "logfire-logs-proxy"
	DefaultPlaceholderName      = "unknown log"
	DefaultMaxNameLength        = 120
	truncationMarker            = "…"
	maxInjectedRecordAttributes = 6
)

func stringAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key:   key,
		Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}},
	}
}

func intAttr(key string, value int64) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key:   key,
		Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: value}},
	}
}

// withExtra copies attrs into a new slice with room for extra entries, so
// appends never write into the caller's backing array.
func withExtra(attrs []*commonpb.KeyValue, extra int) []*commonpb.KeyValue {
	out := make([]*commonpb.KeyValue, len(attrs), len(attrs)+extra)
	copy(out, attrs)
	return out
}
