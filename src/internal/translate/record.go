// FILE: logsproxy/src/internal/translate/record.go
package translate

import (
	"unicode/utf8"

	"logsproxy/src/internal/ident"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

func (t *Translator) mapLogRecord(lr *logspb.LogRecord) *tracepb.Span {
	ts := t.timestamp(lr)

	attrs := withExtra(lr.GetAttributes(), maxInjectedRecordAttributes)
	attrs = append(attrs, stringAttr(AttrSpanType, SpanTypeLog))
	if sev := lr.GetSeverityNumber(); sev != logspb.SeverityNumber_SEVERITY_NUMBER_UNSPECIFIED {
		attrs = append(attrs, intAttr(AttrLevelNum, int64(sev)))
	}
	if ev := lr.GetEventName(); ev != "" {
		attrs = append(attrs, stringAttr(AttrEventName, ev))
	}
	if tn := lr.GetTimeUnixNano(); tn != 0 {
		attrs = append(attrs, intAttr(AttrTimeUnixNano, int64(tn)))
	}
	if on := lr.GetObservedTimeUnixNano(); on != 0 {
		attrs = append(attrs, intAttr(AttrObservedTimeUnixNano, int64(on)))
	}

	name, bodyAttr := t.spanName(lr.GetBody())
	if bodyAttr != nil {
		attrs = append(attrs, bodyAttr)
	}

	traceID := lr.GetTraceId()
	if len(traceID) == 0 {
		traceID = ident.TraceID(t.ids)
	}
	spanID := lr.GetSpanId()
	if len(spanID) == 0 {
		spanID = ident.SpanID(t.ids)
	}

	return &tracepb.Span{
		TraceId:                traceID,
		SpanId:                 spanID,
		Name:                   truncate(name, t.opts.MaxNameLength),
		StartTimeUnixNano:      ts,
		EndTimeUnixNano:        ts,
		Attributes:             attrs,
		DroppedAttributesCount: lr.GetDroppedAttributesCount(),
		Flags:                  lr.GetFlags(),
	}
}

func (t *Translator) timestamp(lr *logspb.LogRecord) uint64 {
	first, second := lr.GetTimeUnixNano(), lr.GetObservedTimeUnixNano()
	if t.opts.PreferObservedTime {
		first, second = second, first
	}
	if first != 0 {
		return first
	}
	return second
}

// spanName derives the span name from a record body. A non-string body is
// rendered to text and also returned as a log_body attribute so the typed
// value reaches the backend.
func (t *Translator) spanName(body *commonpb.AnyValue) (string, *commonpb.KeyValue) {
	if body == nil || body.Value == nil {
		return t.opts.PlaceholderName, nil
	}
	if s, ok := body.Value.(*commonpb.AnyValue_StringValue); ok {
		return s.StringValue, nil
	}
	return RenderValue(body), &commonpb.KeyValue{Key: AttrBody, Value: body}
}

// truncate shortens s to at most max runes, replacing the tail with a single
// marker rune when anything was cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - 1
	if keep < 0 {
		keep = 0
	}
	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + truncationMarker
		}
		n++
	}
	return s
}
