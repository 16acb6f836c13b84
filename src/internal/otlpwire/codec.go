// FILE: logsproxy/src/internal/otlpwire/codec.go
package otlpwire

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/proto"
)

// Content types accepted on the log endpoint and sent upstream.
const (
	ContentTypeProtobuf = "application/x-protobuf"
	ContentTypeJSON     = "application/json"
)

// Fixed identifier widths from the OTLP schema.
const (
	TraceIDSize = 16
	SpanIDSize  = 8
)

// Decode parses a log export request according to the request content type.
// Protobuf is assumed when the content type is empty or unrecognised.
func Decode(contentType string, b []byte) (*collogspb.ExportLogsServiceRequest, error) {
	if isJSON(contentType) {
		return DecodeLogsJSON(b)
	}
	return DecodeLogs(b)
}

// DecodeLogs parses a binary log export request. An empty buffer decodes to an
// empty request; malformed or truncated input yields a *DecodeError.
func DecodeLogs(b []byte) (*collogspb.ExportLogsServiceRequest, error) {
	req := &collogspb.ExportLogsServiceRequest{}
	if err := proto.Unmarshal(b, req); err != nil {
		return nil, &DecodeError{Format: "protobuf", Err: err}
	}
	if err := checkLogIDs(req); err != nil {
		return nil, &DecodeError{Format: "protobuf", Err: err}
	}
	return req, nil
}

// DecodeLogsJSON parses an OTLP/JSON log export request. OTLP/JSON encodes
// trace and span IDs as hex rather than base64, so it goes through pdata and
// is re-encoded to protobuf before the regular decode.
func DecodeLogsJSON(b []byte) (*collogspb.ExportLogsServiceRequest, error) {
	if len(b) == 0 {
		return &collogspb.ExportLogsServiceRequest{}, nil
	}

	jreq := plogotlp.NewExportRequest()
	if err := jreq.UnmarshalJSON(b); err != nil {
		return nil, &DecodeError{Format: "json", Err: err}
	}

	raw, err := jreq.MarshalProto()
	if err != nil {
		return nil, &DecodeError{Format: "json", Err: fmt.Errorf("failed to re-encode: %w", err)}
	}

	req, err := DecodeLogs(raw)
	if err != nil {
		var derr *DecodeError
		if errors.As(err, &derr) {
			derr.Format = "json"
		}
		return nil, err
	}
	return req, nil
}

// EncodeTraces serializes a trace export request. Callers validate first.
func EncodeTraces(req *coltracepb.ExportTraceServiceRequest) ([]byte, error) {
	b, err := proto.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trace export request: %w", err)
	}
	return b, nil
}

// SpanCount returns the total number of spans in the request.
func SpanCount(req *coltracepb.ExportTraceServiceRequest) int {
	n := 0
	for _, rs := range req.GetResourceSpans() {
		for _, ss := range rs.GetScopeSpans() {
			n += len(ss.GetSpans())
		}
	}
	return n
}

// LogRecordCount returns the total number of log records in the request.
func LogRecordCount(req *collogspb.ExportLogsServiceRequest) int {
	n := 0
	for _, rl := range req.GetResourceLogs() {
		for _, sl := range rl.GetScopeLogs() {
			n += len(sl.GetLogRecords())
		}
	}
	return n
}

func checkLogIDs(req *collogspb.ExportLogsServiceRequest) error {
	for i, rl := range req.GetResourceLogs() {
		for j, sl := range rl.GetScopeLogs() {
			for k, lr := range sl.GetLogRecords() {
				if n := len(lr.GetTraceId()); n != 0 && n != TraceIDSize {
					return fmt.Errorf("resource_logs[%d].scope_logs[%d].log_records[%d].trace_id: want %d bytes, got %d",
						i, j, k, TraceIDSize, n)
				}
				if n := len(lr.GetSpanId()); n != 0 && n != SpanIDSize {
					return fmt.Errorf("resource_logs[%d].scope_logs[%d].log_records[%d].span_id: want %d bytes, got %d",
						i, j, k, SpanIDSize, n)
				}
			}
		}
	}
	return nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return strings.EqualFold(mediaType, ContentTypeJSON)
}
