// FILE: logsproxy/src/internal/translate/render.go
package translate

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/valyala/fastjson"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
)

// RenderValue returns the textual form of an attribute value. Scalars render
// as their plain text, bytes as standard base64, and arrays or key/value lists
// as compact JSON. An empty value renders as "".
func RenderValue(v *commonpb.AnyValue) string {
	switch x := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return x.StringValue
	case *commonpb.AnyValue_BoolValue:
		return strconv.FormatBool(x.BoolValue)
	case *commonpb.AnyValue_IntValue:
		return strconv.FormatInt(x.IntValue, 10)
	case *commonpb.AnyValue_DoubleValue:
		return formatDouble(x.DoubleValue)
	case *commonpb.AnyValue_BytesValue:
		return base64.StdEncoding.EncodeToString(x.BytesValue)
	case *commonpb.AnyValue_ArrayValue, *commonpb.AnyValue_KvlistValue:
		var a fastjson.Arena
		return string(jsonValue(&a, v).MarshalTo(nil))
	default:
		return ""
	}
}

func jsonValue(a *fastjson.Arena, v *commonpb.AnyValue) *fastjson.Value {
	switch x := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return a.NewString(x.StringValue)
	case *commonpb.AnyValue_BoolValue:
		if x.BoolValue {
			return a.NewTrue()
		}
		return a.NewFalse()
	case *commonpb.AnyValue_IntValue:
		return a.NewNumberString(strconv.FormatInt(x.IntValue, 10))
	case *commonpb.AnyValue_DoubleValue:
		// JSON has no NaN or Inf
		if math.IsNaN(x.DoubleValue) || math.IsInf(x.DoubleValue, 0) {
			return a.NewString(formatDouble(x.DoubleValue))
		}
		return a.NewNumberString(formatDouble(x.DoubleValue))
	case *commonpb.AnyValue_BytesValue:
		return a.NewString(base64.StdEncoding.EncodeToString(x.BytesValue))
	case *commonpb.AnyValue_ArrayValue:
		arr := a.NewArray()
		for i, elem := range x.ArrayValue.GetValues() {
			arr.SetArrayItem(i, jsonValue(a, elem))
		}
		return arr
	case *commonpb.AnyValue_KvlistValue:
		obj := a.NewObject()
		for _, kv := range x.KvlistValue.GetValues() {
			obj.Set(kv.GetKey(), jsonValue(a, kv.GetValue()))
		}
		return obj
	default:
		return a.NewNull()
	}
}

func formatDouble(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
