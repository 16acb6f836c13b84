// FILE: logsproxy/src/internal/decompress/decompress.go
package decompress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrBodyTooLarge is returned when the decoded body exceeds the caller's limit.
var ErrBodyTooLarge = errors.New("decoded request body exceeds size limit")

// UnsupportedEncodingError reports a Content-Encoding this service cannot decode.
type UnsupportedEncodingError struct {
	Encoding string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported content encoding %q", e.Encoding)
}

// Supported lists the accepted Content-Encoding values.
func Supported() []string {
	return []string{"gzip", "deflate", "zstd"}
}

// Decode returns body decoded according to the Content-Encoding value.
// "deflate" is the zlib framing that HTTP clients and browser
// DecompressionStream produce. limit caps the decoded size; zero or negative
// disables the cap.
func Decode(encoding string, body []byte, limit int64) ([]byte, error) {
	switch enc := strings.ToLower(strings.TrimSpace(encoding)); enc {
	case "", "identity":
		if limit > 0 && int64(len(body)) > limit {
			return nil, ErrBodyTooLarge
		}
		return body, nil

	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer r.Close()
		return readLimited(r, limit, enc)

	case "deflate":
		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("invalid deflate body: %w", err)
		}
		defer r.Close()
		return readLimited(r, limit, enc)

	case "zstd":
		d, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("invalid zstd body: %w", err)
		}
		defer d.Close()
		return readLimited(d, limit, enc)

	default:
		return nil, &UnsupportedEncodingError{Encoding: enc}
	}
}

func readLimited(r io.Reader, limit int64, enc string) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("invalid %s body: %w", enc, err)
	}
	if limit > 0 && int64(len(out)) > limit {
		return nil, ErrBodyTooLarge
	}
	return out, nil
}
