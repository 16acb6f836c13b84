package decompress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zlibbed(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestDecode(t *testing.T) {
	payload := []byte("\x0a\x02\x0a\x00 some protobuf-ish payload")

	testCases := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{name: "Identity", encoding: "", body: payload},
		{name: "IdentityExplicit", encoding: "identity", body: payload},
		{name: "Gzip", encoding: "gzip", body: gzipped(t, payload)},
		{name: "GzipUpperCase", encoding: "GZIP", body: gzipped(t, payload)},
		{name: "XGzip", encoding: "x-gzip", body: gzipped(t, payload)},
		{name: "Deflate", encoding: "deflate", body: zlibbed(t, payload)},
		{name: "Zstd", encoding: "zstd", body: zstded(t, payload)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Decode(tc.encoding, tc.body, 1024)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := Decode("br", []byte("x"), 0)

	var uerr *UnsupportedEncodingError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "br", uerr.Encoding)
	assert.Contains(t, err.Error(), `"br"`)
}

func TestDecodeCorrupt(t *testing.T) {
	for _, enc := range Supported() {
		t.Run(enc, func(t *testing.T) {
			_, err := Decode(enc, []byte("definitely not compressed"), 0)
			require.Error(t, err)

			var uerr *UnsupportedEncodingError
			assert.False(t, errors.As(err, &uerr))
		})
	}
}

func TestDecodeSizeLimit(t *testing.T) {
	big := []byte(strings.Repeat("a", 4096))

	_, err := Decode("gzip", gzipped(t, big), 1000)
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	_, err = Decode("", big, 1000)
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	out, err := Decode("gzip", gzipped(t, big), 4096)
	require.NoError(t, err)
	assert.Len(t, out, 4096)
}
