package varmatrix

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = "segsites: 2\npositions: 0.1 0.2\n01\n10\n"

func TestDetectDataType(t *testing.T) {
	for _, v := range []struct {
		head []byte
		want DataType
	}{
		{[]byte{0x1f, 0x8b, 0x08, 0, 0, 0}, DataTypeGzip},
		{[]byte{0x50, 0x4b, 0x03, 0x04, 0, 0}, DataTypeZip},
		{[]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, DataTypeXZ},
		{[]byte{0x78, 0x9c, 0, 0, 0, 0}, DataTypeZ},
		{[]byte{0x42, 0x5a, 0x68, 0x39, 0, 0}, DataTypeBZip2},
		{[]byte{0x28, 0xb5, 0x2f, 0xfd, 0, 0}, DataTypeZstd},
		{[]byte("segsit"), DataTypeNoCompression},
		{[]byte{0x1f}, DataTypeNoCompression},
		{nil, DataTypeNoCompression},
	} {
		assert.Equal(t, v.want, DetectDataType(v.head), "%x", v.head)
	}
}

func TestMaybeDecompress(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	_, err = zw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(payload), nil)
	require.NoError(t, enc.Close())

	for _, v := range []struct {
		name string
		data []byte
		want DataType
	}{
		{"plain", []byte(payload), DataTypeNoCompression},
		{"gzip", gz.Bytes(), DataTypeGzip},
		{"zstd", zst, DataTypeZstd},
		{"zlib", zl.Bytes(), DataTypeZ},
		{"short", []byte("1"), DataTypeNoCompression},
	} {
		t.Run(v.name, func(t *testing.T) {
			rc, dt, err := MaybeDecompress(bytes.NewReader(v.data))
			require.NoError(t, err)
			defer rc.Close()
			assert.Equal(t, v.want, dt)

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			if v.name == "short" {
				assert.Equal(t, "1", string(got))
				return
			}
			assert.Equal(t, payload, string(got))
		})
	}
}
