package varmatrix

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/zstd"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
	DataTypeZstd
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	case DataTypeZstd:
		return "zstd"
	}
	return "invalid"
}

// Checked in order. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
var byteCodeSigs = []struct {
	dt  DataType
	sig []byte
}{
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeZ, []byte{0x78, 0x01}},
	{DataTypeZ, []byte{0x78, 0x9c}},
	{DataTypeZ, []byte{0x78, 0xda}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
	{DataTypeZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
}

const sniffLen = 6

// DetectDataType identifies the compression of a stream from its first few
// bytes. Anything unrecognized is assumed to be uncompressed.
func DetectDataType(head []byte) DataType {
	for _, s := range byteCodeSigs {
		if bytes.HasPrefix(head, s.sig) {
			return s.dt
		}
	}

	return DataTypeNoCompression
}

// MaybeDecompress sniffs r and, if it is compressed, wraps it in the matching
// decompressor. r does not need to be seekable: the sniffed bytes are peeked,
// not consumed, so stdin works too. Closing the result does not close r.
func MaybeDecompress(r io.Reader) (io.ReadCloser, DataType, error) {
	br := bufio.NewReaderSize(r, BufferSize)

	// Short inputs are fine: whatever was peeked is enough to rule formats out.
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, DataTypeInvalid, pfx.Err(err)
	}

	dt := DetectDataType(head)
	switch dt {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return gz, dt, nil
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		// Only the first member of the archive is read.
		if _, err := zr.Next(); err != nil {
			return nil, dt, pfx.Err(err)
		}
		return io.NopCloser(zr), dt, nil
	case DataTypeBZip2:
		return io.NopCloser(bzip2.NewReader(br)), dt, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return io.NopCloser(reader), dt, nil
	case DataTypeZ:
		zl, err := zlib.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return zl, dt, nil
	case DataTypeZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return dec.IOReadCloser(), dt, nil
	}

	return io.NopCloser(br), dt, nil
}
