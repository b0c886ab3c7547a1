package varmatrix

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// GSReadSeekCloser decorates a Google Storage object handle with io.Reader,
// io.Seeker and io.Closer. A range reader is opened lazily at the current
// offset and dropped whenever the caller seeks. Derived from
// https://github.com/googleapis/google-cloud-go/issues/1124#issuecomment-419070541
type GSReadSeekCloser struct {
	*storage.ObjectHandle
	Context context.Context
	Size    int64

	r      *storage.Reader
	offset int64
}

func (s *GSReadSeekCloser) Read(buf []byte) (int, error) {
	if s.offset >= s.Size {
		return 0, io.EOF
	}

	if s.r == nil {
		r, err := s.NewRangeReader(s.Context, s.offset, -1)
		if err != nil {
			return 0, err
		}
		s.r = r
	}

	n, err := s.r.Read(buf)
	s.offset += int64(n)

	return n, err
}

func (s *GSReadSeekCloser) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.offset + offset
	case io.SeekEnd:
		target = s.Size + offset
	default:
		return 0, fmt.Errorf("io.Seeker 'whence' value %d is not valid", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("cannot seek to negative offset %d", target)
	}

	if target != s.offset {
		s.dropReader()
		s.offset = target
	}

	return s.offset, nil
}

func (s *GSReadSeekCloser) dropReader() {
	if s.r != nil {
		s.r.Close()
		s.r = nil
	}
}

func (s *GSReadSeekCloser) Close() error {
	s.dropReader()
	return nil
}

// SplitGSPath splits gs://bucket/path/to/object into its bucket and object.
func SplitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("tried to split your google storage path into bucket and object, but got %d parts: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// IsGSPath reports whether path names a Google Storage object.
func IsGSPath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// OpenSeekerFromGoogleStorage opens a gs:// object for seekable reading and
// reports its size.
func OpenSeekerFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (*GSReadSeekCloser, error) {
	if client == nil {
		return nil, fmt.Errorf("%s: a storage client is required for gs:// paths", path)
	}

	bucketName, pathName, err := SplitGSPath(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	handle := client.Bucket(bucketName).Object(pathName)

	// Make a hard call to get the filesize
	attrs, err := handle.Attrs(ctx)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return &GSReadSeekCloser{
		ObjectHandle: handle,
		Context:      ctx,
		Size:         attrs.Size,
	}, nil
}
