package varmatrix

import (
	"context"
	"io"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

var BufferSize = 4096 * 8

// StdinPath names standard input wherever a path is expected.
const StdinPath = "-"

type compoundCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *compoundCloser) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MaybeOpenSeekerFromGoogleStorage opens a local file, or a gs:// object if
// client is non-nil, and reports its size.
func MaybeOpenSeekerFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (ReadSeekCloser, int64, error) {
	if client != nil && IsGSPath(path) {
		gs, err := OpenSeekerFromGoogleStorage(ctx, path, client)
		if err != nil {
			return nil, 0, err
		}
		return gs, gs.Size, nil
	}

	path, err := ExpandHome(path)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, pfx.Err(err)
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, pfx.Err(err)
	}

	return f, fstat.Size(), nil
}

// OpenInput opens path for reading, transparently decompressing it. path may
// be a local file, a gs:// object (which needs client), or "-" for stdin.
// Closing the result closes the underlying file too, but never stdin.
func OpenInput(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var raw io.Reader
	var closers []io.Closer

	if path == StdinPath {
		raw = os.Stdin
	} else {
		f, _, err := MaybeOpenSeekerFromGoogleStorage(ctx, path, client)
		if err != nil {
			return nil, err
		}
		raw = f
		closers = append(closers, f)
	}

	rc, dt, err := MaybeDecompress(raw)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, pfx.Err(err)
	}
	if dt != DataTypeNoCompression {
		log.Printf("Reading %s input from %s\n", dt, path)
	}

	return &compoundCloser{Reader: rc, closers: append([]io.Closer{rc}, closers...)}, nil
}

// NewStorageClientIfNeeded returns a Google Storage client when any of the
// paths is a gs:// path, and nil otherwise.
func NewStorageClientIfNeeded(ctx context.Context, paths ...string) (*storage.Client, error) {
	for _, p := range paths {
		if IsGSPath(p) {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, pfx.Err(err)
			}
			return client, nil
		}
	}

	return nil, nil
}
