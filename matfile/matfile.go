// Package matfile stores variant matrices on disk as zstd compressed .vmz
// files holding the matrix's binary encoding.
package matfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix"
	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/klauspost/compress/zstd"
)

const Extension = ".vmz"

// Write encodes m and writes it, compressed, to w.
func Write(w io.Writer, m *variantmatrix.VariantMatrix) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return pfx.Err(err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return pfx.Err(err)
	}

	return pfx.Err(enc.Close())
}

// Read decodes a matrix written by Write. Plain, uncompressed encodings are
// accepted too.
func Read(r io.Reader) (*variantmatrix.VariantMatrix, error) {
	rc, _, err := varmatrix.MaybeDecompress(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, pfx.Err(err)
	}

	m := &variantmatrix.VariantMatrix{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return m, nil
}

// Save writes m to a local path, replacing it atomically.
func Save(path string, m *variantmatrix.VariantMatrix) error {
	path, err := varmatrix.ExpandHome(path)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".vmz-*")
	if err != nil {
		return pfx.Err(err)
	}
	defer os.Remove(f.Name())

	if err := Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(os.Rename(f.Name(), path))
}

// Load reads a matrix from a local path or, given a client, a gs:// path.
func Load(ctx context.Context, path string, client *storage.Client) (*variantmatrix.VariantMatrix, error) {
	f, _, err := varmatrix.MaybeOpenSeekerFromGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}
