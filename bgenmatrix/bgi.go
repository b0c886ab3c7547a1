package bgenmatrix

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/bgen"
	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// OpenBGI opens a BGEN index read only. Not all index files have metadata,
// so a missing Metadata table is not an error.
func OpenBGI(path string) (*bgen.BGIIndex, error) {
	bgi := &bgen.BGIIndex{
		Metadata: &bgen.BGIMetadata{},
	}

	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	if !strings.Contains(path, "?") {
		path += "?mode=ro"
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	bgi.DB = db

	_ = bgi.DB.Get(bgi.Metadata, "SELECT * FROM Metadata LIMIT 1")
	bgi.Metadata.FirstThousandBytes = nil

	return bgi, nil
}

// Region selects the index rows on one chromosome with from <= position <=
// to, in file order.
func Region(bgi *bgen.BGIIndex, chromosome string, from, to uint32) ([]bgen.VariantIndex, error) {
	sites := make([]bgen.VariantIndex, 0)
	if err := bgi.DB.Select(&sites, "SELECT * FROM Variant WHERE chromosome=? AND position BETWEEN ? AND ? ORDER BY file_start_position ASC", chromosome, from, to); err != nil {
		return nil, pfx.Err(err)
	}

	return sites, nil
}

// OpenWithRetry opens the BGEN and its index, retrying a few times. Useful
// because if you use this over an unreliable filesystem, you'll run into i/o
// errors that can be overcome by waiting a bit.
func OpenWithRetry(bgenPath, bgiPath string, attempts int, wait time.Duration) (bgi *bgen.BGIIndex, b *bgen.BGEN, err error) {
	for attempt := 1; attempt <= attempts; attempt++ {
		bgi, err = OpenBGI(bgiPath)
		if err != nil {
			if attempt == attempts {
				return nil, nil, err
			}
			log.Println("OpenBGI: Sleeping", wait, "to recover from", err.Error(), "attempt", attempt)
			time.Sleep(wait)
			continue
		}

		b, err = bgen.Open(bgenPath)
		if err != nil {
			// The index opened, so close it before looping since we will
			// lose that handle.
			bgi.Close()
			if attempt == attempts {
				return nil, nil, pfx.Err(err)
			}
			log.Println("bgen.Open: Sleeping", wait, "to recover from", err.Error(), "attempt", attempt)
			time.Sleep(wait)
			continue
		}

		return bgi, b, nil
	}

	return nil, nil, fmt.Errorf("no attempts were made to open %s", bgenPath)
}

// bgiCache remembers which gs:// indexes have already been copied locally.
type bgiCache struct {
	mu    sync.RWMutex
	local map[string]string
}

var localBGIs = &bgiCache{local: make(map[string]string)}

// LocalizeBGI copies a gs:// BGEN index into the temp directory and returns
// the local path. SQLite reads from a filename, instead of a reader, so the
// index can't be read over the wire. Each index is copied at most once per
// process, even when requested from several goroutines at once; newDownload
// reports whether this call did the copying. Local paths are returned as is.
func LocalizeBGI(ctx context.Context, bgiPath string, client *storage.Client) (localPath string, newDownload bool, err error) {
	if !varmatrix.IsGSPath(bgiPath) {
		return bgiPath, false, nil
	}
	return localBGIs.get(ctx, bgiPath, client)
}

func (c *bgiCache) get(ctx context.Context, bgiPath string, client *storage.Client) (string, bool, error) {
	c.mu.RLock()
	filename, exists := c.local[bgiPath]
	c.mu.RUnlock()
	if exists {
		return filename, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have fetched it while we waited for the lock.
	if filename, exists := c.local[bgiPath]; exists {
		return filename, false, nil
	}

	filename = filepath.Join(os.TempDir(), filepath.Base(bgiPath))
	if err := download(ctx, bgiPath, filename, client); err != nil {
		return "", false, err
	}
	c.local[bgiPath] = filename

	return filename, true, nil
}

func download(ctx context.Context, gsPath, filename string, client *storage.Client) error {
	if client == nil {
		return fmt.Errorf("%s: a storage client is required for gs:// paths", gsPath)
	}

	bucketName, pathName, err := varmatrix.SplitGSPath(gsPath)
	if err != nil {
		return pfx.Err(err)
	}

	rc, err := client.Bucket(bucketName).Object(pathName).NewReader(ctx)
	if err != nil {
		return pfx.Err(fmt.Sprintf("%v (%s)", err, gsPath))
	}
	defer rc.Close()

	// Write to a temporary name first so a partial copy is never opened.
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.partial")
	if err != nil {
		return pfx.Err(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		return pfx.Err(err)
	}
	if err := tmp.Close(); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(os.Rename(tmp.Name(), filename))
}
