package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/synthsales/internal/logging"
)

// DefaultWorkers is the number of concurrent uploads for multi-file directories.
const DefaultWorkers = 8

// ErrNoFiles is returned when the directory is missing or holds nothing to upload.
var ErrNoFiles = errors.New("no files to upload")

// FileResult is the outcome of one file upload.
type FileResult struct {
	Name string
	Err  error
}

// Summary describes an UploadDirectory call.
type Summary struct {
	Bucket  string
	Results []FileResult
}

// Failed returns the number of failed uploads.
func (s Summary) Failed() int {
	var n int
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Uploader uploads a directory of dataset files to one bucket.
type Uploader struct {
	store    ObjectStore
	bucket   string
	blobName string
	workers  int
}

// NewUploader creates an uploader for bucket.
func NewUploader(store ObjectStore, bucket string) *Uploader {
	return &Uploader{store: store, bucket: bucket, workers: DefaultWorkers}
}

// WithBlobName sets the key used when the directory holds a single file.
func (u *Uploader) WithBlobName(name string) *Uploader {
	u.blobName = name
	return u
}

// WithWorkers sets upload concurrency; values below one are ignored.
func (u *Uploader) WithWorkers(n int) *Uploader {
	if n > 0 {
		u.workers = n
	}
	return u
}

// UploadDirectory ensures the bucket exists and uploads dir.
//
// A directory holding exactly one entry uploads that file under the blob name (its
// base name by default), refusing to overwrite an existing object. Otherwise every
// .parquet file below dir is uploaded concurrently, keyed by its slash-separated path
// relative to dir. Per-file failures are logged and reported in the summary; only
// setup failures are returned as errors.
func (u *Uploader) UploadDirectory(ctx context.Context, dir string) (Summary, error) {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "upload")
	summary := Summary{Bucket: u.bucket}

	entries, err := listEntries(dir)
	if err != nil {
		return summary, err
	}

	log.Info().Str("bucket", u.bucket).Msg("getting bucket for upload")
	if err = u.store.GetOrCreateBucket(ctx, u.bucket); err != nil {
		return summary, err
	}

	if len(entries) == 1 && !entries[0].dir {
		name := u.blobName
		if name == "" {
			name = filepath.Base(entries[0].path)
		}
		err = u.store.UploadFile(ctx, u.bucket, name, entries[0].path, true)
		summary.Results = []FileResult{{Name: name, Err: err}}
		u.logResult(ctx, summary.Results[0])
		return summary, nil
	}

	var files []entry
	for _, e := range entries {
		if !e.dir && strings.EqualFold(filepath.Ext(e.path), ".parquet") {
			files = append(files, e)
		}
	}
	log.Info().Int("files", len(files)).Int("workers", u.workers).Msg("uploading dataset files")

	summary.Results = make([]FileResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i, f := range files {
		g.Go(func() error {
			res := FileResult{Name: f.key}
			res.Err = u.store.UploadFile(gCtx, u.bucket, f.key, f.path, false)
			summary.Results[i] = res
			u.logResult(ctx, res)
			// Failures are per file; never cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	return summary, ctx.Err()
}

func (u *Uploader) logResult(ctx context.Context, res FileResult) {
	log := logging.FromContext(ctx)
	if res.Err != nil {
		log.Warn().Err(res.Err).Str("file", res.Name).Str("bucket", u.bucket).Msg("file upload failed")
		return
	}
	log.Info().Str("file", res.Name).Str("bucket", u.bucket).Msg("file uploaded")
}

type entry struct {
	path string
	key  string
	dir  bool
}

// listEntries returns every file and directory below dir, sorted by path.
func listEntries(dir string) ([]entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFiles, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoFiles, dir)
	}

	var entries []entry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == dir {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		entries = append(entries, entry{path: path, key: filepath.ToSlash(rel), dir: d.IsDir()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoFiles, dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	return entries, nil
}
