package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/synthsales/internal/awsutil"
	"github.com/rshade/synthsales/internal/config"
	"github.com/rshade/synthsales/internal/dataset"
	"github.com/rshade/synthsales/internal/ledger"
	"github.com/rshade/synthsales/internal/upload"
)

// fakeStore records uploads in memory and fails the keys in failKeys.
type fakeStore struct {
	mu       sync.Mutex
	buckets  []string
	keys     []string
	failKeys map[string]bool
}

func (f *fakeStore) GetOrCreateBucket(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets = append(f.buckets, name)
	return nil
}

func (f *fakeStore) UploadFile(_ context.Context, _, key, _ string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return errors.New("access denied")
	}
	f.keys = append(f.keys, key)
	return nil
}

func useFakeStore(t *testing.T, store *fakeStore) *awsutil.SessionOptions {
	t.Helper()
	var got awsutil.SessionOptions
	orig := newObjectStore
	newObjectStore = func(opts awsutil.SessionOptions, _ string) (upload.ObjectStore, error) {
		got = opts
		return store, nil
	}
	t.Cleanup(func() { newObjectStore = orig })
	return &got
}

func writeParquetFixtures(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("PAR1"), 0o600))
	}
	return dir
}

func newTestCmd(t *testing.T, cfg *config.Config) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(config.ContextWithConfig(context.Background(), cfg))
	return cmd, &out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "runs.db")
	return cfg
}

func TestExecuteUpload_Dataset(t *testing.T) {
	store := &fakeStore{}
	opts := useFakeStore(t, store)
	dir := writeParquetFixtures(t, "region_de_venta=Norte/part-00000.parquet", "region_de_venta=Sur/part-00000.parquet")

	cfg := testConfig(t)
	cmd, out := newTestCmd(t, cfg)
	err := executeUpload(cmd, uploadParams{
		directory: dir,
		bucket:    "arn:aws:s3:::sales-bucket",
		endpoint:  "http://localhost:9000",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sales-bucket"}, store.buckets)
	assert.ElementsMatch(t, []string{
		"region_de_venta=Norte/part-00000.parquet",
		"region_de_venta=Sur/part-00000.parquet",
	}, store.keys)
	assert.Contains(t, out.String(), "Uploaded 2 files to sales-bucket")
	assert.Equal(t, "http://localhost:9000", opts.Endpoint)
	assert.True(t, opts.ForcePathStyle)
	assert.Equal(t, cfg.Upload.Region, opts.Region)
}

func TestExecuteUpload_FailuresExitOne(t *testing.T) {
	store := &fakeStore{failKeys: map[string]bool{"b.parquet": true}}
	useFakeStore(t, store)
	dir := writeParquetFixtures(t, "a.parquet", "b.parquet", "c.parquet")

	cfg := testConfig(t)
	cfg.Upload.Bucket = "from-config"
	cmd, out := newTestCmd(t, cfg)
	err := executeUpload(cmd, uploadParams{directory: dir})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "1/3 files failed to upload to from-config", exitErr.Reason)
	assert.Contains(t, out.String(), "failed b.parquet")

	l, err := ledger.Open(context.Background(), cfg.Ledger.Path, logger)
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ledger.StatusFailed, runs[0].Status)
	assert.Equal(t, exitErr.Reason, runs[0].Detail)
}

func TestExecuteUpload_MissingBucketRecordsFailedRun(t *testing.T) {
	store := &fakeStore{}
	useFakeStore(t, store)

	cfg := testConfig(t)
	cmd, _ := newTestCmd(t, cfg)
	err := executeUpload(cmd, uploadParams{directory: t.TempDir()})
	require.ErrorContains(t, err, "no bucket given")
	assert.Empty(t, store.buckets)

	l, err := ledger.Open(context.Background(), cfg.Ledger.Path, logger)
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "upload", runs[0].Command)
	assert.Equal(t, ledger.StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Detail, "no bucket given")
}

func TestExecuteUpload_EmptyDirectory(t *testing.T) {
	useFakeStore(t, &fakeStore{})

	cmd, _ := newTestCmd(t, testConfig(t))
	err := executeUpload(cmd, uploadParams{directory: t.TempDir(), bucket: "b"})
	require.ErrorIs(t, err, upload.ErrNoFiles)
}

func TestFinishGenerate_BatchFailuresExitOne(t *testing.T) {
	cfg := testConfig(t)
	cmd, out := newTestCmd(t, cfg)
	summary := dataset.Summary{TotalBatches: 3, WrittenBatches: 2, FailedBatches: 1, RowsWritten: 20}
	runErr := fmt.Errorf("%w: 1/3", dataset.ErrBatchesFailed)

	err := finishGenerate(cmd, newRunRecord("generate"), summary, runErr)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "1/3 batches failed", exitErr.Error())
	assert.Contains(t, out.String(), "Wrote 20 rows; 1/3 batches failed")
}

func TestFinishGenerate_OtherErrorsPassThrough(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.Enabled = false
	cmd, _ := newTestCmd(t, cfg)
	writeErr := &dataset.WriteError{Path: "out.csv", Err: errors.New("disk full")}

	err := finishGenerate(cmd, newRunRecord("generate"), dataset.Summary{}, writeErr)
	require.ErrorIs(t, err, writeErr)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))

	_, statErr := os.Stat(cfg.Ledger.Path)
	assert.True(t, os.IsNotExist(statErr), "disabled ledger is never created")
}

func TestRunRecord_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(config.ContextWithConfig(context.Background(), cfg))
	cancel()

	newRunRecord("transform").finish(ctx, "", context.Canceled)

	l, err := ledger.Open(context.Background(), cfg.Ledger.Path, logger)
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ledger.StatusCancelled, runs[0].Status)
}

func TestValidateOutputFormat(t *testing.T) {
	require.NoError(t, validateOutputFormat("table"))
	require.NoError(t, validateOutputFormat("json"))
	require.Error(t, validateOutputFormat("yaml"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Empty(t, firstNonEmpty("", ""))
}
