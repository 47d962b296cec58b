// Package parquetconv converts generated sales CSV files into Parquet datasets,
// optionally hive-partitioned by one or more columns.
package parquetconv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/rshade/synthsales/internal/dataset"
	"github.com/rshade/synthsales/internal/logging"
)

// Supported compression codecs.
const (
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
	CompressionGzip   = "gzip"
	CompressionNone   = "none"
)

// PartFileName is the name of the first data file inside each output directory.
// A directory gets part-00001.parquet and onward when its writer was closed to stay
// under the open file limit and more of its rows followed.
const PartFileName = "part-00000.parquet"

// DefaultMaxOpenFiles bounds the partition files open at once when
// Options.MaxOpenFiles is zero.
const DefaultMaxOpenFiles = 256

const cancelCheckInterval = 64 * 1024

var (
	// ErrInputNotFound is returned when the CSV input does not exist.
	ErrInputNotFound = errors.New("input file does not exist")
	// ErrOutputExists is returned when the output exists and Force is not set.
	ErrOutputExists = errors.New("output already exists")
	// ErrUnknownColumn is returned for a partition column that cannot partition the dataset.
	ErrUnknownColumn = errors.New("unknown partition column")
	// ErrUnknownCompression is returned for an unsupported codec name.
	ErrUnknownCompression = errors.New("unknown compression")
	// ErrInvalidMaxOpenFiles is returned for a negative open file limit.
	ErrInvalidMaxOpenFiles = errors.New("max open files must not be negative")
)

// PartitionColumns returns the columns a dataset may be partitioned by.
func PartitionColumns() []string {
	return []string{dataset.ColumnCategory, dataset.ColumnRegion, dataset.ColumnDate}
}

// Options configures Convert.
type Options struct {
	Input         string
	Output        string
	PartitionCols []string
	Force         bool
	Compression   string
	// RowGroupSize caps rows per row group; 0 keeps the library default.
	RowGroupSize int64
	// MaxOpenFiles caps simultaneously open partition files; 0 means DefaultMaxOpenFiles.
	MaxOpenFiles int
}

// Result describes a finished conversion.
type Result struct {
	RowsWritten int64
	Files       []string
	Duration    time.Duration
}

// Convert reads opts.Input and writes it as Parquet under opts.Output. Without
// partition columns a single file is written; otherwise at least one file per
// distinct combination of partition values, in <col>=<value> directories nested in
// the order given.
func Convert(ctx context.Context, opts Options) (Result, error) {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "parquetconv")
	start := time.Now()

	writerOpts, err := writerOptions(opts)
	if err != nil {
		return Result{}, err
	}
	if err = checkPartitionCols(opts.PartitionCols); err != nil {
		return Result{}, err
	}
	if opts.MaxOpenFiles < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidMaxOpenFiles, opts.MaxOpenFiles)
	}
	if _, err = os.Stat(opts.Input); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrInputNotFound, opts.Input)
		}
		return Result{}, fmt.Errorf("checking input: %w", err)
	}
	if _, err = os.Stat(opts.Output); err == nil && !opts.Force {
		return Result{}, fmt.Errorf("%w: %s", ErrOutputExists, opts.Output)
	}

	in, err := os.Open(opts.Input)
	if err != nil {
		return Result{}, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	reader, err := dataset.NewCSVReader(in)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", opts.Input, err)
	}

	log.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Strs("partition_cols", opts.PartitionCols).
		Msg("converting dataset to parquet")

	parts := newPartitionSet(opts.Output, opts.PartitionCols, writerOpts, opts.MaxOpenFiles)
	if len(opts.PartitionCols) == 0 {
		// An unpartitioned dataset always has its file, even with no rows.
		if _, err = parts.part(""); err != nil {
			return Result{}, err
		}
	}
	var rows int64
	for {
		if rows%cancelCheckInterval == 0 {
			if err = ctx.Err(); err != nil {
				return Result{}, errors.Join(err, parts.Close())
			}
		}

		rec, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return Result{}, errors.Join(fmt.Errorf("reading %s: %w", opts.Input, readErr), parts.Close())
		}
		if err = parts.Write(rec); err != nil {
			return Result{}, errors.Join(err, parts.Close())
		}
		rows++
	}

	if err = parts.Close(); err != nil {
		return Result{}, err
	}

	res := Result{RowsWritten: rows, Files: parts.Files(), Duration: time.Since(start)}
	log.Info().
		Int64("rows", res.RowsWritten).
		Int("files", len(res.Files)).
		Dur("duration", res.Duration).
		Msg("parquet conversion completed")
	return res, nil
}

func writerOptions(opts Options) ([]parquet.WriterOption, error) {
	var codec parquet.WriterOption
	switch strings.ToLower(opts.Compression) {
	case "", CompressionZstd:
		codec = parquet.Compression(&parquet.Zstd)
	case CompressionSnappy:
		codec = parquet.Compression(&parquet.Snappy)
	case CompressionGzip:
		codec = parquet.Compression(&parquet.Gzip)
	case CompressionNone:
		codec = parquet.Compression(&parquet.Uncompressed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, opts.Compression)
	}

	writerOpts := []parquet.WriterOption{codec}
	if opts.RowGroupSize > 0 {
		writerOpts = append(writerOpts, parquet.MaxRowsPerRowGroup(opts.RowGroupSize))
	}
	return writerOpts, nil
}

func checkPartitionCols(cols []string) error {
	allowed := PartitionColumns()
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if !slices.Contains(allowed, col) {
			return fmt.Errorf("%w: %q (allowed: %s)", ErrUnknownColumn, col, strings.Join(allowed, ", "))
		}
		if seen[col] {
			return fmt.Errorf("%w: %q given twice", ErrUnknownColumn, col)
		}
		seen[col] = true
	}
	return nil
}

// partitionDir returns the relative directory for rec under the given columns.
func partitionDir(rec dataset.Record, cols []string) string {
	if len(cols) == 0 {
		return ""
	}
	segments := make([]string, len(cols))
	for i, col := range cols {
		segments[i] = col + "=" + escapeValue(partitionValue(rec, col))
	}
	return filepath.Join(segments...)
}

func partitionValue(rec dataset.Record, col string) string {
	switch col {
	case dataset.ColumnCategory:
		return rec.Category
	case dataset.ColumnRegion:
		return rec.Region
	case dataset.ColumnDate:
		return rec.Date.Format(time.DateOnly)
	default:
		return ""
	}
}

//nolint:gochecknoglobals // immutable replacer
var valueEscaper = strings.NewReplacer("/", "%2F", "\\", "%5C", "=", "%3D")

func escapeValue(v string) string {
	if v == "" {
		return "__HIVE_DEFAULT_PARTITION__"
	}
	return valueEscaper.Replace(v)
}
