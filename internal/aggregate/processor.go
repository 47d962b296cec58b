// Package aggregate reads a generated sales dataset with a chosen engine, computes the
// per-category totals and per-region averages, and times both phases.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/synthsales/internal/dataset"
	"github.com/rshade/synthsales/internal/logging"
)

// Engine names accepted by NewProcessor.
const (
	EngineCSV     = "csv"
	EngineParquet = "parquet"
	EngineAuto    = "auto"
)

var (
	// ErrUnknownEngine is returned by NewProcessor for an unsupported engine name.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrNoParquetFiles is returned when a dataset directory holds no .parquet files.
	ErrNoParquetFiles = errors.New("no parquet files found")
)

// Table is the in-memory result of the read phase.
type Table struct {
	Records []dataset.Record
	Files   int
}

// Processor reads a dataset and aggregates it.
type Processor interface {
	Name() string
	Read(ctx context.Context) (Table, error)
	Process(ctx context.Context, t Table) (Report, error)
}

// NewProcessor returns the processor for engine. "auto" picks parquet for directories
// and .parquet files and csv otherwise.
func NewProcessor(engine, path string) (Processor, error) {
	if engine == EngineAuto || engine == "" {
		engine = detectEngine(path)
	}
	switch engine {
	case EngineCSV:
		return &CSVProcessor{Path: path}, nil
	case EngineParquet:
		return &ParquetProcessor{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

func detectEngine(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return EngineParquet
	}
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return EngineParquet
	}
	return EngineCSV
}

// CSVProcessor reads a single CSV file written by the generator.
type CSVProcessor struct {
	Path string
}

// Name implements Processor.
func (p *CSVProcessor) Name() string { return EngineCSV }

// Read implements Processor.
func (p *CSVProcessor) Read(ctx context.Context) (Table, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return Table{}, fmt.Errorf("opening %s: %w", p.Path, err)
	}
	defer f.Close()

	reader, err := dataset.NewCSVReader(f)
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", p.Path, err)
	}

	var records []dataset.Record
	for {
		if len(records)%65536 == 0 {
			if err = ctx.Err(); err != nil {
				return Table{}, err
			}
		}
		rec, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return Table{}, fmt.Errorf("reading %s: %w", p.Path, readErr)
		}
		records = append(records, rec)
	}
	return Table{Records: records, Files: 1}, nil
}

// Process implements Processor.
func (p *CSVProcessor) Process(ctx context.Context, t Table) (Report, error) {
	return Summarize(ctx, t.Records)
}

// ParquetProcessor reads a Parquet file or every .parquet file below a directory.
type ParquetProcessor struct {
	Path string
	// Concurrency bounds parallel file reads; 0 means one per CPU.
	Concurrency int
}

// Name implements Processor.
func (p *ParquetProcessor) Name() string { return EngineParquet }

// Read implements Processor. Files are read concurrently; the first failure cancels
// the rest.
func (p *ParquetProcessor) Read(ctx context.Context) (Table, error) {
	files, err := parquetFiles(p.Path)
	if err != nil {
		return Table{}, err
	}

	parts := make([][]dataset.Record, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	limit := p.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rows, err := parquet.ReadFile[dataset.Record](file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			parts[i] = rows
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return Table{}, err
	}

	var n int
	for _, part := range parts {
		n += len(part)
	}
	records := make([]dataset.Record, 0, n)
	for _, part := range parts {
		records = append(records, part...)
	}
	return Table{Records: records, Files: len(files)}, nil
}

// Process implements Processor.
func (p *ParquetProcessor) Process(ctx context.Context, t Table) (Report, error) {
	return Summarize(ctx, t.Records)
}

func parquetFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".parquet") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoParquetFiles, root)
	}
	sort.Strings(files)
	return files, nil
}

// Benchmark is the outcome of Run.
type Benchmark struct {
	Engine      string        `json:"engine"`
	Rows        int64         `json:"rows"`
	Files       int           `json:"files"`
	ReadTime    time.Duration `json:"read_time_ns"`
	ProcessTime time.Duration `json:"process_time_ns"`
	Report      Report        `json:"report"`
}

// Total returns ReadTime plus ProcessTime.
func (b Benchmark) Total() time.Duration {
	return b.ReadTime + b.ProcessTime
}

// Run reads and processes the dataset with p, timing each phase.
func Run(ctx context.Context, p Processor) (Benchmark, error) {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "aggregate")
	bench := Benchmark{Engine: p.Name()}

	log.Info().Str("engine", p.Name()).Msg("reading dataset")
	start := time.Now()
	table, err := p.Read(ctx)
	bench.ReadTime = time.Since(start)
	if err != nil {
		return bench, err
	}
	bench.Rows = int64(len(table.Records))
	bench.Files = table.Files
	log.Info().
		Int64("rows", bench.Rows).
		Int("files", bench.Files).
		Dur("read_time", bench.ReadTime).
		Msg("read finished")

	start = time.Now()
	report, err := p.Process(ctx, table)
	bench.ProcessTime = time.Since(start)
	if err != nil {
		return bench, err
	}
	bench.Report = report
	log.Info().Dur("process_time", bench.ProcessTime).Msg("aggregation finished")
	return bench, nil
}
