package dataset

import (
	"runtime"
	"slices"
	"time"

	"github.com/rshade/synthsales/internal/engine/batch"
)

// Defaults mirror the reference dataset: ten million sales in batches of one million,
// dated across calendar year 2023.
const (
	DefaultRecords   int64  = 10_000_000
	DefaultBatchSize int64  = 1_000_000
	DefaultSeed      uint64 = 12345
	DefaultOutput           = "dataset_base.csv"
)

// DefaultCategories is the product category vocabulary.
func DefaultCategories() []string {
	return []string{"Moda", "Tecnología", "Belleza", "Salud", "Juguetes"}
}

// DefaultRegions is the sale region vocabulary.
func DefaultRegions() []string {
	return []string{"Caribe", "Andina", "Pacífico", "Orinoquía", "Amazonía", "Insular"}
}

// DefaultStartDate and DefaultEndDate bound the transaction dates as [start, end).
var (
	DefaultStartDate = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // read-only default
	DefaultEndDate   = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // read-only default
)

// GenerationParams is the mutable input to NewGenerationConfig.
type GenerationParams struct {
	Records    int64
	BatchSize  int64
	Workers    int
	Seed       uint64
	Output     string
	Categories []string
	Regions    []string
	Dates      []time.Time
}

// DefaultGenerationParams returns the reference run settings with one worker per CPU.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Records:    DefaultRecords,
		BatchSize:  DefaultBatchSize,
		Workers:    runtime.NumCPU(),
		Seed:       DefaultSeed,
		Output:     DefaultOutput,
		Categories: DefaultCategories(),
		Regions:    DefaultRegions(),
		Dates:      DateRange(DefaultStartDate, DefaultEndDate),
	}
}

// GenerationConfig is a validated, immutable set of generation settings.
// Accessors return copies of slice fields.
type GenerationConfig struct {
	records     int64
	batchSize   int64
	workers     int
	seed        uint64
	output      string
	categories  []string
	regions     []string
	dates       []time.Time
	partitioner *batch.Partitioner
}

// NewGenerationConfig validates p and freezes it into a GenerationConfig.
// Every failure is a *ConfigurationError.
func NewGenerationConfig(p GenerationParams) (GenerationConfig, error) {
	partitioner, err := batch.NewPartitioner(p.BatchSize)
	if err != nil {
		return GenerationConfig{}, &ConfigurationError{Field: "batch_size", Reason: err.Error()}
	}
	if err = partitioner.Validate(p.Records); err != nil {
		return GenerationConfig{}, &ConfigurationError{Field: "records", Reason: err.Error()}
	}
	if p.Workers < 1 {
		return GenerationConfig{}, &ConfigurationError{Field: "workers", Reason: "must be positive"}
	}
	if p.Output == "" {
		return GenerationConfig{}, &ConfigurationError{Field: "output", Reason: "must not be empty"}
	}
	if len(p.Categories) == 0 {
		return GenerationConfig{}, &ConfigurationError{Field: "categories", Reason: "must not be empty"}
	}
	if len(p.Regions) == 0 {
		return GenerationConfig{}, &ConfigurationError{Field: "regions", Reason: "must not be empty"}
	}
	if len(p.Dates) == 0 {
		return GenerationConfig{}, &ConfigurationError{Field: "dates", Reason: "date range is empty"}
	}
	if !slices.IsSortedFunc(p.Dates, func(a, b time.Time) int { return a.Compare(b) }) {
		return GenerationConfig{}, &ConfigurationError{Field: "dates", Reason: "must be in ascending order"}
	}

	return GenerationConfig{
		records:     p.Records,
		batchSize:   p.BatchSize,
		workers:     p.Workers,
		seed:        p.Seed,
		output:      p.Output,
		categories:  slices.Clone(p.Categories),
		regions:     slices.Clone(p.Regions),
		dates:       slices.Clone(p.Dates),
		partitioner: partitioner,
	}, nil
}

// Records returns the total record count.
func (c GenerationConfig) Records() int64 { return c.records }

// BatchSize returns the number of records per batch.
func (c GenerationConfig) BatchSize() int64 { return c.batchSize }

// Workers returns the worker pool size.
func (c GenerationConfig) Workers() int { return c.workers }

// Seed returns the master seed.
func (c GenerationConfig) Seed() uint64 { return c.seed }

// Output returns the sink path.
func (c GenerationConfig) Output() string { return c.output }

// Categories returns a copy of the product category vocabulary.
func (c GenerationConfig) Categories() []string { return slices.Clone(c.categories) }

// Regions returns a copy of the sale region vocabulary.
func (c GenerationConfig) Regions() []string { return slices.Clone(c.regions) }

// Dates returns a copy of the transaction date range.
func (c GenerationConfig) Dates() []time.Time { return slices.Clone(c.dates) }

// NumberOfBatches returns ceil(records / batchSize).
func (c GenerationConfig) NumberOfBatches() int {
	if c.partitioner == nil {
		return 0
	}
	return c.partitioner.Count(c.records)
}

// WithWorkers returns a copy of c using n workers. Plans do not depend on the
// worker count, so this never changes the generated data.
func (c GenerationConfig) WithWorkers(n int) (GenerationConfig, error) {
	if n < 1 {
		return GenerationConfig{}, &ConfigurationError{Field: "workers", Reason: "must be positive"}
	}
	c.workers = n
	return c, nil
}

// DateRange returns every calendar day in [start, end), normalised to UTC midnight.
func DateRange(start, end time.Time) []time.Time {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	stop := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var dates []time.Time
	for ; day.Before(stop); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day)
	}
	return dates
}
