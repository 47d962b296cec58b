package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/synthsales/internal/dataset"
)

// CurrentSchemaVersion is written by config init and accepted by Validate.
const CurrentSchemaVersion = "1.0.0"

// Environment variables read by ApplyEnv.
const (
	EnvHome      = "SYNTHSALES_HOME"
	EnvConfig    = "SYNTHSALES_CONFIG"
	EnvLogLevel  = "SYNTHSALES_LOG_LEVEL"
	EnvLogFormat = "SYNTHSALES_LOG_FORMAT"
	EnvWorkers   = "SYNTHSALES_WORKERS"
)

// Config is the complete synthsales configuration.
type Config struct {
	SchemaVersion string           `yaml:"schema_version" validate:"required,schemaversion"`
	Generation    GenerationConfig `yaml:"generation"`
	Transform     TransformConfig  `yaml:"transform"`
	Upload        UploadConfig     `yaml:"upload"`
	Logging       LoggingConfig    `yaml:"logging"`
	Ledger        LedgerConfig     `yaml:"ledger"`
}

// GenerationConfig holds dataset generation settings. Workers of 0 means one per CPU.
type GenerationConfig struct {
	Records    int64    `yaml:"records"     validate:"gt=0"`
	BatchSize  int64    `yaml:"batch_size"  validate:"gt=0,ltefield=Records"`
	Workers    int      `yaml:"workers"     validate:"gte=0"`
	Seed       uint64   `yaml:"seed"`
	Output     string   `yaml:"output"      validate:"required"`
	StartDate  string   `yaml:"start_date"  validate:"required,datetime=2006-01-02"`
	EndDate    string   `yaml:"end_date"    validate:"required,datetime=2006-01-02"`
	Categories []string `yaml:"categories"  validate:"min=1,dive,required"`
	Regions    []string `yaml:"regions"     validate:"min=1,dive,required"`
}

// TransformConfig holds CSV to Parquet defaults.
type TransformConfig struct {
	Compression   string   `yaml:"compression"    validate:"oneof=zstd snappy gzip none"`
	RowGroupSize  int      `yaml:"row_group_size" validate:"gte=0"`
	MaxOpenFiles  int      `yaml:"max_open_files" validate:"gte=0"`
	PartitionCols []string `yaml:"partition_cols"`
}

// UploadConfig holds object storage settings.
type UploadConfig struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"         validate:"omitempty,url"`
	StorageClass   string `yaml:"storage_class"    validate:"oneof=STANDARD STANDARD_IA ONEZONE_IA INTELLIGENT_TIERING"`
	Workers        int    `yaml:"workers"          validate:"gte=1"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// LedgerConfig controls the run history database.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// New returns a Config populated with defaults.
func New() *Config {
	home, err := GetConfigDir()
	if err != nil {
		home = ".synthsales"
	}

	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		Generation: GenerationConfig{
			Records:    dataset.DefaultRecords,
			BatchSize:  dataset.DefaultBatchSize,
			Workers:    0,
			Seed:       dataset.DefaultSeed,
			Output:     dataset.DefaultOutput,
			StartDate:  dataset.DefaultStartDate.Format(time.DateOnly),
			EndDate:    dataset.DefaultEndDate.Format(time.DateOnly),
			Categories: dataset.DefaultCategories(),
			Regions:    dataset.DefaultRegions(),
		},
		Transform: TransformConfig{
			Compression: "zstd",
		},
		Upload: UploadConfig{
			Region:       "us-east-1",
			StorageClass: "STANDARD",
			Workers:      8,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    filepath.Join(home, "runs.db"),
		},
	}
}

// Load returns defaults overlaid with the YAML file at path and then with
// environment overrides. An empty path resolves to SYNTHSALES_CONFIG or the default
// location; a missing default file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfig); env != "" {
			path, explicit = env, true
		} else {
			var err error
			if path, err = DefaultConfigPath(); err != nil {
				return nil, err
			}
		}
	}

	cfg := New()
	if err := MergeYAMLFile(cfg, path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv(os.LookupEnv)
			return cfg, nil
		}
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv applies environment overrides. Unparseable numeric values are ignored.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookupEnv(EnvWorkers); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Generation.Workers = n
		}
	}
}

// Save writes c as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// GenerationParams converts the generation section into dataset parameters.
func (g GenerationConfig) GenerationParams() (dataset.GenerationParams, error) {
	start, err := time.Parse(time.DateOnly, g.StartDate)
	if err != nil {
		return dataset.GenerationParams{}, fmt.Errorf("parsing start_date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, g.EndDate)
	if err != nil {
		return dataset.GenerationParams{}, fmt.Errorf("parsing end_date: %w", err)
	}

	workers := g.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	return dataset.GenerationParams{
		Records:    g.Records,
		BatchSize:  g.BatchSize,
		Workers:    workers,
		Seed:       g.Seed,
		Output:     g.Output,
		Categories: g.Categories,
		Regions:    g.Regions,
		Dates:      dataset.DateRange(start, end),
	}, nil
}

type configKey struct{}

// ContextWithConfig stores cfg in ctx.
func ContextWithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the Config stored in ctx, or defaults when none was stored.
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*Config); ok && cfg != nil {
			return cfg
		}
	}
	return New()
}
