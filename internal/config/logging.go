package config

import (
	"github.com/rshade/synthsales/internal/logging"
)

// LoggingConfig is the logging section of the configuration file.
type LoggingConfig struct {
	Level      string `yaml:"level"        validate:"omitempty,oneof=trace debug info warn error"`
	Format     string `yaml:"format"       validate:"omitempty,oneof=console json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"  validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups"  validate:"gte=0"`
}

// ToLoggingConfig converts the logging section for internal/logging.
//
// The conversion applies these rules:
//   - Level, Format and rotation limits are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	return logging.Config{
		Level:      lc.Level,
		Format:     lc.Format,
		Output:     output,
		File:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
	}
}
