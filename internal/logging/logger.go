package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output and format names accepted by Config.
const (
	OutputStderr  = "stderr"
	OutputFile    = "file"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Rotation defaults for file output.
const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 3
)

// Config describes how the process logger is built.
type Config struct {
	Level      string
	Format     string
	Output     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	Caller     bool
	// Writer receives stderr output; nil means os.Stderr.
	Writer io.Writer
}

// LogPathResult is the outcome of NewLoggerWithPath.
// When file output was requested but could not be opened, the logger falls back to
// stderr and FallbackUsed/FallbackReason describe why.
type LogPathResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	closer io.Closer
}

// Close releases the rotating file writer, if any.
func (r *LogPathResult) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// NewLogger builds a logger from cfg, ignoring file fallback details.
func NewLogger(cfg Config) zerolog.Logger {
	return NewLoggerWithPath(cfg).Logger
}

// NewLoggerWithPath builds a logger from cfg and reports where output goes.
func NewLoggerWithPath(cfg Config) LogPathResult {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	result := LogPathResult{}
	var out io.Writer = os.Stderr
	if cfg.Writer != nil {
		out = cfg.Writer
	}

	if cfg.Output == OutputFile && cfg.File != "" {
		if dirErr := os.MkdirAll(filepath.Dir(cfg.File), 0o750); dirErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = fmt.Sprintf("cannot create log directory: %v", dirErr)
		} else {
			rotating := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
				MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
				LocalTime:  true,
			}
			out = rotating
			result.closer = rotating
			result.UsingFile = true
			result.FilePath = cfg.File
		}
	}

	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    result.UsingFile,
		}
	}

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	result.Logger = ctx.Logger()
	return result
}

// ComponentLogger returns a child logger tagged with the component name.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := zerolog.Nop()
		return &l
	}
	return zerolog.Ctx(ctx)
}

// PrintLogPathMessage tells the user where the log file lives.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user file logging was not possible.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: file logging unavailable (%s), logging to stderr\n", reason)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
