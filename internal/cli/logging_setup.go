package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/synthsales/internal/config"
	"github.com/rshade/synthsales/internal/logging"
)

// setupLogging configures logging from the loaded config and CLI flags, then stores
// the logger and a trace ID in the command context.
func setupLogging(cmd *cobra.Command, cfg *config.Config) logging.LogPathResult {
	loggingCfg := cfg.Logging

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
		loggingCfg.File = ""
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" && !debug {
		loggingCfg.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		loggingCfg.Format = format
	}

	// Ensure log directory exists after all overrides have been applied.
	if loggingCfg.File != "" {
		withFile := config.Config{Logging: loggingCfg}
		if err := withFile.EnsureLogDir(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	lc := loggingCfg.ToLoggingConfig()
	lc.Writer = cmd.ErrOrStderr()

	result := logging.NewLoggerWithPath(lc)
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.With().Str("trace_id", traceID).Logger().WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Str("command", cmd.Name()).Str("trace_id", traceID).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle, if any.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
