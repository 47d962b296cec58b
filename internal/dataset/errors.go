package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the generator.
var (
	// ErrBatchesFailed is returned by Generator.Run when at least one batch failed.
	ErrBatchesFailed = errors.New("batches failed")

	// ErrEmptyVocabulary means a batch had nothing to draw categories, regions or dates from.
	ErrEmptyVocabulary = errors.New("empty vocabulary")

	// ErrInsufficientMemory means the host cannot hold a batch of the requested size.
	ErrInsufficientMemory = errors.New("insufficient memory for batch")

	// ErrRowCountMismatch means a row generator returned the wrong number of rows.
	ErrRowCountMismatch = errors.New("row count mismatch")
)

// ConfigurationError reports an invalid generation setting. It is raised before any
// batch is dispatched.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GenerationError reports that a single batch could not be generated.
type GenerationError struct {
	BatchIndex int
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("batch %d: %v", e.BatchIndex, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// WriteError reports that the sink could not be written. It is fatal for the run.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("write sink: %v", e.Err)
	}
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// asWriteError wraps err in a WriteError unless it already is one.
func asWriteError(err error, path string) error {
	var we *WriteError
	if errors.As(err, &we) {
		return err
	}
	return &WriteError{Path: path, Err: err}
}
