package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Column names of the dataset, in output order.
const (
	ColumnCustomerID = "id_cliente"
	ColumnDate       = "fecha_de_transaccion"
	ColumnQuantity   = "cantidad_de_venta"
	ColumnCategory   = "categoria_de_producto"
	ColumnRegion     = "region_de_venta"
)

// Header returns the dataset column names in output order.
func Header() []string {
	return []string{ColumnCustomerID, ColumnDate, ColumnQuantity, ColumnCategory, ColumnRegion}
}

// Sink receives generated batches. Only one goroutine calls a Sink at a time.
type Sink interface {
	WriteHeader() error
	WriteBatch(b *Batch) error
	Close() error
}

// CSVSink writes batches as comma-separated text with ISO dates and no index column.
type CSVSink struct {
	path   string
	closer io.Closer
	w      *csv.Writer
	record []string
}

// CreateCSVSink creates (or truncates) the file at path, creating parent directories.
func CreateCSVSink(path string) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, &WriteError{Path: path, Err: err}
		}
	}
	f, err := os.Create(path) //nolint:gosec // path is an operator-supplied output location
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	s := NewCSVSink(f)
	s.path = path
	s.closer = f
	return s, nil
}

// NewCSVSink writes to w. Close flushes but does not close w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{
		w:      csv.NewWriter(w),
		record: make([]string, len(Header())),
	}
}

// Path returns the file path, or "" for writer-backed sinks.
func (s *CSVSink) Path() string {
	return s.path
}

// WriteHeader writes the column names.
func (s *CSVSink) WriteHeader() error {
	if err := s.w.Write(Header()); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return s.flush()
}

// WriteBatch appends b's rows and flushes them.
func (s *CSVSink) WriteBatch(b *Batch) error {
	for i := range b.Len() {
		s.record[0] = strconv.FormatInt(b.CustomerIDs[i], 10)
		s.record[1] = b.Dates[i].Format(time.DateOnly)
		s.record[2] = strconv.FormatInt(b.Quantities[i], 10)
		s.record[3] = b.Categories[i]
		s.record[4] = b.Regions[i]
		if err := s.w.Write(s.record); err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
	}
	return s.flush()
}

// Close flushes buffered rows and closes the underlying file, if any.
func (s *CSVSink) Close() error {
	err := s.flush()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
		s.closer = nil
	}
	if err != nil {
		return asWriteError(err, s.path)
	}
	return nil
}

func (s *CSVSink) flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}
