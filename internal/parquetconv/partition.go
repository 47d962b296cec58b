package parquetconv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/rshade/synthsales/internal/dataset"
)

// bufferRows is how many rows a partition buffers before handing them to its writer.
const bufferRows = 4096

// partFile is one open output file.
type partFile struct {
	path    string
	file    *os.File
	writer  *parquet.GenericWriter[dataset.Record]
	buf     []dataset.Record
	lastUse uint64
}

func (p *partFile) flush() error {
	if len(p.buf) == 0 {
		return nil
	}
	if _, err := p.writer.Write(p.buf); err != nil {
		return fmt.Errorf("writing %s: %w", p.path, err)
	}
	p.buf = p.buf[:0]
	return nil
}

func (p *partFile) close() error {
	err := p.flush()
	if closeErr := p.writer.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("finalising %s: %w", p.path, closeErr)
	}
	if closeErr := p.file.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing %s: %w", p.path, closeErr)
	}
	return err
}

// partitionSet routes records to one file per partition directory. At most maxOpen
// files are open at once; the least recently written one is closed to make room, and
// a later record for its directory starts the next part file there.
type partitionSet struct {
	root    string
	cols    []string
	opts    []parquet.WriterOption
	maxOpen int
	parts   map[string]*partFile
	nextSeq map[string]int
	done    []string
	tick    uint64
	closed  bool
}

func newPartitionSet(root string, cols []string, opts []parquet.WriterOption, maxOpen int) *partitionSet {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenFiles
	}
	return &partitionSet{
		root:    root,
		cols:    cols,
		opts:    opts,
		maxOpen: maxOpen,
		parts:   make(map[string]*partFile),
		nextSeq: make(map[string]int),
	}
}

// Write buffers rec in its partition, opening a partition file on demand.
func (s *partitionSet) Write(rec dataset.Record) error {
	part, err := s.part(partitionDir(rec, s.cols))
	if err != nil {
		return err
	}

	part.buf = append(part.buf, rec)
	if len(part.buf) >= bufferRows {
		return part.flush()
	}
	return nil
}

// part returns the open file for dir, opening one if needed.
func (s *partitionSet) part(dir string) (*partFile, error) {
	s.tick++
	if part, ok := s.parts[dir]; ok {
		part.lastUse = s.tick
		return part, nil
	}
	if len(s.parts) >= s.maxOpen {
		if err := s.evict(); err != nil {
			return nil, err
		}
	}
	part, err := s.open(dir)
	if err != nil {
		return nil, err
	}
	part.lastUse = s.tick
	s.parts[dir] = part
	return part, nil
}

// evict closes the least recently written open file.
func (s *partitionSet) evict() error {
	var (
		victim string
		oldest *partFile
	)
	for dir, part := range s.parts {
		if oldest == nil || part.lastUse < oldest.lastUse {
			victim, oldest = dir, part
		}
	}
	if oldest == nil {
		return nil
	}
	delete(s.parts, victim)
	s.done = append(s.done, oldest.path)
	return oldest.close()
}

func (s *partitionSet) open(dir string) (*partFile, error) {
	fullDir := filepath.Join(s.root, dir)
	if err := os.MkdirAll(fullDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating partition directory: %w", err)
	}
	seq := s.nextSeq[dir]
	s.nextSeq[dir] = seq + 1
	path := filepath.Join(fullDir, partFileName(seq))
	f, err := os.Create(path) //nolint:gosec // output location is operator supplied
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &partFile{
		path:   path,
		file:   f,
		writer: parquet.NewGenericWriter[dataset.Record](f, s.opts...),
		buf:    make([]dataset.Record, 0, bufferRows),
	}, nil
}

// Close flushes and closes every open partition file. It is safe to call twice.
func (s *partitionSet) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, part := range s.parts {
		s.done = append(s.done, part.path)
		if err := part.close(); err != nil {
			errs = append(errs, err)
		}
	}
	clear(s.parts)
	return errors.Join(errs...)
}

// Files returns every file written, open or already rotated out, in lexical order.
func (s *partitionSet) Files() []string {
	files := make([]string, 0, len(s.done)+len(s.parts))
	files = append(files, s.done...)
	for _, part := range s.parts {
		files = append(files, part.path)
	}
	sort.Strings(files)
	return files
}

func partFileName(seq int) string {
	return fmt.Sprintf("part-%05d.parquet", seq)
}
