package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"
)

// ErrInvalidHeader is returned when a CSV file does not start with Header().
var ErrInvalidHeader = errors.New("unexpected dataset header")

// Record is one sale row. The parquet tags carry the dataset column names.
type Record struct {
	CustomerID int64     `parquet:"id_cliente"`
	Date       time.Time `parquet:"fecha_de_transaccion"`
	Quantity   int64     `parquet:"cantidad_de_venta"`
	Category   string    `parquet:"categoria_de_producto,dict"`
	Region     string    `parquet:"region_de_venta,dict"`
}

// Record returns row i of b.
func (b *Batch) Record(i int) Record {
	return Record{
		CustomerID: b.CustomerIDs[i],
		Date:       b.Dates[i],
		Quantity:   b.Quantities[i],
		Category:   b.Categories[i],
		Region:     b.Regions[i],
	}
}

// CSVReader reads Records from a file written by CSVSink.
type CSVReader struct {
	r    *csv.Reader
	line int
}

// NewCSVReader validates the header of r and returns a reader positioned at the
// first data row.
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header())
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if !slices.Equal(header, Header()) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidHeader, header)
	}
	return &CSVReader{r: cr, line: 1}, nil
}

// Read returns the next record, or io.EOF after the last one.
func (c *CSVReader) Read() (Record, error) {
	fields, err := c.r.Read()
	if err != nil {
		return Record{}, err
	}
	c.line++

	var rec Record
	if rec.CustomerID, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return Record{}, c.fieldError(ColumnCustomerID, err)
	}
	if rec.Date, err = time.Parse(time.DateOnly, fields[1]); err != nil {
		return Record{}, c.fieldError(ColumnDate, err)
	}
	if rec.Quantity, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
		return Record{}, c.fieldError(ColumnQuantity, err)
	}
	rec.Category = fields[3]
	rec.Region = fields[4]
	return rec, nil
}

func (c *CSVReader) fieldError(column string, err error) error {
	return fmt.Errorf("line %d, column %s: %w", c.line, column, err)
}
