// Package csvfile reads and writes the enriched substation CSV.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
)

// Writer emits enriched rows under the fixed CSV header.
type Writer struct {
	w *csv.Writer
}

// NewWriter writes the header row and returns a Writer ready for records.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return &Writer{w: cw}, nil
}

// Write appends one enriched row.
func (w *Writer) Write(rec domain.EnrichedRecord) error {
	if err := w.w.Write(rec.Row()); err != nil {
		return fmt.Errorf("write csv row %s: %w", rec.CommuneCode, err)
	}
	return nil
}

// Flush writes any buffered rows and reports the first write error.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// ReadRows reads a CSV with a header row and returns each data row keyed by
// column name. Every column in required must be present in the header.
func ReadRows(r io.Reader, required []string) ([]map[string]string, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv header: %w", io.ErrUnexpectedEOF)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, name)
		}
	}

	rows := []map[string]string{}
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := make(map[string]string, len(header))
		for name, i := range index {
			row[name] = fields[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFinal reads an enriched CSV and converts every row to a FinalRecord.
func ReadFinal(r io.Reader) ([]domain.FinalRecord, error) {
	rows, err := ReadRows(r, domain.CSVHeader)
	if err != nil {
		return nil, err
	}

	records := make([]domain.FinalRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := domain.FinalFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
