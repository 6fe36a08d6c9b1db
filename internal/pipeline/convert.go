package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
)

// Converter turns the enriched CSV into the final JSON document.
type Converter struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewConverter creates a Converter.
func NewConverter(logger *slog.Logger, metrics *observability.Metrics) *Converter {
	return &Converter{logger: logger, metrics: metrics}
}

// Convert reads enriched CSV rows from in and writes them to out as a JSON
// array. Nothing is written when any row fails to parse.
func (c *Converter) Convert(in io.Reader, out io.Writer) ([]domain.FinalRecord, error) {
	records, err := c.read(in)
	if err != nil {
		return nil, err
	}
	if err := c.write(out, records); err != nil {
		return nil, err
	}
	return records, nil
}

// ConvertFile converts csvPath into jsonPath. The whole CSV is parsed before
// jsonPath is opened, so a parse failure leaves any existing file untouched.
func (c *Converter) ConvertFile(csvPath, jsonPath string) (records []domain.FinalRecord, err error) {
	in, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer in.Close()

	records, err = c.read(in)
	if err != nil {
		return nil, err
	}

	out, err := os.Create(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("create json: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close json: %w", cerr)
		}
	}()

	if err := c.write(out, records); err != nil {
		return nil, err
	}

	c.logger.Info("json written", "path", jsonPath, "records", len(records))
	return records, nil
}

func (c *Converter) read(in io.Reader) ([]domain.FinalRecord, error) {
	records, err := csvfile.ReadFinal(in)
	if err != nil {
		return nil, fmt.Errorf("read enriched csv: %w", err)
	}
	return records, nil
}

func (c *Converter) write(out io.Writer, records []domain.FinalRecord) error {
	if err := jsonfile.Write(out, records); err != nil {
		return err
	}
	c.metrics.RecordsConverted.Add(float64(len(records)))
	return nil
}
