// Package jsonfile writes the final substation JSON document.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
)

const indent = "    "

// Write encodes records as an indented JSON array. Non-ASCII text and HTML
// characters are written literally. A nil slice is written as [].
// Whole-number coordinates are written without a fraction (45, not 45.0) and
// U+2028/U+2029 are still escaped, so output may differ byte-wise from other
// encoders while decoding to the same values.
func Write(w io.Writer, records []domain.FinalRecord) error {
	if records == nil {
		records = []domain.FinalRecord{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode final records: %w", err)
	}
	return nil
}

// Read decodes a JSON array previously produced by Write.
func Read(r io.Reader) ([]domain.FinalRecord, error) {
	var records []domain.FinalRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode final records: %w", err)
	}
	return records, nil
}
