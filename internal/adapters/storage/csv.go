package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/customermatch/internal/domain/model"
)

const utf8BOM = "\ufeff"

// ParseCSV reads a header row followed by data rows. Each data row becomes a
// RawRecord keyed by header. Cells beyond the header are ignored and columns
// missing from a short row are left out of its record.
func ParseCSV(r io.Reader) ([]model.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrParse, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var records []model.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		rec := make(model.RawRecord, len(header))
		for i, val := range row {
			if i >= len(header) {
				break
			}
			rec[header[i]] = val
		}
		records = append(records, rec)
	}
	return records, nil
}
