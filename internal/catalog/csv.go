package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"footage/internal/fileutil"
)

// Encode renders the catalog as CSV with a header row.
func (c Catalog) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for _, row := range c.Rows {
		if err := w.Write(row.record()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV atomically replaces path with the encoded catalog.
func WriteCSV(path string, c Catalog) error {
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := fileutil.WriteFileAtomicReplace(path, data); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}
