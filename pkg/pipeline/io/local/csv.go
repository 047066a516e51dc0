package local

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadColumnsCSV reads a CSV file and returns, for every row, the values of the requested
// columns keyed by the requested name. Header matching is case-insensitive and ignores
// surrounding whitespace. Every requested column must exist.
func ReadColumnsCSV(r io.Reader, columns ...string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(columns))
	for _, want := range columns {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")), want) {
				index[want] = i
				break
			}
		}
	}
	var missing []string
	for _, want := range columns {
		if _, ok := index[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns %q", missing)
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			if i := index[col]; i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes a header followed by rows.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
