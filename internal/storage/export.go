package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportCSV writes observations as CSV
func ExportCSV(w io.Writer, rows []Observation) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"timestamp", "server", "state"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, o := range rows {
		row := []string{
			o.Timestamp.UTC().Format(time.RFC3339Nano),
			o.Server,
			string(o.State),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportJSON writes observations as an indented JSON document
func ExportJSON(w io.Writer, rows []Observation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if rows == nil {
		rows = []Observation{}
	}

	export := struct {
		ExportedAt   time.Time     `json:"exportedAt"`
		Count        int           `json:"count"`
		Observations []Observation `json:"observations"`
	}{
		ExportedAt:   time.Now().UTC(),
		Count:        len(rows),
		Observations: rows,
	}

	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}
