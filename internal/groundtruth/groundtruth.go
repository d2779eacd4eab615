// Package groundtruth loads the manually curated metric table that batch
// evaluation compares against.
package groundtruth

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tenk-extract/internal/model"
)

// Row holds the curated values for one ticker. Absence from the maps means
// no ground truth exists for that field.
type Row struct {
	Ticker      string
	FiscalYear  *int
	SourceFile  string
	Numbers     map[string]float64
	Identifiers map[string]string
}

// Table is the loaded ground truth, keyed by ticker and read-only after Load.
type Table struct {
	schema model.Schema
	rows   map[string]Row
}

// Load reads a CSV or XLSX ground-truth file and validates that its columns
// cover every field of the active schema. The format is chosen by file
// extension.
func Load(path string, schema model.Schema) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx":
		records, err = readXLSX(path)
	default:
		return nil, eris.Errorf("groundtruth: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.Errorf("groundtruth: %s is empty", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	if _, ok := cols["ticker"]; !ok {
		return nil, eris.Errorf("groundtruth: %s has no ticker column", path)
	}
	for _, f := range schema.Fields {
		if _, ok := cols[f.Name]; !ok {
			return nil, eris.Errorf("groundtruth: %s is missing column %q required by schema %s", path, f.Name, schema.Name)
		}
	}

	t := &Table{schema: schema, rows: make(map[string]Row)}
	for _, record := range records[1:] {
		ticker := strings.ToUpper(strings.TrimSpace(cell(record, cols["ticker"])))
		if ticker == "" {
			continue
		}

		row := Row{
			Ticker:      ticker,
			Numbers:     make(map[string]float64),
			Identifiers: make(map[string]string),
		}

		if i, ok := cols["fiscal_year"]; ok {
			if fy := model.NormalizeNumber(cell(record, i)); fy != nil {
				year := int(*fy)
				row.FiscalYear = &year
			}
		}
		if i, ok := cols["source_file"]; ok {
			row.SourceFile = strings.TrimSpace(cell(record, i))
		}

		for _, f := range schema.Fields {
			raw := strings.TrimSpace(cell(record, cols[f.Name]))
			if raw == "" {
				continue
			}
			switch f.Kind {
			case model.FieldIdentifier:
				row.Identifiers[f.Name] = model.NormalizeCIK(raw)
			default:
				if v := model.NormalizeNumber(raw); v != nil {
					row.Numbers[f.Name] = *v
				}
			}
		}

		t.rows[ticker] = row
	}

	return t, nil
}

// Schema returns the schema the table was validated against.
func (t *Table) Schema() model.Schema { return t.schema }

// Lookup returns the row for a ticker.
func (t *Table) Lookup(ticker string) (Row, bool) {
	row, ok := t.rows[strings.ToUpper(ticker)]
	return row, ok
}

// Tickers returns all tickers in the table, sorted.
func (t *Table) Tickers() []string {
	out := make([]string, 0, len(t.rows))
	for ticker := range t.rows {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "groundtruth: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "groundtruth: read %s", path)
		}
		records = append(records, record)
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "groundtruth: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("groundtruth: %s has no sheets", path)
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		records = append(records, cells)
	}
	return records, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
