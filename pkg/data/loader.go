package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Record is one row of tabular input. Free-text columns live in Text,
// numeric columns in Values.
type Record struct {
	Text   map[string]string
	Values map[string]float64
}

// NewRecord allocates an empty record.
func NewRecord() Record {
	return Record{Text: map[string]string{}, Values: map[string]float64{}}
}

// Clone deep copies the record so transforms never alias caller maps.
func (r Record) Clone() Record {
	out := Record{
		Text:   make(map[string]string, len(r.Text)),
		Values: make(map[string]float64, len(r.Values)),
	}
	for k, v := range r.Text {
		out.Text[k] = v
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// Has reports whether column is present as either text or value.
func (r Record) Has(column string) bool {
	if _, ok := r.Text[column]; ok {
		return true
	}
	_, ok := r.Values[column]
	return ok
}

// Columns returns every column name of the record, sorted.
func (r Record) Columns() []string {
	out := make([]string, 0, len(r.Text)+len(r.Values))
	for k := range r.Text {
		out = append(out, k)
	}
	for k := range r.Values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LoadCSV opens path and reads every row as a Record.
func LoadCSV(path string, textColumns []string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(bufio.NewReader(file), textColumns)
}

// ReadCSV reads a header row followed by data rows. Columns named in
// textColumns are kept as strings; every other column must parse as a float.
func ReadCSV(r io.Reader, textColumns []string) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	isText := make(map[string]bool, len(textColumns))
	for _, c := range textColumns {
		isText[c] = true
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		rec := NewRecord()
		for i, raw := range row {
			if i >= len(headers) {
				break
			}
			col := headers[i]
			if isText[col] {
				rec.Text[col] = raw
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d column %q: %w", line, col, err)
			}
			rec.Values[col] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteCSV writes records with the given column order. Text columns are
// written verbatim, values with six decimals.
func WriteCSV(w io.Writer, columns []string, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(columns))
	for i, rec := range records {
		for j, col := range columns {
			if s, ok := rec.Text[col]; ok {
				row[j] = s
			} else if v, ok := rec.Values[col]; ok {
				row[j] = strconv.FormatFloat(v, 'f', 6, 64)
			} else {
				row[j] = ""
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
