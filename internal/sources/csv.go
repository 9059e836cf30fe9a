package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"crosscheck/internal/config"
	"crosscheck/internal/incident"
)

// ErrMissingColumn reports a configured column that the CSV header lacks.
var ErrMissingColumn = errors.New("configured column missing from header")

// table is a parsed CSV file with a header lookup.
type table struct {
	path    string
	header  []string
	columns map[string]int
	rows    [][]string
}

func readTable(path string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return parseTable(path, file)
}

func parseTable(path string, r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &table{path: path, header: header, columns: make(map[string]int, len(header))}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := t.columns[key]; !dup {
			t.columns[key] = i
		}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if blankRow(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// column returns an accessor for the named header. An empty name yields an
// accessor that always returns "".
func (t *table) column(name string) (func([]string) string, error) {
	if name == "" {
		return func([]string) string { return "" }, nil
	}
	idx, ok := t.columns[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%s: column %q: %w", t.path, name, ErrMissingColumn)
	}
	return func(row []string) string {
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}, nil
}

func (t *table) fields(row []string) incident.Fields {
	out := make(incident.Fields, len(t.header))
	for i, name := range t.header {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		out[i] = incident.Field{Name: name, Value: value}
	}
	return out
}

// accessors binds every logical column in cols.
type accessors struct {
	id, caseID, date, name, race, gender, age, address, zip, city, state, agency func([]string) string
}

func (t *table) bind(cols config.Columns) (accessors, error) {
	var a accessors
	targets := []struct {
		dst  *func([]string) string
		name string
	}{
		{&a.id, cols.ID},
		{&a.caseID, cols.CaseID},
		{&a.date, cols.Date},
		{&a.name, cols.Name},
		{&a.race, cols.Race},
		{&a.gender, cols.Gender},
		{&a.age, cols.Age},
		{&a.address, cols.Address},
		{&a.zip, cols.Zip},
		{&a.city, cols.City},
		{&a.state, cols.State},
		{&a.agency, cols.Agency},
	}
	for _, target := range targets {
		fn, err := t.column(target.name)
		if err != nil {
			return accessors{}, err
		}
		*target.dst = fn
	}
	return a, nil
}
