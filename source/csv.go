package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spektr-org/covidnl/metrics"
	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// CSV TABLE — Parses ';'-separated source files into a column projection
// ============================================================================
// Only the columns named by the dataset's schema are kept, in schema order,
// so files whose column order differs (the archive and the current RIVM
// exports) concatenate cleanly.
// ============================================================================

// Table is a raw dataset projected onto its schema columns.
type Table struct {
	Schema  schema.Config
	Rows    [][]string
	Skipped int // malformed lines ignored while reading

	index map[string]int
}

func newTable(sch schema.Config) *Table {
	cols := sch.Columns()
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return &Table{Schema: sch, index: idx}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Get returns the trimmed value of column col in row i, or "" when the
// column is not part of the schema.
func (t *Table) Get(i int, col string) string {
	c, ok := t.index[col]
	if !ok || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][c]
}

// ReadTable parses a ';'-separated file with a header row. The header must
// hold every required schema column. Malformed lines are skipped and counted.
func ReadTable(r io.Reader, sch schema.Config) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	pos, err := sch.Index(header)
	if err != nil {
		return nil, err
	}

	t := newTable(sch)
	cols := sch.Columns()
	srcIdx := make([]int, len(cols))
	for i, c := range cols {
		p, ok := pos[c]
		if !ok {
			p = -1
		}
		srcIdx[i] = p
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			t.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", sch.Name, err)
		}

		out := make([]string, len(cols))
		for i, p := range srcIdx {
			if p >= 0 && p < len(row) {
				out[i] = strings.TrimSpace(row[p])
			}
		}
		t.Rows = append(t.Rows, out)
	}

	metrics.RowsLoaded.WithLabelValues(sch.Name).Add(float64(len(t.Rows)))
	if t.Skipped > 0 {
		metrics.RowsDropped.WithLabelValues(sch.Name, "malformed").Add(float64(t.Skipped))
	}
	return t, nil
}

// ReadTableFile opens path and reads it with ReadTable.
func ReadTableFile(path string, sch schema.Config) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f, sch)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// Concat appends the rows of b to a copy of a. Both must share a schema.
func Concat(a, b *Table) (*Table, error) {
	if a.Schema.Name != b.Schema.Name {
		return nil, fmt.Errorf("concat %s with %s: schemas differ", a.Schema.Name, b.Schema.Name)
	}
	out := newTable(a.Schema)
	out.Rows = make([][]string, 0, len(a.Rows)+len(b.Rows))
	out.Rows = append(out.Rows, a.Rows...)
	out.Rows = append(out.Rows, b.Rows...)
	out.Skipped = a.Skipped + b.Skipped
	return out, nil
}

// ============================================================================
// DATASET LOADERS
// ============================================================================

// LoadCases reads the current and the archived RIVM case files and
// concatenates them, current first. No cleaning is applied.
func LoadCases(newer, older string) (*Table, error) {
	return loadPair(newer, older, schema.RawCases)
}

// LoadHospital reads the current and the archived RIVM hospital admission
// files and concatenates them, current first. No cleaning is applied.
func LoadHospital(newer, older string) (*Table, error) {
	return loadPair(newer, older, schema.RawHospital)
}

// LoadPopulation reads the CBS population table as-is.
func LoadPopulation(path string) (*Table, error) {
	return ReadTableFile(path, schema.RawPopulation)
}

func loadPair(newer, older string, sch schema.Config) (*Table, error) {
	a, err := ReadTableFile(newer, sch)
	if err != nil {
		return nil, err
	}
	b, err := ReadTableFile(older, sch)
	if err != nil {
		return nil, err
	}
	return Concat(a, b)
}
