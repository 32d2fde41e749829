package csvio

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Sheet is one named table: a header row followed by data rows.
type Sheet struct {
	Name string
	Rows [][]string
}

// Header returns the trimmed header row.
func (s *Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	header := make([]string, len(s.Rows[0]))
	for i, h := range s.Rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return header
}

// Records returns every non-blank data row keyed by header, the first column
// winning when a header repeats. The returned line
// numbers are 1-based and count the header as line 1.
func (s *Sheet) Records() ([]map[string]string, []int) {
	header := s.Header()
	var records []map[string]string
	var lines []int
	for i, row := range s.Rows[min(1, len(s.Rows)):] {
		if blank(row) {
			continue
		}
		rec := make(map[string]string, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			if _, dup := rec[h]; dup {
				continue
			}
			if j < len(row) {
				rec[h] = strings.TrimSpace(row[j])
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
		lines = append(lines, i+2)
	}
	return records, lines
}

// Unmarshal decodes the sheet into out with gocsv struct tags.
func (s *Sheet) Unmarshal(out interface{}) error {
	return gocsv.UnmarshalCSV(newSheetReader(s), out)
}

// WriteCSV writes the rows as delimited text.
func (s *Sheet) WriteCSV(out io.Writer, delim rune) error {
	w := csv.NewWriter(out)
	w.Comma = delim
	return w.WriteAll(s.Rows)
}

// readSheet reads raw rows through gocsv's lazy reader so that stray quotes from
// spreadsheet exports do not abort the load. Rows keep their column order, which
// decides preference ranks and department columns.
func readSheet(name string, in io.Reader, delim rune) (*Sheet, error) {
	r := gocsv.LazyCSVReader(in)
	if cr, ok := r.(*csv.Reader); ok {
		cr.Comma = delim
		cr.FieldsPerRecord = -1
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return &Sheet{Name: name, Rows: rows}, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sheetReader feeds sheet rows to gocsv, padding short rows to the header width
// and dropping blank rows.
type sheetReader struct {
	rows [][]string
	pos  int
}

func newSheetReader(s *Sheet) *sheetReader {
	header := s.Header()
	rows := make([][]string, 0, len(s.Rows))
	if header != nil {
		rows = append(rows, header)
	}
	for _, row := range s.Rows[min(1, len(s.Rows)):] {
		if blank(row) {
			continue
		}
		padded := make([]string, max(len(header), len(row)))
		for i, cell := range row {
			padded[i] = strings.TrimSpace(cell)
		}
		rows = append(rows, padded[:len(header)])
	}
	return &sheetReader{rows: rows}
}

func (r *sheetReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *sheetReader) ReadAll() ([][]string, error) {
	rows := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rows, nil
}
