package csvio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Required table names.
const (
	StudentsTable    = "Students"
	DepartmentsTable = "Departments"
	CoursesTable     = "Courses"
)

var RequiredTables = []string{StudentsTable, DepartmentsTable, CoursesTable}

// ErrMissingTables is returned when a workbook lacks one of the required tables.
var ErrMissingTables = errors.New(`required sheets not found: file must contain sheets named "Students", "Departments", and "Courses"`)

// Workbook holds the tables of one input document keyed by name.
type Workbook struct {
	Sheets map[string]*Sheet
}

// Sheet returns the named table or nil.
func (wb *Workbook) Sheet(name string) *Sheet {
	return wb.Sheets[name]
}

// Validate reports ErrMissingTables if any required table is absent.
func (wb *Workbook) Validate() error {
	for _, name := range RequiredTables {
		if _, ok := wb.Sheets[name]; !ok {
			return ErrMissingTables
		}
	}
	return nil
}

// OpenWorkbook reads an .xlsx file, or a directory holding Students.csv,
// Departments.csv and Courses.csv separated by delim.
func OpenWorkbook(path string, delim rune) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if info.IsDir() {
		return readCSVDir(path, delim)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadWorkbook(f)
}

// ReadWorkbook reads every sheet of an .xlsx document.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{Sheets: make(map[string]*Sheet)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		wb.Sheets[name] = &Sheet{Name: name, Rows: rows}
	}
	return wb, nil
}

// NewWorkbook builds a workbook from delimited tables, e.g. uploaded CSV files.
func NewWorkbook(tables map[string]io.Reader, delim rune) (*Workbook, error) {
	wb := &Workbook{Sheets: make(map[string]*Sheet, len(tables))}
	for name, in := range tables {
		sheet, err := readSheet(name, in, delim)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		wb.Sheets[name] = sheet
	}
	return wb, nil
}

func readCSVDir(dir string, delim rune) (*Workbook, error) {
	var mu sync.Mutex
	wb := &Workbook{Sheets: make(map[string]*Sheet)}

	var g errgroup.Group
	for _, name := range RequiredTables {
		g.Go(func() error {
			data, err := readTableFile(dir, name)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			sheet, err := readSheet(name, bytes.NewReader(data), delim)
			if err != nil {
				return fmt.Errorf("failed to parse %s.csv: %w", name, err)
			}
			mu.Lock()
			wb.Sheets[name] = sheet
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return wb, nil
}

// readTableFile looks for <Name>.csv and then <name>.csv.
func readTableFile(dir, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		data, err = os.ReadFile(filepath.Join(dir, strings.ToLower(name)+".csv"))
	}
	return data, err
}
