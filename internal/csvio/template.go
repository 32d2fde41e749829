package csvio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TemplateSheets returns the sample tables offered to users as a starting point.
func TemplateSheets() []*Sheet {
	return []*Sheet{
		{Name: StudentsTable, Rows: [][]string{
			{"Sr No", "Name", "UID", "CGPA", "Department", "Preference 1", "Preference 2", "Preference 3"},
			{"1", "John Doe", "UID001", "9.2", "CSE", "Machine Learning", "Web Development", "Cloud Computing"},
			{"2", "Jane Smith", "UID002", "8.7", "ECE", "VLSI Design", "Embedded Systems", "Signal Processing"},
			{"3", "Robert Johnson", "UID003", "7.8", "Mechanical", "Thermodynamics", "Robotics", "Material Science"},
		}},
		{Name: DepartmentsTable, Rows: [][]string{
			{"Sr No", "Department Name", "Course Offered", "Total Intake"},
			{"1", "CSE", "Machine Learning", "50"},
			{"2", "CSE", "Web Development", "45"},
			{"3", "CSE", "Cloud Computing", "40"},
			{"4", "ECE", "VLSI Design", "35"},
			{"5", "ECE", "Embedded Systems", "30"},
			{"6", "Mechanical", "Thermodynamics", "40"},
			{"7", "Mechanical", "Robotics", "25"},
		}},
		{Name: CoursesTable, Rows: [][]string{
			{"Sr No", "Course Name", "CSE", "ECE", "Mechanical", "Civil"},
			{"1", "Machine Learning", "30", "10", "5", "5"},
			{"2", "Web Development", "35", "5", "3", "2"},
			{"3", "Cloud Computing", "30", "5", "3", "2"},
			{"4", "VLSI Design", "5", "25", "3", "2"},
			{"5", "Embedded Systems", "5", "20", "3", "2"},
			{"6", "Thermodynamics", "5", "5", "25", "5"},
			{"7", "Robotics", "10", "5", "10", "0"},
		}},
	}
}

// WriteTemplate writes the sample workbook to an .xlsx path, or the three sample
// CSV tables into a directory for any other path.
func WriteTemplate(path string, delim rune) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer out.Close()
		return WriteTemplateXLSX(out)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	for _, sheet := range TemplateSheets() {
		var buf bytes.Buffer
		if err := sheet.WriteCSV(&buf, delim); err != nil {
			return err
		}
		file := filepath.Join(path, sheet.Name+".csv")
		if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
	}
	return nil
}

// WriteTemplateXLSX writes the sample workbook with numeric cells where the
// reference template has numbers.
func WriteTemplateXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range TemplateSheets() {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}
		for r, row := range sheet.Rows {
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = cellValue(v, r == 0)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)
	_, err := f.WriteTo(w)
	return err
}

func cellValue(v string, header bool) interface{} {
	if header {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
