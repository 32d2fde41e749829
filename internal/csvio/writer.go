package csvio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/rhyrak/go-allocate/pkg/model"
)

// AllocationsSheet is the sheet name used for exported workbooks.
const AllocationsSheet = "Allocations"

var allocationHeader = []interface{}{"Sr No", "Name", "UID", "CGPA", "Department", "Allocated Course", "Preference"}

// ExportAllocations writes the records to path as .xlsx or CSV depending on the
// file extension and returns the path written.
func ExportAllocations(result *model.AllocationResult, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := allocationsWorkbook(result)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := f.SaveAs(path); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil
	}

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()
	if err := WriteAllocationsCSV(out, result); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteAllocationsCSV writes the records as comma separated rows with a header.
func WriteAllocationsCSV(w io.Writer, result *model.AllocationResult) error {
	rows := csvRows(result)
	return gocsv.Marshal(&rows, w)
}

// MarshalAllocations renders the records as a CSV string.
func MarshalAllocations(result *model.AllocationResult) (string, error) {
	rows := csvRows(result)
	return gocsv.MarshalString(&rows)
}

// WriteAllocationsXLSX writes the records as a workbook with a single Allocations sheet.
func WriteAllocationsXLSX(w io.Writer, result *model.AllocationResult) error {
	f, err := allocationsWorkbook(result)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func csvRows(result *model.AllocationResult) []*model.AllocationCSVRow {
	rows := make([]*model.AllocationCSVRow, 0, len(result.Records))
	for i := range result.Records {
		rows = append(rows, result.Records[i].CSVRow())
	}
	return rows
}

func allocationsWorkbook(result *model.AllocationResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", AllocationsSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(AllocationsSheet, "A1", &allocationHeader); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range csvRows(result) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := []interface{}{row.SrNo, row.Name, row.UID, row.Score, row.Department, row.AllocatedCourse, row.Preference}
		if err := f.SetSheetRow(AllocationsSheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// PrintAllocations prints the records grouped by department name, followed by the totals.
func PrintAllocations(w io.Writer, result *model.AllocationResult) {
	deps := make(map[string]bool, 10)
	records := slices.Clone(result.Records)
	slices.SortStableFunc(records, func(r1, r2 model.AllocationRecord) int {
		return strings.Compare(r1.Department, r2.Department)
	})
	for _, r := range records {
		if _, seen := deps[r.Department]; !seen {
			deps[r.Department] = true
			fmt.Fprintf(w, "\n%s %s %s\n", strings.Repeat("-", max(0, (40-len(r.Department))/2)), r.Department, strings.Repeat("-", max(0, int(0.5+(40-float32(len(r.Department)))/2.0))))
		}
		course, pref := "Not Allocated", "-"
		if r.Allocated() {
			course = r.AllocatedCourse
			pref = fmt.Sprintf("Preference %d", r.PreferenceRank)
		}
		fmt.Fprintf(w, "%-10s %-24s %5.2f  %-28s %s\n", r.UID, r.Name, r.Score, course, pref)
	}
	fmt.Fprintf(w, "\nTotal students: %d\n", result.Stats.Total)
	fmt.Fprintf(w, "Allocated: %d\n", result.Stats.Allocated)
	fmt.Fprintf(w, "Unallocated: %d\n", result.Stats.Unallocated)
}
