package csvio

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rhyrak/go-allocate/pkg/model"
)

// Column names of the input tables.
const (
	ColSrNo             = "Sr No"
	ColName             = "Name"
	ColUID              = "UID"
	ColScore            = "CGPA"
	ColDepartment       = "Department"
	ColPreferencePrefix = "Preference "
	ColCourseName       = "Course Name"
)

// ErrMissingColumns is returned when a table lacks a column the allocator needs.
var ErrMissingColumns = errors.New("required columns not found")

// Report collects row-level problems found while loading. None of them stop a run.
type Report struct {
	Warnings []string
}

func (r *Report) add(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) Empty() bool {
	return r == nil || len(r.Warnings) == 0
}

func (r *Report) String() string {
	if r.Empty() {
		return ""
	}
	return strings.Join(r.Warnings, "\n") + "\n"
}

// LoadDataset converts the workbook tables into typed rows.
func LoadDataset(wb *Workbook) (*model.Dataset, *Report, error) {
	if err := wb.Validate(); err != nil {
		return nil, nil, err
	}
	report := &Report{}

	students, err := parseStudents(wb.Sheet(StudentsTable), report)
	if err != nil {
		return nil, nil, err
	}
	courses, err := parseCourses(wb.Sheet(CoursesTable), report)
	if err != nil {
		return nil, nil, err
	}
	departments, err := parseDepartments(wb.Sheet(DepartmentsTable), report)
	if err != nil {
		return nil, nil, err
	}

	return &model.Dataset{
		Students:    students,
		Departments: departments,
		Courses:     courses,
	}, report, nil
}

func requireColumns(sheet *Sheet, cols ...string) error {
	header := sheet.Header()
	var missing []string
	for _, c := range cols {
		if !slices.Contains(header, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s sheet is missing %s", ErrMissingColumns, sheet.Name, strings.Join(missing, ", "))
	}
	return nil
}

type preferenceColumn struct {
	header string
	rank   int
}

// preferenceColumns returns the "Preference N" headers in column order. A header
// whose rank was already taken by an earlier column is returned in dups instead.
func preferenceColumns(header []string) (cols []preferenceColumn, dups []string) {
	seen := make(map[int]bool)
	for _, h := range header {
		n, ok := strings.CutPrefix(h, ColPreferencePrefix)
		if !ok {
			continue
		}
		rank, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || rank < 1 {
			continue
		}
		if seen[rank] {
			dups = append(dups, h)
			continue
		}
		seen[rank] = true
		cols = append(cols, preferenceColumn{header: h, rank: rank})
	}
	return cols, dups
}

func parseStudents(sheet *Sheet, report *Report) ([]model.Student, error) {
	if err := requireColumns(sheet, ColName, ColUID, ColScore, ColDepartment); err != nil {
		return nil, err
	}
	prefCols, dups := preferenceColumns(sheet.Header())
	for _, h := range dups {
		report.add("%s: column %q repeats an earlier preference rank, ignored", sheet.Name, h)
	}
	width := 0
	for _, c := range prefCols {
		width = max(width, c.rank)
	}

	records, lines := sheet.Records()
	students := make([]model.Student, 0, len(records))
	for i, rec := range records {
		score, err := strconv.ParseFloat(rec[ColScore], 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			report.add("%s line %d: invalid %s %q for %s, skipped", sheet.Name, lines[i], ColScore, rec[ColScore], rec[ColUID])
			continue
		}
		prefs := make([]string, width)
		for _, c := range prefCols {
			prefs[c.rank-1] = rec[c.header]
		}
		students = append(students, model.Student{
			SrNo:        rec[ColSrNo],
			Name:        rec[ColName],
			UID:         rec[ColUID],
			Score:       score,
			Department:  rec[ColDepartment],
			Preferences: prefs,
		})
	}
	return students, nil
}

func parseCourses(sheet *Sheet, report *Report) ([]model.CourseCapacity, error) {
	if err := requireColumns(sheet, ColCourseName); err != nil {
		return nil, err
	}
	var departments []string
	for _, h := range sheet.Header() {
		if h == "" || h == ColSrNo || h == ColCourseName {
			continue
		}
		departments = append(departments, h)
	}

	records, lines := sheet.Records()
	courses := make([]model.CourseCapacity, 0, len(records))
	for i, rec := range records {
		c := model.CourseCapacity{
			SrNo:  rec[ColSrNo],
			Name:  rec[ColCourseName],
			Seats: make(map[string]int, len(departments)),
		}
		for _, dep := range departments {
			cell := rec[dep]
			if cell == "" {
				continue
			}
			seats, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(seats) || math.IsInf(seats, 0) {
				report.add("%s line %d: invalid capacity %q for %s/%s, course not offered", sheet.Name, lines[i], cell, c.Name, dep)
				continue
			}
			if seats != math.Trunc(seats) {
				report.add("%s line %d: fractional capacity %s for %s/%s, rounded up", sheet.Name, lines[i], cell, c.Name, dep)
			}
			c.Seats[dep] = int(math.Ceil(seats))
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// parseDepartments reads the offering table. It is informational only.
func parseDepartments(sheet *Sheet, report *Report) ([]model.DepartmentOffering, error) {
	if len(sheet.Rows) == 0 {
		return nil, nil
	}
	var rows []*model.DepartmentOffering
	if err := sheet.Unmarshal(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s sheet: %w", sheet.Name, err)
	}

	departments := make([]model.DepartmentOffering, 0, len(rows))
	for i, d := range rows {
		if d.TotalIntakeSTR != "" {
			intake, err := strconv.Atoi(d.TotalIntakeSTR)
			if err != nil {
				report.add("%s row %d: invalid Total Intake %q, using 0", sheet.Name, i+1, d.TotalIntakeSTR)
			}
			d.TotalIntake = intake
		}
		departments = append(departments, *d)
	}
	return departments, nil
}
