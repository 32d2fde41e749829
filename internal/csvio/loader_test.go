package csvio

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workbook(t *testing.T, students, departments, courses string) *Workbook {
	t.Helper()
	wb, err := NewWorkbook(map[string]io.Reader{
		StudentsTable:    strings.NewReader(students),
		DepartmentsTable: strings.NewReader(departments),
		CoursesTable:     strings.NewReader(courses),
	}, ',')
	require.NoError(t, err)
	return wb
}

const departmentsCSV = "Sr No,Department Name,Course Offered,Total Intake\n1,CSE,ML,50\n"

func TestLoadDataset_Students(t *testing.T) {
	wb := workbook(t,
		"Sr No,Name,UID,CGPA,Department,Preference 3,Preference 1,Notes\n"+
			"1, Ann ,U1,9.5,CSE,Cloud,ML,x\n"+
			"2,Bob,U2,n/a,CSE,,ML,\n"+
			",,,,,,,\n"+
			"3,Cid,U3,7,ECE,,,\n",
		departmentsCSV,
		"Sr No,Course Name,CSE\n1,ML,2\n")

	ds, report, err := LoadDataset(wb)
	require.NoError(t, err)

	require.Len(t, ds.Students, 2)
	assert.Equal(t, "Ann", ds.Students[0].Name)
	assert.Equal(t, []string{"ML", "", "Cloud"}, ds.Students[0].Preferences)
	assert.Equal(t, "U3", ds.Students[1].UID)
	assert.Equal(t, []string{"", "", ""}, ds.Students[1].Preferences)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], `invalid CGPA "n/a" for U2`)
	assert.Contains(t, report.Warnings[0], "line 3")
}

func TestLoadDataset_Courses(t *testing.T) {
	wb := workbook(t,
		"Name,UID,CGPA,Department\n",
		departmentsCSV,
		"Sr No,Course Name,CSE,ECE,Civil\n"+
			"1,ML,30,,five\n"+
			"2,,4,4,4\n"+
			"3,Web,2.5,0,1\n")

	ds, report, err := LoadDataset(wb)
	require.NoError(t, err)
	assert.Empty(t, ds.Students)

	require.Len(t, ds.Courses, 3)
	assert.Equal(t, map[string]int{"CSE": 30}, ds.Courses[0].Seats)
	assert.Equal(t, "", ds.Courses[1].Name)
	assert.Equal(t, map[string]int{"CSE": 3, "ECE": 0, "Civil": 1}, ds.Courses[2].Seats)

	assert.Len(t, report.Warnings, 2)
	assert.Contains(t, report.String(), `invalid capacity "five" for ML/Civil`)
	assert.Contains(t, report.String(), "fractional capacity 2.5 for Web/CSE")
}

func TestLoadDataset_Departments(t *testing.T) {
	wb := workbook(t,
		"Name,UID,CGPA,Department\n",
		"Sr No,Department Name,Course Offered,Total Intake\n1,CSE,ML,50\n2,ECE,VLSI,lots\n",
		"Course Name\n")

	ds, report, err := LoadDataset(wb)
	require.NoError(t, err)

	require.Len(t, ds.Departments, 2)
	assert.Equal(t, "CSE", ds.Departments[0].Department)
	assert.Equal(t, "ML", ds.Departments[0].Course)
	assert.Equal(t, 50, ds.Departments[0].TotalIntake)
	assert.Zero(t, ds.Departments[1].TotalIntake)
	assert.Len(t, report.Warnings, 1)
}

func TestLoadDataset_MissingColumns(t *testing.T) {
	tests := []struct {
		name     string
		students string
		courses  string
		want     string
	}{
		{
			name:     "students without score",
			students: "Name,UID,Department\n",
			courses:  "Course Name\n",
			want:     "Students sheet is missing CGPA",
		},
		{
			name:     "courses without name",
			students: "Name,UID,CGPA,Department\n",
			courses:  "Sr No,CSE\n1,3\n",
			want:     "Courses sheet is missing Course Name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadDataset(workbook(t, tt.students, departmentsCSV, tt.courses))
			assert.ErrorIs(t, err, ErrMissingColumns)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestPreferenceColumns(t *testing.T) {
	cols, dups := preferenceColumns([]string{"Preference 2", "Preference 1", "Preference 12", "Preference x", "Preference 0", "Preference 01", "Preferences", "Name"})
	assert.Equal(t, []preferenceColumn{
		{header: "Preference 2", rank: 2},
		{header: "Preference 1", rank: 1},
		{header: "Preference 12", rank: 12},
	}, cols)
	assert.Equal(t, []string{"Preference 01"}, dups)
}

func TestLoadDataset_RepeatedPreferenceRank(t *testing.T) {
	students := "Name,UID,CGPA,Department,Preference 1,Preference 01,Preference 1\n" +
		"Ann,U1,9,CSE,ML,Web,Cloud\n"

	for range 20 {
		ds, report, err := LoadDataset(workbook(t, students, departmentsCSV, "Course Name,CSE\nML,1\nWeb,1\n"))
		require.NoError(t, err)
		require.Len(t, ds.Students, 1)
		require.Equal(t, []string{"ML"}, ds.Students[0].Preferences)
		require.Len(t, report.Warnings, 2)
		assert.Contains(t, report.Warnings[0], `column "Preference 01" repeats an earlier preference rank`)
	}
}
