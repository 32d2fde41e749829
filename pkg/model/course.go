package model

// CourseCapacity holds the seats a course offers to each department.
// A department missing from Seats is not offered the course.
type CourseCapacity struct {
	SrNo  string
	Name  string
	Seats map[string]int
}

type DepartmentOffering struct {
	SrNo           string `csv:"Sr No"`
	Department     string `csv:"Department Name"`
	Course         string `csv:"Course Offered"`
	TotalIntakeSTR string `csv:"Total Intake"`
	TotalIntake    int    `csv:"-"`
}

// Dataset is the parsed content of one uploaded workbook.
type Dataset struct {
	Students    []Student
	Departments []DepartmentOffering
	Courses     []CourseCapacity
}
