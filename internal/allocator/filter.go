package allocator

import (
	"strings"

	"github.com/rhyrak/go-allocate/pkg/model"
)

// AllDepartments matches every department in a Filter.
const AllDepartments = "all"

// Filter selects records for display.
type Filter struct {
	// Query is matched case-insensitively against name, UID and allocated course.
	Query string
	// Department is an exact department name, or "" / AllDepartments for any.
	Department string
}

func (f Filter) Match(r *model.AllocationRecord) bool {
	if f.Department != "" && f.Department != AllDepartments && r.Department != f.Department {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.UID), q) ||
		strings.Contains(strings.ToLower(r.AllocatedCourse), q)
}

// Apply returns the matching records in their original order.
func (f Filter) Apply(records []model.AllocationRecord) []model.AllocationRecord {
	out := make([]model.AllocationRecord, 0, len(records))
	for i := range records {
		if f.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Departments lists the distinct departments in first-seen order.
func Departments(records []model.AllocationRecord) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, r := range records {
		if !seen[r.Department] {
			seen[r.Department] = true
			deps = append(deps, r.Department)
		}
	}
	return deps
}
