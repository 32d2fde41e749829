package allocator

import (
	"fmt"
	"slices"

	"github.com/rhyrak/go-allocate/pkg/model"
)

// Validate checks a result against the course table for overfilled seats and
// inconsistent counts. Returns false and a message for invalid results.
func Validate(result model.AllocationResult, courses []model.CourseCapacity) (bool, string) {
	var message string
	var valid bool = true
	var hasOverfill bool = false
	var hasCountMismatch bool = false

	capacity, _ := NewCapacityModel(courses)
	taken := make(map[seatKey]int)
	var order []seatKey
	for _, r := range result.Records {
		if !r.Allocated() {
			continue
		}
		k := seatKey{r.AllocatedCourse, r.Department}
		if _, seen := taken[k]; !seen {
			order = append(order, k)
		}
		taken[k]++
	}
	for _, k := range order {
		seats, ok := capacity.CapacityOf(k.course, k.department)
		if !ok || taken[k] > seats {
			valid = false
			hasOverfill = true
			message += fmt.Sprintf("- %s has %d students from %s, capacity %d\n", k.course, taken[k], k.department, seats)
		}
	}

	stats := Summarize(result.Records)
	if stats != result.Stats || stats.Allocated+stats.Unallocated != stats.Total {
		valid = false
		hasCountMismatch = true
		message += fmt.Sprintf("- Stats %+v do not match records %+v\n", result.Stats, stats)
	}

	unallocated := slices.DeleteFunc(slices.Clone(result.Records), func(r model.AllocationRecord) bool {
		return r.Allocated()
	})
	if len(unallocated) > 0 {
		message += fmt.Sprintf("- There are %d unallocated students:\n", len(unallocated))
		for _, un := range unallocated {
			message += fmt.Sprintf("    %s %s %s %.2f\n", un.UID, un.Name, un.Department, un.Score)
		}
	}

	if hasCountMismatch {
		message = "[FAIL]: Count check.\n" + message
	} else {
		message = "[  OK]: Count check.\n" + message
	}
	if hasOverfill {
		message = "[FAIL]: Capacity check.\n" + message
	} else {
		message = "[  OK]: Capacity check.\n" + message
	}

	return valid, message
}
