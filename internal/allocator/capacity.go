package allocator

import (
	"fmt"

	"github.com/rhyrak/go-allocate/pkg/model"
)

type seatKey struct {
	course     string
	department string
}

// CapacityModel is the read-only seat lookup built from the course table.
type CapacityModel struct {
	capacity map[seatKey]int
}

// NewCapacityModel builds the lookup from course rows. Rows without a course name
// are dropped and negative seat counts are clamped to zero. A repeated course name
// replaces every pair of the earlier row. All three are reported in the returned
// warnings.
func NewCapacityModel(rows []model.CourseCapacity) (*CapacityModel, []string) {
	var warnings []string
	byCourse := make(map[string]map[string]int, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			warnings = append(warnings, fmt.Sprintf("course row %d has no course name, skipped", i+1))
			continue
		}
		if _, dup := byCourse[row.Name]; dup {
			warnings = append(warnings, fmt.Sprintf("course %q repeated on row %d, replaces the earlier row", row.Name, i+1))
		}
		seats := make(map[string]int, len(row.Seats))
		for dep, n := range row.Seats {
			if n < 0 {
				warnings = append(warnings, fmt.Sprintf("course %q has negative capacity %d for %q, using 0", row.Name, n, dep))
				n = 0
			}
			seats[dep] = n
		}
		byCourse[row.Name] = seats
	}

	m := &CapacityModel{capacity: make(map[seatKey]int)}
	for course, seats := range byCourse {
		for dep, n := range seats {
			m.capacity[seatKey{course, dep}] = n
		}
	}
	return m, warnings
}

// CapacityOf returns the declared seats for the pair and whether the course is offered
// to the department at all.
func (m *CapacityModel) CapacityOf(course, department string) (int, bool) {
	seats, ok := m.capacity[seatKey{course, department}]
	return seats, ok
}

// Len returns the number of (course, department) pairs.
func (m *CapacityModel) Len() int {
	return len(m.capacity)
}

// NewLedger returns an empty ledger over the pairs of this model.
func (m *CapacityModel) NewLedger() *Ledger {
	used := make(map[seatKey]int, len(m.capacity))
	for k := range m.capacity {
		used[k] = 0
	}
	return &Ledger{model: m, used: used}
}

// Ledger counts seats consumed during one allocation run.
type Ledger struct {
	model *CapacityModel
	used  map[seatKey]int
}

// Available reports whether the pair is offered and still has a free seat.
func (l *Ledger) Available(course, department string) bool {
	seats, ok := l.model.CapacityOf(course, department)
	if !ok {
		return false
	}
	return l.used[seatKey{course, department}] < seats
}

// Claim takes one seat if available.
func (l *Ledger) Claim(course, department string) bool {
	if !l.Available(course, department) {
		return false
	}
	l.used[seatKey{course, department}]++
	return true
}

// Used returns the seats consumed so far for the pair.
func (l *Ledger) Used(course, department string) int {
	return l.used[seatKey{course, department}]
}
