package allocator

import (
	"cmp"
	"slices"

	"github.com/rhyrak/go-allocate/pkg/model"
)

// OrderByScore returns a copy of students sorted by score, highest first.
// Students with equal scores keep their input order.
func OrderByScore(students []model.Student) []model.Student {
	ordered := slices.Clone(students)
	slices.SortStableFunc(ordered, func(a, b model.Student) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ordered
}
