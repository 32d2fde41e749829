package allocator

import "github.com/rhyrak/go-allocate/pkg/model"

// Summarize counts allocated and unallocated records.
func Summarize(records []model.AllocationRecord) model.Stats {
	stats := model.Stats{Total: len(records)}
	for i := range records {
		if records[i].Allocated() {
			stats.Allocated++
		}
	}
	stats.Unallocated = stats.Total - stats.Allocated
	return stats
}
