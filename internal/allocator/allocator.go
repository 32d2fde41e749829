package allocator

import (
	"time"

	"go.uber.org/zap"

	"github.com/rhyrak/go-allocate/pkg/model"
)

// Options controls how far down each preference list the allocator looks.
type Options struct {
	// MaxRank is the last preference rank scanned. Zero means model.MaxPreferenceRank.
	MaxRank int
	// DeriveMaxRank scans up to the longest preference list present instead of MaxRank.
	DeriveMaxRank bool
}

func (o Options) bound(students []model.Student) int {
	if o.DeriveMaxRank {
		longest := 0
		for i := range students {
			longest = max(longest, len(students[i].Preferences))
		}
		return longest
	}
	if o.MaxRank <= 0 {
		return model.MaxPreferenceRank
	}
	return o.MaxRank
}

// Allocate assigns at most one course to every student in a single serial
// dictatorship pass. Records are returned in priority order.
func Allocate(students []model.Student, courses []model.CourseCapacity, opts Options) model.AllocationResult {
	capacity, _ := NewCapacityModel(courses)
	return allocate(OrderByScore(students), capacity, opts.bound(students), nil)
}

// allocate runs the pass over already ordered students. The ledger lives only
// for the duration of this call.
func allocate(ordered []model.Student, capacity *CapacityModel, maxRank int, trace func(model.AllocationRecord)) model.AllocationResult {
	ledger := capacity.NewLedger()
	records := make([]model.AllocationRecord, 0, len(ordered))

	for i := range ordered {
		student := &ordered[i]
		record := model.AllocationRecord{
			SrNo:       student.SrNo,
			Name:       student.Name,
			UID:        student.UID,
			Score:      student.Score,
			Department: student.Department,
		}
		for rank := 1; rank <= maxRank; rank++ {
			course := student.Preference(rank)
			if course == "" {
				continue
			}
			if ledger.Claim(course, student.Department) {
				record.AllocatedCourse = course
				record.PreferenceRank = rank
				break
			}
		}
		if trace != nil {
			trace(record)
		}
		records = append(records, record)
	}

	return model.AllocationResult{
		Records: records,
		Stats:   Summarize(records),
	}
}

// Recorder receives the outcome of every engine run.
type Recorder interface {
	ObserveRun(stats model.Stats, elapsed time.Duration)
}

// Engine runs allocations over parsed datasets, logging and recording each run.
type Engine struct {
	opts     Options
	logger   *zap.Logger
	recorder Recorder
}

// NewEngine creates an engine. A nil logger or recorder disables that output.
func NewEngine(opts Options, logger *zap.Logger, recorder Recorder) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger, recorder: recorder}
}

// Run allocates the dataset and returns the result together with any course table
// warnings. The department offering table is carried in the dataset but not consulted.
func (e *Engine) Run(ds *model.Dataset) (model.AllocationResult, []string) {
	start := time.Now()

	capacity, warnings := NewCapacityModel(ds.Courses)
	for _, w := range warnings {
		e.logger.Warn("course table", zap.String("warning", w))
	}
	maxRank := e.opts.bound(ds.Students)

	result := allocate(OrderByScore(ds.Students), capacity, maxRank, func(r model.AllocationRecord) {
		if r.Allocated() {
			e.logger.Debug("allocated",
				zap.String("uid", r.UID),
				zap.String("course", r.AllocatedCourse),
				zap.Int("preference", r.PreferenceRank))
		} else {
			e.logger.Debug("unallocated", zap.String("uid", r.UID), zap.String("department", r.Department))
		}
	})

	elapsed := time.Since(start)
	e.logger.Info("allocation completed",
		zap.Int("students", result.Stats.Total),
		zap.Int("allocated", result.Stats.Allocated),
		zap.Int("unallocated", result.Stats.Unallocated),
		zap.Int("seatPairs", capacity.Len()),
		zap.Int("maxRank", maxRank),
		zap.Duration("elapsed", elapsed))
	if e.recorder != nil {
		e.recorder.ObserveRun(result.Stats, elapsed)
	}
	return result, warnings
}
