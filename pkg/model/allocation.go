package model

import (
	"encoding/json"
	"fmt"
)

type AllocationRecord struct {
	SrNo            string  `json:"srno"`
	Name            string  `json:"name"`
	UID             string  `json:"uid"`
	Score           float64 `json:"cgpa"`
	Department      string  `json:"department"`
	AllocatedCourse string  `json:"allocatedCourse"`
	PreferenceRank  int     `json:"preferenceNumber"` // 0 when unallocated, null in JSON
}

func (r *AllocationRecord) Allocated() bool {
	return r.AllocatedCourse != ""
}

// MarshalJSON writes preferenceNumber as null for unallocated records. Decoding
// needs no counterpart: null leaves the rank at 0.
func (r AllocationRecord) MarshalJSON() ([]byte, error) {
	type record AllocationRecord
	out := struct {
		record
		PreferenceRank *int `json:"preferenceNumber"`
	}{record: record(r)}
	if r.Allocated() {
		rank := r.PreferenceRank
		out.PreferenceRank = &rank
	}
	return json.Marshal(out)
}

type Stats struct {
	Total       int `json:"totalStudents"`
	Allocated   int `json:"allocatedStudents"`
	Unallocated int `json:"unallocatedStudents"`
}

type AllocationResult struct {
	Records []AllocationRecord `json:"allocations"`
	Stats   Stats              `json:"stats"`
}

type AllocationCSVRow struct {
	SrNo            string  `csv:"Sr No"`
	Name            string  `csv:"Name"`
	UID             string  `csv:"UID"`
	Score           float64 `csv:"CGPA"`
	Department      string  `csv:"Department"`
	AllocatedCourse string  `csv:"Allocated Course"`
	Preference      string  `csv:"Preference"`
}

// CSVRow flattens the record for export.
func (r *AllocationRecord) CSVRow() *AllocationCSVRow {
	row := &AllocationCSVRow{
		SrNo:            r.SrNo,
		Name:            r.Name,
		UID:             r.UID,
		Score:           r.Score,
		Department:      r.Department,
		AllocatedCourse: r.AllocatedCourse,
	}
	if r.Allocated() {
		row.Preference = fmt.Sprintf("Preference %d", r.PreferenceRank)
	}
	return row
}
