package model

// MaxPreferenceRank is the highest preference rank scanned by default.
const MaxPreferenceRank = 10

type Student struct {
	SrNo        string
	Name        string
	UID         string
	Score       float64
	Department  string
	Preferences []string // Preferences[i] holds rank i+1, "" when absent
}

// Preference returns the course at the given 1-based rank, or "" if the rank is absent.
func (s *Student) Preference(rank int) string {
	if rank < 1 || rank > len(s.Preferences) {
		return ""
	}
	return s.Preferences[rank-1]
}
