package engine

// Snapshot is the explicit serialize/deserialize boundary for a Runner: it
// captures everything needed to resume an attempt mid-section after a reload
// or process restart.
type Snapshot struct {
	AttemptID        string   `json:"attemptId"`
	Mode             Mode     `json:"mode"`
	State            State    `json:"state"`
	CurrentSection   int      `json:"currentSection"`
	Remaining        []int    `json:"remaining"` // seconds per section, index = section-1
	SectionSubmitted []bool   `json:"sectionSubmitted"`
	Answers          []Answer `json:"answers"`
	Review           bool     `json:"review"`
}
