package engine

// PersistSink receives the engine's state changes for asynchronous
// persistence. Implementations are expected to enqueue rather than block;
// a returned error means the change could not even be queued. Failures are
// non-fatal to the engine: the optimistic in-memory state is always kept.
type PersistSink interface {
	SaveAnswer(attemptID string, answer Answer) error
	SubmitSection(attemptID string, section int, answers []Answer, remaining []int) error
	SubmitTest(attemptID string, answers []Answer, result Result) error
}

// EventType labels runner lifecycle notifications (consumed by the exam
// monitor feed).
type EventType string

const (
	EventStarted          EventType = "started"
	EventSectionSubmitted EventType = "section_submitted"
	EventSectionExpired   EventType = "section_expired"
	EventFinalPending     EventType = "final_pending"
	EventCompleted        EventType = "completed"
)

type Event struct {
	Type      EventType `json:"type"`
	AttemptID string    `json:"attemptId"`
	Section   int       `json:"section"`
}
