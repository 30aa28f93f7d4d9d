package engine

import "sync"

// AnswerCache is the authoritative in-memory view of all answers for one
// attempt, keyed by question id. Writes apply synchronously so a Set followed
// by a Get always observes the new value; persistence happens elsewhere.
type AnswerCache struct {
	mu      sync.RWMutex
	key     map[string]int // question id -> correct option (1-4)
	entries map[string]*Answer
	order   []string // question ids in test order
}

func NewAnswerCache(answerKey map[string]int) *AnswerCache {
	return &AnswerCache{
		key:     answerKey,
		entries: make(map[string]*Answer),
	}
}

// Init registers a question with an unset selection. Idempotent.
func (c *AnswerCache) Init(questionID string, section int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[questionID]; ok {
		return
	}
	c.entries[questionID] = &Answer{QuestionID: questionID, Section: section}
	c.order = append(c.order, questionID)
}

// Set records a selection (0 clears it) and derives correctness from the
// answer key. Returns false when the question is unknown.
func (c *AnswerCache) Set(questionID string, selected int) (Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[questionID]
	if !ok {
		return Answer{}, false
	}
	e.SelectedOption = selected
	e.IsCorrect = selected != 0 && selected == c.key[questionID]
	return *e, true
}

// MarkForReview flips the display-only review flag on one question.
func (c *AnswerCache) MarkForReview(questionID string, marked bool) (Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[questionID]
	if !ok {
		return Answer{}, false
	}
	e.MarkedForReview = marked
	return *e, true
}

func (c *AnswerCache) Get(questionID string) (Answer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[questionID]
	if !ok {
		return Answer{}, false
	}
	return *e, true
}

// All returns every answer in test order.
func (c *AnswerCache) All() []Answer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Answer, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.entries[id])
	}
	return out
}

// Section returns the answers belonging to one section, in test order.
func (c *AnswerCache) Section(section int) []Answer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Answer
	for _, id := range c.order {
		if e := c.entries[id]; e.Section == section {
			out = append(out, *e)
		}
	}
	return out
}

// Answered reports whether at least one question has a selection.
func (c *AnswerCache) Answered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.SelectedOption != 0 {
			return true
		}
	}
	return false
}

// Restore overwrites entries from a snapshot, registering unknown questions.
func (c *AnswerCache) Restore(answers []Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range answers {
		cp := a
		if _, ok := c.entries[a.QuestionID]; !ok {
			c.order = append(c.order, a.QuestionID)
		}
		c.entries[a.QuestionID] = &cp
	}
}
