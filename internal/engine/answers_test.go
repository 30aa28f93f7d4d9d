package engine

import "testing"

func newTestCache() *AnswerCache {
	c := NewAnswerCache(map[string]int{"q1": 2, "q2": 4})
	c.Init("q1", 1)
	c.Init("q2", 1)
	return c
}

func TestAnswerCacheReadAfterWrite(t *testing.T) {
	c := newTestCache()

	if _, ok := c.Set("q1", 2); !ok {
		t.Fatal("set q1 rejected")
	}
	got, ok := c.Get("q1")
	if !ok {
		t.Fatal("get q1 missed")
	}
	if got.SelectedOption != 2 || !got.IsCorrect {
		t.Fatalf("got %+v, want selected=2 correct=true", got)
	}
}

func TestAnswerCacheCorrectness(t *testing.T) {
	c := newTestCache()

	tests := []struct {
		question string
		selected int
		correct  bool
	}{
		{"q1", 2, true},
		{"q1", 1, false},
		{"q2", 4, true},
		{"q2", 2, false},
	}
	for _, tt := range tests {
		ans, _ := c.Set(tt.question, tt.selected)
		if ans.IsCorrect != tt.correct {
			t.Errorf("%s option %d: isCorrect=%v, want %v", tt.question, tt.selected, ans.IsCorrect, tt.correct)
		}
	}
}

func TestAnswerCacheClearSelection(t *testing.T) {
	c := newTestCache()
	c.Set("q1", 2)

	ans, ok := c.Set("q1", 0)
	if !ok {
		t.Fatal("clear rejected")
	}
	if ans.SelectedOption != 0 || ans.IsCorrect {
		t.Fatalf("after clear: %+v, want unset and not correct", ans)
	}
}

func TestAnswerCacheUnknownQuestion(t *testing.T) {
	c := newTestCache()
	if _, ok := c.Set("nope", 1); ok {
		t.Error("set accepted an unknown question")
	}
	if _, ok := c.Get("nope"); ok {
		t.Error("get returned an unknown question")
	}
}

func TestAnswerCacheAllKeepsOrder(t *testing.T) {
	c := newTestCache()
	all := c.All()
	if len(all) != 2 || all[0].QuestionID != "q1" || all[1].QuestionID != "q2" {
		t.Fatalf("order broken: %+v", all)
	}
}

func TestAnswerCacheSectionFilter(t *testing.T) {
	c := NewAnswerCache(map[string]int{"q1": 1, "q2": 1, "q3": 1})
	c.Init("q1", 1)
	c.Init("q2", 2)
	c.Init("q3", 2)

	sec2 := c.Section(2)
	if len(sec2) != 2 || sec2[0].QuestionID != "q2" || sec2[1].QuestionID != "q3" {
		t.Fatalf("section 2: %+v", sec2)
	}
}
