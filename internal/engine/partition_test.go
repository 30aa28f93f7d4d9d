package engine

import (
	"fmt"
	"testing"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("q%d", i+1)
	}
	return ids
}

func TestPartitionSectionsBalanced(t *testing.T) {
	for q := 0; q <= 50; q++ {
		for n := 1; n <= 10; n++ {
			sections := PartitionSections(makeIDs(q), n)
			if len(sections) != n {
				t.Fatalf("q=%d n=%d: got %d sections, want %d", q, n, len(sections), n)
			}

			sum, min, max := 0, q+1, -1
			for _, sec := range sections {
				sum += len(sec)
				if len(sec) < min {
					min = len(sec)
				}
				if len(sec) > max {
					max = len(sec)
				}
			}
			if sum != q {
				t.Errorf("q=%d n=%d: section sizes sum to %d", q, n, sum)
			}
			if max-min > 1 {
				t.Errorf("q=%d n=%d: section sizes differ by %d", q, n, max-min)
			}
		}
	}
}

func TestPartitionSectionsScenarios(t *testing.T) {
	tests := []struct {
		questions int
		sections  int
		wantSizes []int
	}{
		{10, 5, []int{2, 2, 2, 2, 2}},
		{5, 5, []int{1, 1, 1, 1, 1}},
		{7, 3, []int{3, 2, 2}},
		{0, 4, []int{0, 0, 0, 0}},
		{3, 1, []int{3}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dq_%dsec", tt.questions, tt.sections), func(t *testing.T) {
			sections := PartitionSections(makeIDs(tt.questions), tt.sections)
			for i, want := range tt.wantSizes {
				if len(sections[i]) != want {
					t.Errorf("section %d: size %d, want %d", i+1, len(sections[i]), want)
				}
			}
		})
	}
}

func TestPartitionSectionsKeepsOrder(t *testing.T) {
	sections := PartitionSections(makeIDs(6), 3)
	flat := []string{}
	for _, sec := range sections {
		flat = append(flat, sec...)
	}
	for i, id := range makeIDs(6) {
		if flat[i] != id {
			t.Fatalf("order broken at %d: got %s, want %s", i, flat[i], id)
		}
	}
}

func TestSectionOf(t *testing.T) {
	sections := PartitionSections(makeIDs(6), 3)
	if got := SectionOf(sections, "q1"); got != 1 {
		t.Errorf("q1 in section %d, want 1", got)
	}
	if got := SectionOf(sections, "q6"); got != 3 {
		t.Errorf("q6 in section %d, want 3", got)
	}
	if got := SectionOf(sections, "missing"); got != 0 {
		t.Errorf("unknown question in section %d, want 0", got)
	}
}
