package engine

// PartitionSections splits an ordered question list into n sections. Sections
// are balanced: the first len(ids)%n sections carry one extra question, so any
// two sections differ in size by at most 1 and the sizes always sum to
// len(ids). n is clamped to at least 1.
func PartitionSections(ids []string, n int) [][]string {
	if n < 1 {
		n = 1
	}

	sections := make([][]string, n)
	base := len(ids) / n
	extra := len(ids) % n

	pos := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		sections[i] = ids[pos : pos+size]
		pos += size
	}
	return sections
}

// SectionOf returns the 1-based section number holding the given question,
// or 0 when the question is not part of the test.
func SectionOf(sections [][]string, questionID string) int {
	for i, sec := range sections {
		for _, id := range sec {
			if id == questionID {
				return i + 1
			}
		}
	}
	return 0
}
