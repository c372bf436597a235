// Package stats derives dashboard aggregates from an in-memory grade list.
// Everything here is pure and recomputed on every call; nothing is cached.
package stats

import (
	"sort"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// AverageGrade returns the mean of all grades with a value greater than zero.
// A missing or zero grade means "not yet scored" and is left out of the mean.
// Returns 0 when no grade qualifies.
func AverageGrade(grades []domain.GradeWithDetails) float64 {
	var (
		sum   float64
		count int
	)
	for _, g := range grades {
		if g.Grade.Grade == nil || *g.Grade.Grade <= 0 {
			continue
		}
		sum += *g.Grade.Grade
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// LetterGradeHistogram counts grades per letter. Grades without a letter are skipped.
func LetterGradeHistogram(grades []domain.GradeWithDetails) map[domain.LetterGrade]int {
	hist := make(map[domain.LetterGrade]int)
	for _, g := range grades {
		if g.LetterGrade == nil || *g.LetterGrade == "" {
			continue
		}
		hist[*g.LetterGrade]++
	}
	return hist
}

// LetterCount is one bucket of a sorted histogram.
type LetterCount struct {
	Letter domain.LetterGrade
	Count  int
}

// Distribution orders a histogram by grade rank (A, B, C, D, F).
// Letters outside A-F follow, alphabetically.
func Distribution(hist map[domain.LetterGrade]int) []LetterCount {
	out := make([]LetterCount, 0, len(hist))
	for letter, count := range hist {
		out = append(out, LetterCount{Letter: letter, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Letter.Rank(), out[j].Letter.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Letter < out[j].Letter
	})
	return out
}
