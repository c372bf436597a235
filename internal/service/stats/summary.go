package stats

import "github.com/heartmarshall/gradebook-backend/internal/domain"

// Summary is the dashboard view over the three collections.
type Summary struct {
	TotalStudents int
	TotalSubjects int
	TotalGrades   int
	AverageGrade  float64
	Distribution  []LetterCount
	RecentGrades  []domain.GradeWithDetails
}

// Summarize builds a Summary. grades are expected newest first, as the
// grades collection keeps them; the first recent entries become RecentGrades.
func Summarize(students []domain.Student, subjects []domain.Subject, grades []domain.GradeWithDetails, recent int) Summary {
	if recent < 0 {
		recent = 0
	}
	if recent > len(grades) {
		recent = len(grades)
	}

	latest := make([]domain.GradeWithDetails, recent)
	copy(latest, grades[:recent])

	return Summary{
		TotalStudents: len(students),
		TotalSubjects: len(subjects),
		TotalGrades:   len(grades),
		AverageGrade:  AverageGrade(grades),
		Distribution:  Distribution(LetterGradeHistogram(grades)),
		RecentGrades:  latest,
	}
}
