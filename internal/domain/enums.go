package domain

import "math"

// LetterGrade is the categorical form of a numeric grade.
type LetterGrade string

const (
	LetterGradeA LetterGrade = "A"
	LetterGradeB LetterGrade = "B"
	LetterGradeC LetterGrade = "C"
	LetterGradeD LetterGrade = "D"
	LetterGradeF LetterGrade = "F"
)

func (g LetterGrade) String() string { return string(g) }

func (g LetterGrade) IsValid() bool {
	switch g {
	case LetterGradeA, LetterGradeB, LetterGradeC, LetterGradeD, LetterGradeF:
		return true
	}
	return false
}

// Rank returns the display position of the letter (A=0 ... F=4).
// Unknown symbols rank after F.
func (g LetterGrade) Rank() int {
	switch g {
	case LetterGradeA:
		return 0
	case LetterGradeB:
		return 1
	case LetterGradeC:
		return 2
	case LetterGradeD:
		return 3
	case LetterGradeF:
		return 4
	}
	return 5
}

// LetterGradeFor maps a numeric score to its letter grade.
// This is the only place the thresholds live; every write path goes through it.
func LetterGradeFor(score float64) LetterGrade {
	switch {
	case score >= 90:
		return LetterGradeA
	case score >= 80:
		return LetterGradeB
	case score >= 70:
		return LetterGradeC
	case score >= 60:
		return LetterGradeD
	default:
		return LetterGradeF
	}
}

// RoundScore rounds a score to the two decimals the grade column stores.
// Letters must be derived from the rounded value.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

// Semester is the term a grade was recorded in.
type Semester string

const (
	SemesterFall   Semester = "Fall"
	SemesterSpring Semester = "Spring"
	SemesterSummer Semester = "Summer"
)

func (s Semester) String() string { return string(s) }

func (s Semester) IsValid() bool {
	switch s {
	case SemesterFall, SemesterSpring, SemesterSummer:
		return true
	}
	return false
}

// ChangeOp is the kind of row change reported by the change feed.
type ChangeOp string

const (
	ChangeOpInsert ChangeOp = "INSERT"
	ChangeOpUpdate ChangeOp = "UPDATE"
	ChangeOpDelete ChangeOp = "DELETE"
	// ChangeOpResync is emitted when changes may have been missed
	// (e.g. after the feed reconnects). It carries no record id.
	ChangeOpResync ChangeOp = "RESYNC"
)

func (o ChangeOp) String() string { return string(o) }

func (o ChangeOp) IsValid() bool {
	switch o {
	case ChangeOpInsert, ChangeOpUpdate, ChangeOpDelete, ChangeOpResync:
		return true
	}
	return false
}
