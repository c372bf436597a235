package domain

import (
	"time"

	"github.com/google/uuid"
)

// Student is a person grades are recorded for.
type Student struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	StudentID string // human-facing enrolment code, not the primary key
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StudentInput holds the client-supplied fields of a new student.
type StudentInput struct {
	Name      string
	Email     *string
	StudentID string
}

// StudentUpdate is a partial update. Nil fields are left unchanged;
// ptr("") on Email clears it.
type StudentUpdate struct {
	Name      *string
	Email     *string
	StudentID *string
}

// Subject is a course grades are recorded against.
type Subject struct {
	ID        uuid.UUID
	Name      string
	Code      string
	Credits   *int
	CreatedAt time.Time
}

// SubjectInput holds the client-supplied fields of a new subject.
type SubjectInput struct {
	Name    string
	Code    string
	Credits *int
}

// SubjectUpdate is a partial update. Nil fields are left unchanged.
type SubjectUpdate struct {
	Name    *string
	Code    *string
	Credits *int
}

// Grade is one score of a student in a subject.
type Grade struct {
	ID          uuid.UUID
	StudentID   uuid.UUID
	SubjectID   uuid.UUID
	Grade       *float64
	LetterGrade *LetterGrade
	Semester    *Semester
	Year        *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GradeWithDetails is a Grade joined with the names of its student and subject.
// It is assembled on every read and never stored.
type GradeWithDetails struct {
	Grade
	StudentName string
	SubjectName string
	SubjectCode string
}

// GradeInput holds the client-supplied fields of a new grade.
type GradeInput struct {
	StudentID   uuid.UUID
	SubjectID   uuid.UUID
	Grade       *float64
	LetterGrade *LetterGrade
	Semester    *Semester
	Year        *int
}

// GradeUpdate is a partial update. Nil fields are left unchanged.
type GradeUpdate struct {
	StudentID   *uuid.UUID
	SubjectID   *uuid.UUID
	Grade       *float64
	LetterGrade *LetterGrade
	Semester    *Semester
	Year        *int
}

// IsEmpty reports whether the update changes nothing.
func (u GradeUpdate) IsEmpty() bool {
	return u.StudentID == nil && u.SubjectID == nil && u.Grade == nil &&
		u.LetterGrade == nil && u.Semester == nil && u.Year == nil
}

// IsEmpty reports whether the update changes nothing.
func (u StudentUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.StudentID == nil
}

// IsEmpty reports whether the update changes nothing.
func (u SubjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Code == nil && u.Credits == nil
}

// Table names of the remote store.
const (
	TableStudents = "students"
	TableSubjects = "subjects"
	TableGrades   = "grades"
)
