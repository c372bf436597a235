package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/service/stats"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type createStudentRequest struct {
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	StudentID string  `json:"student_id"`
}

// Email "" clears the address; a missing or null email leaves it unchanged.
type updateStudentRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	StudentID *string `json:"student_id"`
}

type createSubjectRequest struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Credits *int   `json:"credits"`
}

type updateSubjectRequest struct {
	Name    *string `json:"name"`
	Code    *string `json:"code"`
	Credits *int    `json:"credits"`
}

type createGradeRequest struct {
	StudentID uuid.UUID        `json:"student_id"`
	SubjectID uuid.UUID        `json:"subject_id"`
	Grade     *float64         `json:"grade"`
	Semester  *domain.Semester `json:"semester"`
	Year      *int             `json:"year"`
}

type updateGradeRequest struct {
	StudentID *uuid.UUID       `json:"student_id"`
	SubjectID *uuid.UUID       `json:"subject_id"`
	Grade     *float64         `json:"grade"`
	Semester  *domain.Semester `json:"semester"`
	Year      *int             `json:"year"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// StudentResponse is the wire form of a student.
type StudentResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubjectResponse is the wire form of a subject.
type SubjectResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Credits   *int      `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// GradeResponse is the wire form of a grade with its joined names.
type GradeResponse struct {
	ID          uuid.UUID           `json:"id"`
	StudentID   uuid.UUID           `json:"student_id"`
	SubjectID   uuid.UUID           `json:"subject_id"`
	Grade       *float64            `json:"grade"`
	LetterGrade *domain.LetterGrade `json:"letter_grade"`
	Semester    *domain.Semester    `json:"semester"`
	Year        *int                `json:"year"`
	StudentName string              `json:"student_name"`
	SubjectName string              `json:"subject_name"`
	SubjectCode string              `json:"subject_code"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// LetterCountResponse is one histogram bucket.
type LetterCountResponse struct {
	Letter domain.LetterGrade `json:"letter"`
	Count  int                `json:"count"`
}

// DashboardResponse is the wire form of stats.Summary.
type DashboardResponse struct {
	TotalStudents int                   `json:"total_students"`
	TotalSubjects int                   `json:"total_subjects"`
	TotalGrades   int                   `json:"total_grades"`
	AverageGrade  float64               `json:"average_grade"`
	Distribution  []LetterCountResponse `json:"distribution"`
	RecentGrades  []GradeResponse       `json:"recent_grades"`
}

// NotificationResponse is the wire form of a notification.
type NotificationResponse struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     string    `json:"variant"`
	At          time.Time `json:"at"`
}

// ---------------------------------------------------------------------------
// Mappers
// ---------------------------------------------------------------------------

func toStudentResponse(s domain.Student) StudentResponse {
	return StudentResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		StudentID: s.StudentID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toSubjectResponse(s domain.Subject) SubjectResponse {
	return SubjectResponse{
		ID:        s.ID,
		Name:      s.Name,
		Code:      s.Code,
		Credits:   s.Credits,
		CreatedAt: s.CreatedAt,
	}
}

func toGradeResponse(g domain.GradeWithDetails) GradeResponse {
	return GradeResponse{
		ID:          g.ID,
		StudentID:   g.StudentID,
		SubjectID:   g.SubjectID,
		Grade:       g.Grade.Grade,
		LetterGrade: g.LetterGrade,
		Semester:    g.Semester,
		Year:        g.Year,
		StudentName: g.StudentName,
		SubjectName: g.SubjectName,
		SubjectCode: g.SubjectCode,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

// ToDashboardResponse converts a summary for the REST and websocket outputs.
func ToDashboardResponse(s stats.Summary) DashboardResponse {
	return DashboardResponse{
		TotalStudents: s.TotalStudents,
		TotalSubjects: s.TotalSubjects,
		TotalGrades:   s.TotalGrades,
		AverageGrade:  s.AverageGrade,
		Distribution: mapSlice(s.Distribution, func(c stats.LetterCount) LetterCountResponse {
			return LetterCountResponse{Letter: c.Letter, Count: c.Count}
		}),
		RecentGrades: mapSlice(s.RecentGrades, toGradeResponse),
	}
}

// ToNotificationResponse converts a notification for the REST and websocket outputs.
func ToNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		Title:       n.Title,
		Description: n.Description,
		Variant:     n.Variant,
		At:          n.At,
	}
}
