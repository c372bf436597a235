package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// GradeStore is the grades table. Reads and writes return rows joined with
// their student and subject.
type GradeStore struct {
	db *DB
}

// List returns all grades with details, newest first.
func (s *GradeStore) List(_ context.Context) ([]domain.GradeWithDetails, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if err := s.db.injected(domain.TableGrades, OpList); err != nil {
		return nil, err
	}

	rows := slices.Clone(s.db.grades)
	slices.SortFunc(rows, func(a, b gradeRow) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	out := make([]domain.GradeWithDetails, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.db.withDetails(r.Grade))
	}
	return out, nil
}

// Create inserts a grade. Student and subject must exist and the
// (student, subject, semester, year) combination must be new.
func (s *GradeStore) Create(_ context.Context, input domain.GradeInput) (domain.GradeWithDetails, error) {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableGrades, OpCreate); err != nil {
		s.db.mu.Unlock()
		return domain.GradeWithDetails{}, err
	}

	now := s.db.clock.Now()
	g := domain.Grade{
		ID:          uuid.New(),
		StudentID:   input.StudentID,
		SubjectID:   input.SubjectID,
		Grade:       rounded(input.Grade),
		LetterGrade: input.LetterGrade,
		Semester:    input.Semester,
		Year:        input.Year,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.checkGrade(g); err != nil {
		s.db.mu.Unlock()
		return domain.GradeWithDetails{}, err
	}

	s.db.seq++
	s.db.grades = append(s.db.grades, gradeRow{Grade: g, seq: s.db.seq})
	out := s.db.withDetails(g)
	s.db.mu.Unlock()

	s.db.publish(domain.ChangeEvent{Table: domain.TableGrades, Op: domain.ChangeOpInsert, RecordID: g.ID})
	return out, nil
}

// Update applies the non-nil fields of params.
func (s *GradeStore) Update(_ context.Context, id uuid.UUID, params domain.GradeUpdate) (domain.GradeWithDetails, error) {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableGrades, OpUpdate); err != nil {
		s.db.mu.Unlock()
		return domain.GradeWithDetails{}, err
	}
	i := slices.IndexFunc(s.db.grades, func(r gradeRow) bool { return r.ID == id })
	if i < 0 {
		s.db.mu.Unlock()
		return domain.GradeWithDetails{}, fmt.Errorf("grade %s: %w", id, domain.ErrNotFound)
	}

	g := s.db.grades[i].Grade
	if params.StudentID != nil {
		g.StudentID = *params.StudentID
	}
	if params.SubjectID != nil {
		g.SubjectID = *params.SubjectID
	}
	if params.Grade != nil {
		g.Grade = rounded(params.Grade)
	}
	if params.LetterGrade != nil {
		g.LetterGrade = params.LetterGrade
	}
	if params.Semester != nil {
		g.Semester = params.Semester
	}
	if params.Year != nil {
		g.Year = params.Year
	}
	g.UpdatedAt = s.db.clock.Now()

	if err := s.db.checkGrade(g); err != nil {
		s.db.mu.Unlock()
		return domain.GradeWithDetails{}, err
	}

	s.db.grades[i].Grade = g
	out := s.db.withDetails(g)
	s.db.mu.Unlock()

	s.db.publish(domain.ChangeEvent{Table: domain.TableGrades, Op: domain.ChangeOpUpdate, RecordID: id})
	return out, nil
}

// Delete removes a grade.
func (s *GradeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableGrades, OpDelete); err != nil {
		s.db.mu.Unlock()
		return err
	}
	i := slices.IndexFunc(s.db.grades, func(r gradeRow) bool { return r.ID == id })
	if i < 0 {
		s.db.mu.Unlock()
		return fmt.Errorf("grade %s: %w", id, domain.ErrNotFound)
	}
	s.db.grades = slices.Delete(s.db.grades, i, i+1)
	s.db.mu.Unlock()

	s.db.publish(domain.ChangeEvent{Table: domain.TableGrades, Op: domain.ChangeOpDelete, RecordID: id})
	return nil
}

// checkGrade enforces the table constraints. Must be called with db.mu held.
func (db *DB) checkGrade(g domain.Grade) error {
	if g.Grade != nil && (*g.Grade < 0 || *g.Grade > 100) {
		return fmt.Errorf("grade %v out of range: %w", *g.Grade, domain.ErrValidation)
	}
	if g.LetterGrade != nil && !g.LetterGrade.IsValid() {
		return fmt.Errorf("letter grade %q: %w", *g.LetterGrade, domain.ErrValidation)
	}
	if !slices.ContainsFunc(db.students, func(st domain.Student) bool { return st.ID == g.StudentID }) {
		return fmt.Errorf("student %s: %w", g.StudentID, domain.ErrNotFound)
	}
	if !slices.ContainsFunc(db.subjects, func(sub domain.Subject) bool { return sub.ID == g.SubjectID }) {
		return fmt.Errorf("subject %s: %w", g.SubjectID, domain.ErrNotFound)
	}

	dup := slices.ContainsFunc(db.grades, func(r gradeRow) bool {
		return r.ID != g.ID &&
			r.StudentID == g.StudentID &&
			r.SubjectID == g.SubjectID &&
			equalPtr(r.Semester, g.Semester) &&
			equalPtr(r.Year, g.Year)
	})
	if dup {
		return fmt.Errorf("grade for student %s in subject %s: %w", g.StudentID, g.SubjectID, domain.ErrAlreadyExists)
	}
	return nil
}

// cascadeGrades removes the grades matching drop and returns their delete
// events. Must be called with db.mu held.
func (db *DB) cascadeGrades(drop func(gradeRow) bool) []domain.ChangeEvent {
	var events []domain.ChangeEvent
	for _, r := range db.grades {
		if drop(r) {
			events = append(events, domain.ChangeEvent{Table: domain.TableGrades, Op: domain.ChangeOpDelete, RecordID: r.ID})
		}
	}
	db.grades = slices.DeleteFunc(db.grades, drop)
	return events
}

// withDetails joins g with its student and subject. Must be called with db.mu held.
func (db *DB) withDetails(g domain.Grade) domain.GradeWithDetails {
	out := domain.GradeWithDetails{Grade: g}
	if i := slices.IndexFunc(db.students, func(st domain.Student) bool { return st.ID == g.StudentID }); i >= 0 {
		out.StudentName = db.students[i].Name
	}
	if i := slices.IndexFunc(db.subjects, func(sub domain.Subject) bool { return sub.ID == g.SubjectID }); i >= 0 {
		out.SubjectName = db.subjects[i].Name
		out.SubjectCode = db.subjects[i].Code
	}
	return out
}

// rounded mirrors the NUMERIC(5, 2) grade column.
func rounded(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := domain.RoundScore(*score)
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
