package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// StudentStore is the students table.
type StudentStore struct {
	db *DB
}

// List returns all students ordered by name.
func (s *StudentStore) List(_ context.Context) ([]domain.Student, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if err := s.db.injected(domain.TableStudents, OpList); err != nil {
		return nil, err
	}

	out := slices.Clone(s.db.students)
	slices.SortStableFunc(out, func(a, b domain.Student) int {
		return strings.Compare(a.Name, b.Name)
	})
	if out == nil {
		out = []domain.Student{}
	}
	return out, nil
}

// Create inserts a student. The enrolment code must be unique.
func (s *StudentStore) Create(_ context.Context, input domain.StudentInput) (domain.Student, error) {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableStudents, OpCreate); err != nil {
		s.db.mu.Unlock()
		return domain.Student{}, err
	}
	if s.db.studentCodeTaken(input.StudentID, uuid.Nil) {
		s.db.mu.Unlock()
		return domain.Student{}, fmt.Errorf("student_id %q: %w", input.StudentID, domain.ErrAlreadyExists)
	}

	now := s.db.clock.Now()
	st := domain.Student{
		ID:        uuid.New(),
		Name:      input.Name,
		Email:     input.Email,
		StudentID: input.StudentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.db.students = append(s.db.students, st)
	s.db.mu.Unlock()

	s.db.publish(domain.ChangeEvent{Table: domain.TableStudents, Op: domain.ChangeOpInsert, RecordID: st.ID})
	return st, nil
}

// Update applies the non-nil fields of params. An empty Email clears it.
func (s *StudentStore) Update(_ context.Context, id uuid.UUID, params domain.StudentUpdate) (domain.Student, error) {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableStudents, OpUpdate); err != nil {
		s.db.mu.Unlock()
		return domain.Student{}, err
	}
	i := slices.IndexFunc(s.db.students, func(st domain.Student) bool { return st.ID == id })
	if i < 0 {
		s.db.mu.Unlock()
		return domain.Student{}, fmt.Errorf("student %s: %w", id, domain.ErrNotFound)
	}
	if params.StudentID != nil && s.db.studentCodeTaken(*params.StudentID, id) {
		s.db.mu.Unlock()
		return domain.Student{}, fmt.Errorf("student_id %q: %w", *params.StudentID, domain.ErrAlreadyExists)
	}

	st := s.db.students[i]
	if params.Name != nil {
		st.Name = *params.Name
	}
	if params.Email != nil {
		if *params.Email == "" {
			st.Email = nil
		} else {
			email := *params.Email
			st.Email = &email
		}
	}
	if params.StudentID != nil {
		st.StudentID = *params.StudentID
	}
	st.UpdatedAt = s.db.clock.Now()
	s.db.students[i] = st
	s.db.mu.Unlock()

	s.db.publish(domain.ChangeEvent{Table: domain.TableStudents, Op: domain.ChangeOpUpdate, RecordID: id})
	return st, nil
}

// Delete removes a student and, by cascade, all of their grades.
func (s *StudentStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableStudents, OpDelete); err != nil {
		s.db.mu.Unlock()
		return err
	}
	i := slices.IndexFunc(s.db.students, func(st domain.Student) bool { return st.ID == id })
	if i < 0 {
		s.db.mu.Unlock()
		return fmt.Errorf("student %s: %w", id, domain.ErrNotFound)
	}
	s.db.students = slices.Delete(s.db.students, i, i+1)
	events := s.db.cascadeGrades(func(g gradeRow) bool { return g.StudentID == id })
	s.db.mu.Unlock()

	s.db.publish(events...)
	s.db.publish(domain.ChangeEvent{Table: domain.TableStudents, Op: domain.ChangeOpDelete, RecordID: id})
	return nil
}

// studentCodeTaken must be called with db.mu held.
func (db *DB) studentCodeTaken(code string, except uuid.UUID) bool {
	return slices.ContainsFunc(db.students, func(st domain.Student) bool {
		return st.StudentID == code && st.ID != except
	})
}
