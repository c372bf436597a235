package gradebook

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// AddStudent normalizes and validates input, then creates the student.
func (s *Service) AddStudent(ctx context.Context, input domain.StudentInput) (domain.Student, error) {
	input.Name = domain.NormalizeName(input.Name)
	input.StudentID = domain.NormalizeCode(input.StudentID)
	input.Email = domain.NormalizeEmail(input.Email)

	if err := check(studentForm{Name: input.Name, Email: input.Email, StudentID: input.StudentID}); err != nil {
		return domain.Student{}, s.rejected(ctx, "add student", err)
	}
	return s.students.Create(ctx, input)
}

// UpdateStudent applies a partial update. An empty email clears it.
func (s *Service) UpdateStudent(ctx context.Context, id uuid.UUID, params domain.StudentUpdate) (domain.Student, error) {
	if err := requireID(id); err != nil {
		return domain.Student{}, s.rejected(ctx, "update student", err)
	}

	if params.Name != nil {
		name := domain.NormalizeName(*params.Name)
		params.Name = &name
	}
	if params.StudentID != nil {
		code := domain.NormalizeCode(*params.StudentID)
		params.StudentID = &code
	}
	form := studentPatch{Name: params.Name, StudentID: params.StudentID}
	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		params.Email = &email
		if email != "" {
			form.Email = &email
		}
	}

	if err := check(form); err != nil {
		return domain.Student{}, s.rejected(ctx, "update student", err)
	}
	return s.students.Update(ctx, id, params)
}

// DeleteStudent deletes a student; the store cascades to their grades.
func (s *Service) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	if err := requireID(id); err != nil {
		return s.rejected(ctx, "delete student", err)
	}
	return s.students.Delete(ctx, id)
}
