package gradebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// AddSubject normalizes and validates input, then creates the subject.
func (s *Service) AddSubject(ctx context.Context, input domain.SubjectInput) (domain.Subject, error) {
	input.Name = domain.NormalizeName(input.Name)
	input.Code = domain.NormalizeCode(input.Code)

	if err := check(subjectForm{Name: input.Name, Code: input.Code, Credits: input.Credits}); err != nil {
		return domain.Subject{}, s.rejected(ctx, "add subject", err)
	}
	return s.subjects.Create(ctx, input)
}

// UpdateSubject applies a partial update.
func (s *Service) UpdateSubject(ctx context.Context, id uuid.UUID, params domain.SubjectUpdate) (domain.Subject, error) {
	if err := requireID(id); err != nil {
		return domain.Subject{}, s.rejected(ctx, "update subject", err)
	}

	if params.Name != nil {
		name := domain.NormalizeName(*params.Name)
		params.Name = &name
	}
	if params.Code != nil {
		code := domain.NormalizeCode(*params.Code)
		params.Code = &code
	}

	if err := check(subjectPatch{Name: params.Name, Code: params.Code, Credits: params.Credits}); err != nil {
		return domain.Subject{}, s.rejected(ctx, "update subject", err)
	}
	return s.subjects.Update(ctx, id, params)
}

// DeleteSubject deletes a subject; the store cascades to its grades.
func (s *Service) DeleteSubject(ctx context.Context, id uuid.UUID) error {
	if err := requireID(id); err != nil {
		return s.rejected(ctx, "delete subject", err)
	}
	return s.subjects.Delete(ctx, id)
}
