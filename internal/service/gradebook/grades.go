package gradebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// AddGrade validates input and records the grade. The letter grade is always
// derived from the score; a client-supplied one is ignored.
func (s *Service) AddGrade(ctx context.Context, input domain.GradeInput) (domain.GradeWithDetails, error) {
	input.Grade = roundScore(input.Grade)
	form := gradeForm{
		StudentID: input.StudentID,
		SubjectID: input.SubjectID,
		Grade:     input.Grade,
		Semester:  input.Semester,
		Year:      input.Year,
	}
	if err := check(form); err != nil {
		return domain.GradeWithDetails{}, s.rejected(ctx, "add grade", err)
	}

	input.LetterGrade = letterFor(input.Grade)
	return s.grades.Create(ctx, input)
}

// UpdateGrade applies a partial update. The letter grade follows the score
// when the score changes and is otherwise left alone.
func (s *Service) UpdateGrade(ctx context.Context, id uuid.UUID, params domain.GradeUpdate) (domain.GradeWithDetails, error) {
	if err := requireID(id); err != nil {
		return domain.GradeWithDetails{}, s.rejected(ctx, "update grade", err)
	}

	params.Grade = roundScore(params.Grade)
	form := gradePatch{
		StudentID: params.StudentID,
		SubjectID: params.SubjectID,
		Grade:     params.Grade,
		Semester:  params.Semester,
		Year:      params.Year,
	}
	if err := check(form); err != nil {
		return domain.GradeWithDetails{}, s.rejected(ctx, "update grade", err)
	}

	params.LetterGrade = letterFor(params.Grade)
	return s.grades.Update(ctx, id, params)
}

// DeleteGrade deletes a grade.
func (s *Service) DeleteGrade(ctx context.Context, id uuid.UUID) error {
	if err := requireID(id); err != nil {
		return s.rejected(ctx, "delete grade", err)
	}
	return s.grades.Delete(ctx, id)
}
