// Package seeder fills an empty gradebook with a deterministic demo dataset.
package seeder

import (
	"context"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// StudentRepo is the student store contract consumed by the pipeline.
// Implemented by student.Repo and memory.StudentStore.
type StudentRepo interface {
	List(ctx context.Context) ([]domain.Student, error)
	Create(ctx context.Context, input domain.StudentInput) (domain.Student, error)
}

// SubjectRepo is the subject store contract consumed by the pipeline.
type SubjectRepo interface {
	List(ctx context.Context) ([]domain.Subject, error)
	Create(ctx context.Context, input domain.SubjectInput) (domain.Subject, error)
}

// GradeRepo is the grade store contract consumed by the pipeline.
type GradeRepo interface {
	List(ctx context.Context) ([]domain.GradeWithDetails, error)
	Create(ctx context.Context, input domain.GradeInput) (domain.GradeWithDetails, error)
}

// Repos groups the stores the pipeline writes to.
type Repos struct {
	Students StudentRepo
	Subjects SubjectRepo
	Grades   GradeRepo
}
