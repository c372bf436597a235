// Package student implements the students table using PostgreSQL.
package student

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/gradebook-backend/internal/adapter/postgres"
	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

const table = domain.TableStudents

var columns = []string{"id", "name", "email", "student_id", "created_at", "updated_at"}

type row struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     *string   `db:"email"`
	StudentID string    `db:"student_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r row) toDomain() domain.Student {
	return domain.Student{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		StudentID: r.StudentID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Repo provides student persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new student repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// List returns all students ordered by name.
// Returns an empty slice (not nil) when there are none.
func (r *Repo) List(ctx context.Context) ([]domain.Student, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list students: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	out := make([]domain.Student, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// Create inserts a student and returns the stored row.
func (r *Repo) Create(ctx context.Context, input domain.StudentInput) (domain.Student, error) {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns("name", "email", "student_id").
		Values(input.Name, input.Email, input.StudentID).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return domain.Student{}, fmt.Errorf("build insert student: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, query, args...); err != nil {
		return domain.Student{}, postgres.MapError(err, "student", uuid.Nil)
	}
	return rw.toDomain(), nil
}

// Update applies the non-nil fields of params. An empty Email clears it.
// Returns domain.ErrNotFound if the student does not exist.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.StudentUpdate) (domain.Student, error) {
	b := postgres.Builder().
		Update(table).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(columns, ", "))

	if params.Name != nil {
		b = b.Set("name", *params.Name)
	}
	if params.Email != nil {
		if *params.Email == "" {
			b = b.Set("email", nil)
		} else {
			b = b.Set("email", *params.Email)
		}
	}
	if params.StudentID != nil {
		b = b.Set("student_id", *params.StudentID)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return domain.Student{}, fmt.Errorf("build update student: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, query, args...); err != nil {
		return domain.Student{}, postgres.MapError(err, "student", id)
	}
	return rw.toDomain(), nil
}

// Delete removes a student; their grades go with them (ON DELETE CASCADE).
// Returns domain.ErrNotFound if the student does not exist.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete student: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "student", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
