// Package subject implements the subjects table using PostgreSQL.
package subject

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

const table = domain.TableSubjects

var columns = []string{"id", "name", "code", "credits", "created_at"}

type row struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	Credits   *int      `db:"credits"`
	CreatedAt time.Time `db:"created_at"`
}

func (r row) toDomain() domain.Subject {
	return domain.Subject{
		ID:        r.ID,
		Name:      r.Name,
		Code:      r.Code,
		Credits:   r.Credits,
		CreatedAt: r.CreatedAt,
	}
}

// Repo provides subject persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new subject repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// List returns all subjects ordered by name.
func (r *Repo) List(ctx context.Context) ([]domain.Subject, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list subjects: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	out := make([]domain.Subject, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// Create inserts a subject and returns the stored row.
func (r *Repo) Create(ctx context.Context, input domain.SubjectInput) (domain.Subject, error) {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns("name", "code", "credits").
		Values(input.Name, input.Code, input.Credits).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return domain.Subject{}, fmt.Errorf("build insert subject: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, query, args...); err != nil {
		return domain.Subject{}, postgres.MapError(err, "subject", uuid.Nil)
	}
	return rw.toDomain(), nil
}

// Update applies the non-nil fields of params. Subjects carry no updated_at,
// so an empty update just reads the row back.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.SubjectUpdate) (domain.Subject, error) {
	var (
		query string
		args  []any
		err   error
	)

	if params.IsEmpty() {
		query, args, err = postgres.Builder().
			Select(columns...).
			From(table).
			Where(squirrel.Eq{"id": id}).
			ToSql()
	} else {
		b := postgres.Builder().
			Update(table).
			Where(squirrel.Eq{"id": id}).
			Suffix("RETURNING " + strings.Join(columns, ", "))
		if params.Name != nil {
			b = b.Set("name", *params.Name)
		}
		if params.Code != nil {
			b = b.Set("code", *params.Code)
		}
		if params.Credits != nil {
			b = b.Set("credits", *params.Credits)
		}
		query, args, err = b.ToSql()
	}
	if err != nil {
		return domain.Subject{}, fmt.Errorf("build update subject: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, query, args...); err != nil {
		return domain.Subject{}, postgres.MapError(err, "subject", id)
	}
	return rw.toDomain(), nil
}

// Delete removes a subject; its grades go with it (ON DELETE CASCADE).
// Returns domain.ErrNotFound if the subject does not exist.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete subject: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "subject", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subject %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
