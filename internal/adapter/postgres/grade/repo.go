// Package grade implements the grades table using PostgreSQL.
// Every read and write returns rows joined with their student and subject.
package grade

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/gradebook-backend/internal/adapter/postgres"
	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

const table = domain.TableGrades

// detailColumns reads from "g", which is either the table or a CTE over
// the RETURNING of a write.
var detailColumns = []string{
	"g.id", "g.student_id", "g.subject_id", "g.grade", "g.letter_grade",
	"g.semester", "g.year", "g.created_at", "g.updated_at",
	"st.name AS student_name", "sub.name AS subject_name", "sub.code AS subject_code",
}

type row struct {
	ID          uuid.UUID `db:"id"`
	StudentID   uuid.UUID `db:"student_id"`
	SubjectID   uuid.UUID `db:"subject_id"`
	Grade       *float64  `db:"grade"`
	LetterGrade *string   `db:"letter_grade"`
	Semester    *string   `db:"semester"`
	Year        *int      `db:"year"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	StudentName string    `db:"student_name"`
	SubjectName string    `db:"subject_name"`
	SubjectCode string    `db:"subject_code"`
}

func (r row) toDomain() domain.GradeWithDetails {
	g := domain.GradeWithDetails{
		Grade: domain.Grade{
			ID:        r.ID,
			StudentID: r.StudentID,
			SubjectID: r.SubjectID,
			Grade:     r.Grade,
			Year:      r.Year,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		StudentName: r.StudentName,
		SubjectName: r.SubjectName,
		SubjectCode: r.SubjectCode,
	}
	if r.LetterGrade != nil {
		l := domain.LetterGrade(*r.LetterGrade)
		g.LetterGrade = &l
	}
	if r.Semester != nil {
		s := domain.Semester(*r.Semester)
		g.Semester = &s
	}
	return g
}

// Repo provides grade persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new grade repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

func joined(from string) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(detailColumns...).
		From(from).
		Join("students st ON st.id = g.student_id").
		Join("subjects sub ON sub.id = g.subject_id")
}

// List returns all grades with details, newest first.
func (r *Repo) List(ctx context.Context) ([]domain.GradeWithDetails, error) {
	query, args, err := joined(table+" g").
		OrderBy("g.created_at DESC", "g.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list grades: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}

	out := make([]domain.GradeWithDetails, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// Create inserts a grade and returns it joined with its student and subject.
// A duplicate (student, subject, semester, year) yields domain.ErrAlreadyExists;
// an unknown student or subject yields domain.ErrNotFound.
func (r *Repo) Create(ctx context.Context, input domain.GradeInput) (domain.GradeWithDetails, error) {
	insert := squirrel.Insert(table).
		Columns("student_id", "subject_id", "grade", "letter_grade", "semester", "year").
		Values(
			input.StudentID,
			input.SubjectID,
			input.Grade,
			letterArg(input.LetterGrade),
			semesterArg(input.Semester),
			input.Year,
		).
		Suffix("RETURNING *")

	rw, err := r.writeReturning(ctx, insert)
	if err != nil {
		return domain.GradeWithDetails{}, postgres.MapError(err, "grade", uuid.Nil)
	}
	return rw.toDomain(), nil
}

// Update applies the non-nil fields of params and returns the joined row.
// Returns domain.ErrNotFound if the grade does not exist.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params domain.GradeUpdate) (domain.GradeWithDetails, error) {
	update := squirrel.Update(table).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING *")

	if params.StudentID != nil {
		update = update.Set("student_id", *params.StudentID)
	}
	if params.SubjectID != nil {
		update = update.Set("subject_id", *params.SubjectID)
	}
	if params.Grade != nil {
		update = update.Set("grade", *params.Grade)
	}
	if params.LetterGrade != nil {
		update = update.Set("letter_grade", string(*params.LetterGrade))
	}
	if params.Semester != nil {
		update = update.Set("semester", string(*params.Semester))
	}
	if params.Year != nil {
		update = update.Set("year", *params.Year)
	}

	rw, err := r.writeReturning(ctx, update)
	if err != nil {
		return domain.GradeWithDetails{}, postgres.MapError(err, "grade", id)
	}
	return rw.toDomain(), nil
}

// writeReturning runs a RETURNING write as a CTE named g and reads the
// joined row from it. write must use ? placeholders; the outer builder
// renumbers them.
func (r *Repo) writeReturning(ctx context.Context, write squirrel.Sqlizer) (row, error) {
	writeSQL, writeArgs, err := write.ToSql()
	if err != nil {
		return row{}, fmt.Errorf("build grade write: %w", err)
	}

	query, args, err := joined("g").
		Prefix("WITH g AS ("+writeSQL+")", writeArgs...).
		ToSql()
	if err != nil {
		return row{}, fmt.Errorf("build grade write: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, query, args...); err != nil {
		return row{}, err
	}
	return rw, nil
}

// Delete removes a grade.
// Returns domain.ErrNotFound if the grade does not exist.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete grade: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "grade", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("grade %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func letterArg(l *domain.LetterGrade) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

func semesterArg(s *domain.Semester) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
