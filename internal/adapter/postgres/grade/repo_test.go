package grade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

var rowColumns = []string{
	"id", "student_id", "subject_id", "grade", "letter_grade", "semester", "year",
	"created_at", "updated_at", "student_name", "subject_name", "subject_code",
}

func newMockRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func ptr[T any](v T) *T { return &v }

func TestRepo_List_JoinedNewestFirst(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	id, st, sub := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT g.id, (.+), st.name AS student_name, sub.name AS subject_name, sub.code AS subject_code ` +
		`FROM grades g JOIN students st ON st.id = g.student_id JOIN subjects sub ON sub.id = g.subject_id ` +
		`ORDER BY g.created_at DESC, g.id DESC`).
		WillReturnRows(pgxmock.NewRows(rowColumns).
			AddRow(id, st, sub, ptr(92.5), ptr("A"), ptr("Fall"), ptr(2024), now, now, "Adam", "Math", "MATH"))

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() len = %d, want 1", len(got))
	}
	g := got[0]
	if g.ID != id || g.StudentName != "Adam" || g.SubjectCode != "MATH" {
		t.Errorf("List()[0] = %+v", g)
	}
	if g.LetterGrade == nil || *g.LetterGrade != domain.LetterGradeA {
		t.Errorf("LetterGrade = %v, want A", g.LetterGrade)
	}
	if g.Semester == nil || *g.Semester != domain.SemesterFall {
		t.Errorf("Semester = %v, want Fall", g.Semester)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepo_Create(t *testing.T) {
	st, sub := uuid.New(), uuid.New()
	now := time.Now()
	a := domain.LetterGradeA
	fall := domain.SemesterFall
	input := domain.GradeInput{
		StudentID:   st,
		SubjectID:   sub,
		Grade:       ptr(95.0),
		LetterGrade: &a,
		Semester:    &fall,
		Year:        ptr(2024),
	}

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "returns joined row",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`WITH g AS \(INSERT INTO grades \(student_id,subject_id,grade,letter_grade,semester,year\) ` +
					`VALUES \(\$1,\$2,\$3,\$4,\$5,\$6\) RETURNING \*\) SELECT (.+) FROM g JOIN students st`).
					WithArgs(st, sub, ptr(95.0), ptr("A"), ptr("Fall"), ptr(2024)).
					WillReturnRows(pgxmock.NewRows(rowColumns).
						AddRow(uuid.New(), st, sub, ptr(95.0), ptr("A"), ptr("Fall"), ptr(2024), now, now, "Adam", "Math", "MATH"))
			},
		},
		{
			name: "duplicate term",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`WITH g AS \(INSERT INTO grades`).
					WithArgs(st, sub, ptr(95.0), ptr("A"), ptr("Fall"), ptr(2024)).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "grades_student_subject_term_key"})
			},
			wantErr: domain.ErrAlreadyExists,
		},
		{
			name: "unknown student",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`WITH g AS \(INSERT INTO grades`).
					WithArgs(st, sub, ptr(95.0), ptr("A"), ptr("Fall"), ptr(2024)).
					WillReturnError(&pgconn.PgError{Code: "23503"})
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setup(mock)

			got, err := repo.Create(context.Background(), input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Create() error = %v", err)
				}
				if got.StudentName != "Adam" || got.SubjectName != "Math" {
					t.Errorf("Create() did not return joined row: %+v", got)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestRepo_Update(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	c := domain.LetterGradeC

	t.Run("sets only given fields", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`WITH g AS \(UPDATE grades SET updated_at = now\(\), grade = \$1, letter_grade = \$2 WHERE id = \$3 RETURNING \*\)`).
			WithArgs(72.0, "C", id).
			WillReturnRows(pgxmock.NewRows(rowColumns).
				AddRow(id, uuid.New(), uuid.New(), ptr(72.0), ptr("C"), (*string)(nil), (*int)(nil), now, now, "Adam", "Math", "MATH"))

		got, err := repo.Update(context.Background(), id, domain.GradeUpdate{Grade: ptr(72.0), LetterGrade: &c})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Semester != nil || got.Year != nil {
			t.Errorf("Update() = %+v, want nil semester and year", got)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`WITH g AS \(UPDATE grades`).
			WithArgs(2025, id).
			WillReturnRows(pgxmock.NewRows(rowColumns))

		_, err := repo.Update(context.Background(), id, domain.GradeUpdate{Year: ptr(2025)})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestRepo_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM grades WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
