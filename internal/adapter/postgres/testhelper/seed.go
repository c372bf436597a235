package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedStudent inserts a student with a unique enrolment code.
func SeedStudent(t *testing.T, pool *pgxpool.Pool, name string) domain.Student {
	t.Helper()

	st := domain.Student{Name: name, StudentID: "S-" + uniqueSuffix()}
	err := pool.QueryRow(context.Background(),
		`INSERT INTO students (name, student_id) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		st.Name, st.StudentID,
	).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedStudent: %v", err)
	}
	return st
}

// SeedSubject inserts a subject with a unique code.
func SeedSubject(t *testing.T, pool *pgxpool.Pool, name string) domain.Subject {
	t.Helper()

	sub := domain.Subject{Name: name, Code: "C" + uniqueSuffix()}
	err := pool.QueryRow(context.Background(),
		`INSERT INTO subjects (name, code) VALUES ($1, upper($2))
		 RETURNING id, code, created_at`,
		sub.Name, sub.Code,
	).Scan(&sub.ID, &sub.Code, &sub.CreatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedSubject: %v", err)
	}
	return sub
}
