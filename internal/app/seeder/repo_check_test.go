package seeder_test

import (
	"github.com/heartmarshall/gradebook-backend/internal/adapter/memory"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/grade"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/student"
	"github.com/heartmarshall/gradebook-backend/internal/adapter/postgres/subject"
	"github.com/heartmarshall/gradebook-backend/internal/app/seeder"
)

// Compile-time checks: both store backends satisfy the seeder contracts.
var (
	_ seeder.StudentRepo = (*student.Repo)(nil)
	_ seeder.SubjectRepo = (*subject.Repo)(nil)
	_ seeder.GradeRepo   = (*grade.Repo)(nil)

	_ seeder.StudentRepo = (*memory.StudentStore)(nil)
	_ seeder.SubjectRepo = (*memory.SubjectStore)(nil)
	_ seeder.GradeRepo   = (*memory.GradeStore)(nil)
)
