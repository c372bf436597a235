// Package memory is an in-process implementation of the gradebook tables.
//
// It keeps the same ordering, constraints and change events as the
// PostgreSQL adapter so services can run against it in tests and demo mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// Op names a store operation for failure injection.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type publisher interface {
	Publish(evt domain.ChangeEvent)
}

// DB holds the three tables behind one lock, like one database.
type DB struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	pub      publisher
	seq      int64
	students []domain.Student
	subjects []domain.Subject
	grades   []gradeRow
	failures map[string]error
}

type gradeRow struct {
	domain.Grade
	seq int64
}

// New creates an empty DB. pub may be nil when nobody watches changes.
func New(clock clockwork.Clock, pub publisher) *DB {
	return &DB{
		clock:    clock,
		pub:      pub,
		failures: make(map[string]error),
	}
}

// Ping always succeeds; it lets the DB stand in for a pool in health checks.
func (db *DB) Ping(context.Context) error { return nil }

// Students returns the students table.
func (db *DB) Students() *StudentStore { return &StudentStore{db: db} }

// Subjects returns the subjects table.
func (db *DB) Subjects() *SubjectStore { return &SubjectStore{db: db} }

// Grades returns the grades table.
func (db *DB) Grades() *GradeStore { return &GradeStore{db: db} }

// Fail makes every later op on table return err. A nil err clears it.
func (db *DB) Fail(table string, op Op, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := failureKey(table, op)
	if err == nil {
		delete(db.failures, key)
		return
	}
	db.failures[key] = err
}

// injected must be called with db.mu held.
func (db *DB) injected(table string, op Op) error {
	if err, ok := db.failures[failureKey(table, op)]; ok {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	return nil
}

func (db *DB) publish(events ...domain.ChangeEvent) {
	if db.pub == nil {
		return
	}
	for _, evt := range events {
		db.pub.Publish(evt)
	}
}

func failureKey(table string, op Op) string {
	return table + "/" + string(op)
}
