package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// SubjectStore is the subjects table.
type SubjectStore struct {
	db *DB
}

// List returns all subjects ordered by name.
func (s *SubjectStore) List(_ context.Context) ([]domain.Subject, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if err := s.db.injected(domain.TableSubjects, OpList); err != nil {
		return nil, err
	}

	out := slices.Clone(s.db.subjects)
	slices.SortStableFunc(out, func(a, b domain.Subject) int {
		return strings.Compare(a.Name, b.Name)
	})
	if out == nil {
		out = []domain.Subject{}
	}
	return out, nil
}

// Create inserts a subject. Codes are unique and credits stay within 1..6.
func (s *SubjectStore) Create(_ context.Context, input domain.SubjectInput) (domain.Subject, error) {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableSubjects, OpCreate); err != nil {
		s.db.mu.Unlock()
		return domain.Subject{}, err
	}
	if err := checkCredits(input.Credits); err != nil {
		s.db.mu.Unlock()
		return domain.Subject{}, err
	}
	if s.db.subjectCodeTaken(input.Code, uuid.Nil) {
		s.db.mu.Unlock()
		return domain.Subject{}, fmt.Errorf("subject code %q: %w", input.Code, domain.ErrAlreadyExists)
	}

	sub := domain.Subject{
		ID:        uuid.New(),
		Name:      input.Name,
		Code:      input.Code,
		Credits:   input.Credits,
		CreatedAt: s.db.clock.Now(),
	}
	s.db.subjects = append(s.db.subjects, sub)
	s.db.mu.Unlock()

	s.db.publish(domain.ChangeEvent{Table: domain.TableSubjects, Op: domain.ChangeOpInsert, RecordID: sub.ID})
	return sub, nil
}

// Update applies the non-nil fields of params.
func (s *SubjectStore) Update(_ context.Context, id uuid.UUID, params domain.SubjectUpdate) (domain.Subject, error) {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableSubjects, OpUpdate); err != nil {
		s.db.mu.Unlock()
		return domain.Subject{}, err
	}
	i := slices.IndexFunc(s.db.subjects, func(sub domain.Subject) bool { return sub.ID == id })
	if i < 0 {
		s.db.mu.Unlock()
		return domain.Subject{}, fmt.Errorf("subject %s: %w", id, domain.ErrNotFound)
	}
	if err := checkCredits(params.Credits); err != nil {
		s.db.mu.Unlock()
		return domain.Subject{}, err
	}
	if params.Code != nil && s.db.subjectCodeTaken(*params.Code, id) {
		s.db.mu.Unlock()
		return domain.Subject{}, fmt.Errorf("subject code %q: %w", *params.Code, domain.ErrAlreadyExists)
	}

	sub := s.db.subjects[i]
	if params.Name != nil {
		sub.Name = *params.Name
	}
	if params.Code != nil {
		sub.Code = *params.Code
	}
	if params.Credits != nil {
		sub.Credits = params.Credits
	}
	s.db.subjects[i] = sub
	s.db.mu.Unlock()

	s.db.publish(domain.ChangeEvent{Table: domain.TableSubjects, Op: domain.ChangeOpUpdate, RecordID: id})
	return sub, nil
}

// Delete removes a subject and, by cascade, all grades recorded against it.
func (s *SubjectStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()

	if err := s.db.injected(domain.TableSubjects, OpDelete); err != nil {
		s.db.mu.Unlock()
		return err
	}
	i := slices.IndexFunc(s.db.subjects, func(sub domain.Subject) bool { return sub.ID == id })
	if i < 0 {
		s.db.mu.Unlock()
		return fmt.Errorf("subject %s: %w", id, domain.ErrNotFound)
	}
	s.db.subjects = slices.Delete(s.db.subjects, i, i+1)
	events := s.db.cascadeGrades(func(g gradeRow) bool { return g.SubjectID == id })
	s.db.mu.Unlock()

	s.db.publish(events...)
	s.db.publish(domain.ChangeEvent{Table: domain.TableSubjects, Op: domain.ChangeOpDelete, RecordID: id})
	return nil
}

// subjectCodeTaken must be called with db.mu held.
func (db *DB) subjectCodeTaken(code string, except uuid.UUID) bool {
	return slices.ContainsFunc(db.subjects, func(sub domain.Subject) bool {
		return sub.Code == code && sub.ID != except
	})
}

func checkCredits(credits *int) error {
	if credits != nil && (*credits < 1 || *credits > 6) {
		return fmt.Errorf("credits %d out of range: %w", *credits, domain.ErrValidation)
	}
	return nil
}
