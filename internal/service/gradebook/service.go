// Package gradebook combines the students, subjects and grades caches into
// the write-validated view one dashboard works against.
package gradebook

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/realtime"
	"github.com/heartmarshall/gradebook-backend/internal/service/collection"
	"github.com/heartmarshall/gradebook-backend/internal/service/stats"
)

// DuplicateGradeHint is appended to the failure message when a grade for the
// same student, subject and term already exists.
const DuplicateGradeHint = "Check if this grade already exists for the student."

type changeFeed interface {
	Subscribe(table, channelID string, onChange func(domain.ChangeEvent)) (*realtime.Subscription, error)
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Stores are the three remote tables.
type Stores struct {
	Students collection.Store[domain.Student, domain.StudentInput, domain.StudentUpdate]
	Subjects collection.Store[domain.Subject, domain.SubjectInput, domain.SubjectUpdate]
	Grades   collection.Store[domain.GradeWithDetails, domain.GradeInput, domain.GradeUpdate]
}

// Options tune a Service.
type Options struct {
	RollbackFailedDelete bool

	// OnChange, if set, is called with the table name whenever one of the
	// local lists changes.
	OnChange func(table string)
}

// Service is one gradebook context: three synchronized collections plus
// validation in front of every write. Each Service owns its subscriptions,
// so two Services never share a change channel.
type Service struct {
	students *collection.Collection[domain.Student, domain.StudentInput, domain.StudentUpdate]
	subjects *collection.Collection[domain.Subject, domain.SubjectInput, domain.SubjectUpdate]
	grades   *collection.Collection[domain.GradeWithDetails, domain.GradeInput, domain.GradeUpdate]
	notifier notifier
	log      *slog.Logger
}

// NewService creates a Service. Nothing is fetched until Open.
func NewService(
	log *slog.Logger,
	stores Stores,
	feed changeFeed,
	notifier notifier,
	clock clockwork.Clock,
	opts Options,
) *Service {
	onChange := func(table string) func() {
		if opts.OnChange == nil {
			return nil
		}
		return func() { opts.OnChange(table) }
	}

	return &Service{
		students: collection.New(log, stores.Students, feed, notifier, clock, collection.Config[domain.Student]{
			Table:                domain.TableStudents,
			Entity:               "student",
			Key:                  func(s domain.Student) uuid.UUID { return s.ID },
			Reconcile:            collection.ReconcileMerge,
			RollbackFailedDelete: opts.RollbackFailedDelete,
			OnChange:             onChange(domain.TableStudents),
		}),
		subjects: collection.New(log, stores.Subjects, feed, notifier, clock, collection.Config[domain.Subject]{
			Table:                domain.TableSubjects,
			Entity:               "subject",
			Key:                  func(s domain.Subject) uuid.UUID { return s.ID },
			Reconcile:            collection.ReconcileMerge,
			RollbackFailedDelete: opts.RollbackFailedDelete,
			OnChange:             onChange(domain.TableSubjects),
		}),
		grades: collection.New(log, stores.Grades, feed, notifier, clock, collection.Config[domain.GradeWithDetails]{
			Table:  domain.TableGrades,
			Entity: "grade",
			Key:    func(g domain.GradeWithDetails) uuid.UUID { return g.ID },
			// Joined student and subject names only come from the server.
			Reconcile:            collection.ReconcileRefetch,
			DuplicateHint:        DuplicateGradeHint,
			RollbackFailedDelete: opts.RollbackFailedDelete,
			OnChange:             onChange(domain.TableGrades),
		}),
		notifier: notifier,
		log:      log.With("service", "gradebook"),
	}
}

// Open fetches every table and subscribes to its changes. A table whose
// fetch fails is still subscribed, so the next change retries it.
// All failures are joined into the returned error.
func (s *Service) Open(ctx context.Context) error {
	errs := []error{
		s.students.FetchAll(ctx),
		s.subjects.FetchAll(ctx),
		s.grades.FetchAll(ctx),
		s.students.Subscribe(),
		s.subjects.Subscribe(),
		s.grades.Subscribe(),
	}

	err := errors.Join(errs...)
	if err != nil {
		s.log.WarnContext(ctx, "open incomplete", slog.String("error", err.Error()))
	}
	return err
}

// Close disposes the three collections.
func (s *Service) Close() {
	s.students.Close()
	s.subjects.Close()
	s.grades.Close()
}

// Students returns the cached students ordered by name.
func (s *Service) Students() []domain.Student { return s.students.Items() }

// Subjects returns the cached subjects ordered by name.
func (s *Service) Subjects() []domain.Subject { return s.subjects.Items() }

// Grades returns the cached grades, newest first.
func (s *Service) Grades() []domain.GradeWithDetails { return s.grades.Items() }

// Loading reports whether any table has a fetch in flight.
func (s *Service) Loading() bool {
	return s.students.Loading() || s.subjects.Loading() || s.grades.Loading()
}

// Dashboard summarizes the cached tables with the recent newest grades.
func (s *Service) Dashboard(recent int) stats.Summary {
	return stats.Summarize(s.Students(), s.Subjects(), s.Grades(), recent)
}

// rejected reports a validation failure the same way the collection reports
// store failures: one error notification, then the error.
func (s *Service) rejected(ctx context.Context, action string, err error) error {
	s.log.InfoContext(ctx, "input rejected", slog.String("action", action), slog.String("error", err.Error()))
	s.notifier.Notify(ctx, domain.ErrorNotification("Failed to "+action+": "+describe(err)))
	return err
}

func requireID(id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	return nil
}

func roundScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := domain.RoundScore(*score)
	return &v
}

func letterFor(score *float64) *domain.LetterGrade {
	if score == nil {
		return nil
	}
	l := domain.LetterGradeFor(*score)
	return &l
}
