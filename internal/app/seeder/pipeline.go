package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

// Phase names, in execution order.
const (
	PhaseStudents = "students"
	PhaseSubjects = "subjects"
	PhaseGrades   = "grades"
)

var allPhases = []string{PhaseStudents, PhaseSubjects, PhaseGrades}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Inserted int
	Skipped  int
	Errors   int
	Duration time.Duration
	Err      error
}

// Pipeline seeds students, subjects and grades in that order. Rows that
// already exist (by student code, subject code or grade key) are skipped,
// so running it twice is harmless.
type Pipeline struct {
	log     *slog.Logger
	repos   Repos
	cfg     Config
	data    dataset
	results map[string]PhaseResult
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, repos Repos, cfg Config) *Pipeline {
	return &Pipeline{
		log:     log,
		repos:   repos,
		cfg:     cfg,
		data:    generate(cfg),
		results: make(map[string]PhaseResult),
	}
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors returns true if any phase recorded errors.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil || r.Errors > 0 {
			return true
		}
	}
	return false
}

// Run executes the pipeline. If phases is non-empty, only the listed phases run.
func (p *Pipeline) Run(ctx context.Context, phases []string) error {
	toRun := allPhases
	if len(phases) > 0 {
		filter := make(map[string]bool, len(phases))
		for _, ph := range phases {
			if !isPhase(ph) {
				return fmt.Errorf("unknown phase %q", ph)
			}
			filter[ph] = true
		}
		var filtered []string
		for _, ph := range allPhases {
			if filter[ph] {
				filtered = append(filtered, ph)
			}
		}
		toRun = filtered
	}

	for _, phase := range toRun {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		p.log.Info("starting phase", slog.String("phase", phase))

		var result PhaseResult
		switch phase {
		case PhaseStudents:
			result = p.runStudents(ctx)
		case PhaseSubjects:
			result = p.runSubjects(ctx)
		case PhaseGrades:
			result = p.runGrades(ctx)
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			p.log.Warn("phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
		} else {
			p.log.Info("phase completed",
				slog.String("phase", phase),
				slog.Int("inserted", result.Inserted),
				slog.Int("skipped", result.Skipped),
				slog.Int("errors", result.Errors),
				slog.Duration("duration", result.Duration),
			)
		}
	}

	p.log.Info("pipeline completed", slog.Int("phases_run", len(toRun)))
	return nil
}

func isPhase(name string) bool {
	for _, ph := range allPhases {
		if ph == name {
			return true
		}
	}
	return false
}

func (p *Pipeline) runStudents(ctx context.Context) PhaseResult {
	existing, err := p.repos.Students.List(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("list students: %w", err)}
	}
	taken := make(map[string]bool, len(existing))
	for _, s := range existing {
		taken[s.StudentID] = true
	}

	var result PhaseResult
	for _, in := range p.data.Students {
		if taken[in.StudentID] || p.cfg.DryRun {
			result.Skipped++
			continue
		}
		if _, err := p.repos.Students.Create(ctx, in); err != nil {
			if !p.recordable(err, &result) {
				return result
			}
			p.log.Warn("student rejected", slog.String("student_id", in.StudentID), slog.String("error", err.Error()))
			continue
		}
		result.Inserted++
	}
	return result
}

func (p *Pipeline) runSubjects(ctx context.Context) PhaseResult {
	existing, err := p.repos.Subjects.List(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("list subjects: %w", err)}
	}
	taken := make(map[string]bool, len(existing))
	for _, s := range existing {
		taken[s.Code] = true
	}

	var result PhaseResult
	for _, in := range p.data.Subjects {
		if taken[in.Code] || p.cfg.DryRun {
			result.Skipped++
			continue
		}
		if _, err := p.repos.Subjects.Create(ctx, in); err != nil {
			if !p.recordable(err, &result) {
				return result
			}
			p.log.Warn("subject rejected", slog.String("code", in.Code), slog.String("error", err.Error()))
			continue
		}
		result.Inserted++
	}
	return result
}

type gradeKey struct {
	student, subject uuid.UUID
	semester         domain.Semester
	year             int
}

func (p *Pipeline) runGrades(ctx context.Context) PhaseResult {
	if p.cfg.DryRun {
		return PhaseResult{Skipped: len(p.data.Grades)}
	}

	students, err := p.repos.Students.List(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("list students: %w", err)}
	}
	subjects, err := p.repos.Subjects.List(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("list subjects: %w", err)}
	}
	grades, err := p.repos.Grades.List(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("list grades: %w", err)}
	}

	studentIDs := make(map[string]uuid.UUID, len(students))
	for _, s := range students {
		studentIDs[s.StudentID] = s.ID
	}
	subjectIDs := make(map[string]uuid.UUID, len(subjects))
	for _, s := range subjects {
		subjectIDs[s.Code] = s.ID
	}
	taken := make(map[gradeKey]bool, len(grades))
	for _, g := range grades {
		if g.Semester == nil || g.Year == nil {
			continue
		}
		taken[gradeKey{g.StudentID, g.SubjectID, *g.Semester, *g.Year}] = true
	}

	var result PhaseResult
	for _, gs := range p.data.Grades {
		studentID, okStudent := studentIDs[gs.StudentCode]
		subjectID, okSubject := subjectIDs[gs.SubjectCode]
		if !okStudent || !okSubject {
			result.Skipped++
			continue
		}
		key := gradeKey{studentID, subjectID, gs.Semester, gs.Year}
		if taken[key] {
			result.Skipped++
			continue
		}

		score := gs.Score
		letter := domain.LetterGradeFor(score)
		semester := gs.Semester
		year := gs.Year
		_, err := p.repos.Grades.Create(ctx, domain.GradeInput{
			StudentID:   studentID,
			SubjectID:   subjectID,
			Grade:       &score,
			LetterGrade: &letter,
			Semester:    &semester,
			Year:        &year,
		})
		if err != nil {
			if !p.recordable(err, &result) {
				return result
			}
			p.log.Warn("grade rejected",
				slog.String("student_id", gs.StudentCode),
				slog.String("subject", gs.SubjectCode),
				slog.String("error", err.Error()))
			continue
		}
		taken[key] = true
		result.Inserted++
	}
	return result
}

// recordable counts a per-row rejection and reports whether the phase may
// go on. Anything other than a domain rejection aborts the phase.
func (p *Pipeline) recordable(err error, result *PhaseResult) bool {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		result.Skipped++
		return true
	case errors.As(err, &ve), errors.Is(err, domain.ErrValidation):
		result.Errors++
		return true
	default:
		result.Err = err
		return false
	}
}
