package seeder

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
)

var (
	firstNames = []string{
		"Ada", "Alan", "Barbara", "Claude", "Dennis", "Donald", "Edsger", "Frances",
		"Grace", "John", "Katherine", "Ken", "Leslie", "Margaret", "Niklaus", "Radia",
	}
	lastNames = []string{
		"Allen", "Backus", "Hamilton", "Hopper", "Johnson", "Knuth", "Lamport", "Liskov",
		"Lovelace", "Perlman", "Ritchie", "Shannon", "Thompson", "Turing", "Wirth",
	}
)

type subjectSeed struct {
	Name    string
	Code    string
	Credits int
}

var demoSubjects = []subjectSeed{
	{Name: "Calculus I", Code: "MATH101", Credits: 4},
	{Name: "Linear Algebra", Code: "MATH201", Credits: 3},
	{Name: "Introduction to Programming", Code: "CS101", Credits: 4},
	{Name: "Data Structures", Code: "CS201", Credits: 4},
	{Name: "Operating Systems", Code: "CS301", Credits: 3},
	{Name: "Classical Mechanics", Code: "PHYS101", Credits: 4},
	{Name: "Academic Writing", Code: "ENG101", Credits: 2},
	{Name: "World History", Code: "HIST110", Credits: 2},
}

var semesters = []domain.Semester{domain.SemesterFall, domain.SemesterSpring, domain.SemesterSummer}

// dataset is the generated demo content. Grades reference students and
// subjects by their codes; IDs are resolved when the grades phase runs.
type dataset struct {
	Students []domain.StudentInput
	Subjects []domain.SubjectInput
	Grades   []gradeSeed
}

type gradeSeed struct {
	StudentCode string
	SubjectCode string
	Score       float64
	Semester    domain.Semester
	Year        int
}

// generate builds the dataset for cfg. The same Seed always yields the same data.
func generate(cfg Config) dataset {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	var ds dataset
	for _, s := range demoSubjects {
		credits := s.Credits
		ds.Subjects = append(ds.Subjects, domain.SubjectInput{Name: s.Name, Code: s.Code, Credits: &credits})
	}

	for i := range cfg.Students {
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]
		code := fmt.Sprintf("S-%04d", i+1)
		email := fmt.Sprintf("%s.%s%d@school.example", strings.ToLower(first), strings.ToLower(last), i+1)

		ds.Students = append(ds.Students, domain.StudentInput{
			Name:      first + " " + last,
			Email:     &email,
			StudentID: code,
		})

		for _, idx := range rng.Perm(len(demoSubjects))[:min(cfg.GradesPerStudent, len(demoSubjects))] {
			ds.Grades = append(ds.Grades, gradeSeed{
				StudentCode: code,
				SubjectCode: demoSubjects[idx].Code,
				Score:       score(rng),
				Semester:    semesters[rng.IntN(len(semesters))],
				Year:        cfg.Year,
			})
		}
	}

	return ds
}

// score draws a half-point score in [40, 100], skewed towards the upper range.
func score(rng *rand.Rand) float64 {
	v := 100 - math.Abs(rng.NormFloat64())*18
	v = math.Max(40, math.Min(100, v))
	return math.Round(v*2) / 2
}
