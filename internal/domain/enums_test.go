package domain

import "testing"

func TestLetterGradeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  LetterGrade
	}{
		{100, LetterGradeA},
		{95, LetterGradeA},
		{90, LetterGradeA},
		{89.99, LetterGradeB},
		{80, LetterGradeB},
		{79.5, LetterGradeC},
		{72, LetterGradeC},
		{70, LetterGradeC},
		{60, LetterGradeD},
		{59.99, LetterGradeF},
		{0, LetterGradeF},
	}
	for _, tt := range tests {
		if got := LetterGradeFor(tt.score); got != tt.want {
			t.Errorf("LetterGradeFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestLetterGrade_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		grade LetterGrade
		want  bool
	}{
		{LetterGradeA, true},
		{LetterGradeB, true},
		{LetterGradeC, true},
		{LetterGradeD, true},
		{LetterGradeF, true},
		{LetterGrade("E"), false},
		{LetterGrade("a"), false},
		{LetterGrade(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.grade), func(t *testing.T) {
			t.Parallel()
			if got := tt.grade.IsValid(); got != tt.want {
				t.Errorf("LetterGrade(%q).IsValid() = %v, want %v", tt.grade, got, tt.want)
			}
		})
	}
}

func TestLetterGrade_Rank(t *testing.T) {
	t.Parallel()

	ordered := []LetterGrade{LetterGradeA, LetterGradeB, LetterGradeC, LetterGradeD, LetterGradeF, LetterGrade("X")}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("%q should rank before %q", ordered[i-1], ordered[i])
		}
	}
}

func TestSemester_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Semester{SemesterFall, SemesterSpring, SemesterSummer} {
		if !s.IsValid() {
			t.Errorf("Semester(%q).IsValid() = false", s)
		}
	}
	if Semester("Winter").IsValid() {
		t.Error("Winter should not be a valid semester")
	}
}

func TestChangeOp_IsValid(t *testing.T) {
	t.Parallel()

	for _, op := range []ChangeOp{ChangeOpInsert, ChangeOpUpdate, ChangeOpDelete, ChangeOpResync} {
		if !op.IsValid() {
			t.Errorf("ChangeOp(%q).IsValid() = false", op)
		}
	}
	if ChangeOp("TRUNCATE").IsValid() {
		t.Error("TRUNCATE should not be a valid op")
	}
	if got := ChangeOpInsert.String(); got != "INSERT" {
		t.Errorf("got %q, want INSERT", got)
	}
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{89.996, 90},
		{89.994, 89.99},
		{79.996, 80},
		{72.5, 72.5},
		{0, 0},
		{100, 100},
	}
	for _, tt := range tests {
		if got := RoundScore(tt.in); got != tt.want {
			t.Errorf("RoundScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
