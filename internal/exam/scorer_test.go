package exam

import (
	"testing"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
)

// snapshotWith builds a snapshot with total questions of which the
// first correct are answered right, the next wrong are answered wrong,
// and the rest left unanswered.
func snapshotWith(total, correct, wrong int, passing int) *Snapshot {
	questions := make([]model.SessionQuestion, total)
	answers := make(map[uuid.UUID]int, correct+wrong)

	for i := range questions {
		questions[i] = model.SessionQuestion{
			ID:                 uuid.New(),
			Text:               "q",
			Options:            []string{"a", "b", "c"},
			CorrectOptionIndex: 1,
		}
		switch {
		case i < correct:
			answers[questions[i].ID] = 1
		case i < correct+wrong:
			answers[questions[i].ID] = 0
		}
	}

	return &Snapshot{
		Config:    model.ExamConfig{PassingScorePercent: passing, TimeLimitMinutes: 10, MaxAttempts: 1},
		Questions: questions,
		Answers:   answers,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		correct     int
		wrong       int
		passing     int
		wantPercent int
		wantPassed  bool
	}{
		{"all correct", 10, 10, 0, 75, 100, true},
		{"none answered scores zero", 10, 0, 0, 75, 0, false},
		{"all wrong scores zero", 10, 0, 10, 75, 0, false},
		{"one third rounds down", 3, 1, 2, 50, 33, false},
		{"two thirds rounds up", 3, 2, 1, 50, 67, true},
		{"half rounds up", 8, 1, 0, 50, 13, false}, // 12.5 → 13
		{"missing answers count as incorrect", 4, 2, 0, 50, 50, true},
		{"boundary is inclusive", 4, 3, 1, 75, 75, true},
		{"just below boundary fails", 10, 7, 3, 75, 70, false},
		{"zero passing score always passes", 5, 0, 0, 0, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(snapshotWith(tc.total, tc.correct, tc.wrong, tc.passing))
			if got.CorrectCount != tc.correct {
				t.Errorf("correct count = %d, want %d", got.CorrectCount, tc.correct)
			}
			if got.TotalQuestions != tc.total {
				t.Errorf("total = %d, want %d", got.TotalQuestions, tc.total)
			}
			if got.ScorePercent != tc.wantPercent {
				t.Errorf("percent = %d, want %d", got.ScorePercent, tc.wantPercent)
			}
			if got.Passed != tc.wantPassed {
				t.Errorf("passed = %v, want %v", got.Passed, tc.wantPassed)
			}
		})
	}
}

func TestScore_AnswerToUnknownQuestionIgnored(t *testing.T) {
	snap := snapshotWith(2, 1, 0, 50)
	snap.Answers[uuid.New()] = 1 // stray answer, no matching question

	got := Score(snap)
	if got.CorrectCount != 1 || got.ScorePercent != 50 {
		t.Fatalf("stray answer affected score: %+v", got)
	}
}

func TestScore_GradesAgainstSnapshotIndex(t *testing.T) {
	// The scorer must use the session-local (possibly remapped) correct
	// index, not anything from the authored pool.
	q := model.SessionQuestion{
		ID:                 uuid.New(),
		Options:            []string{"bravo", "alpha"},
		CorrectOptionIndex: 1,
	}
	snap := &Snapshot{
		Config:    model.ExamConfig{PassingScorePercent: 100, TimeLimitMinutes: 5, MaxAttempts: 1},
		Questions: []model.SessionQuestion{q},
		Answers:   map[uuid.UUID]int{q.ID: 1},
	}

	got := Score(snap)
	if !got.Passed || got.ScorePercent != 100 {
		t.Fatalf("expected pass at 100, got %+v", got)
	}
}
