package exam

import (
	"reflect"
	"testing"
	"time"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
)

func sampleAttempt() *model.Attempt {
	q1 := model.SessionQuestion{
		ID:                 uuid.New(),
		Text:               "Minimum visibility for VFR in class C airspace?",
		Options:            []string{"5 km", "8 km", "1.5 km"},
		CorrectOptionIndex: 0,
	}
	q2 := model.SessionQuestion{
		ID:                 uuid.New(),
		Text:               "Transition altitude is defined by?",
		Options:            []string{"ATC", "The AIP", "The pilot"},
		CorrectOptionIndex: 1,
	}
	q3 := model.SessionQuestion{
		ID:                 uuid.New(),
		Text:               "Squawk code for radio failure?",
		Options:            []string{"7500", "7600", "7700"},
		CorrectOptionIndex: 1,
	}

	return &model.Attempt{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		CourseID:         uuid.New(),
		Score:            67,
		Passed:           false,
		TimedOut:         true,
		TimeSpentSeconds: 540,
		Timestamp:        time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Answers: map[uuid.UUID]int{
			q1.ID: 0, // correct
			q2.ID: 2, // wrong
			// q3 unanswered
		},
		QuestionsSnapshot: []model.SessionQuestion{q1, q2, q3},
	}
}

func TestReplay(t *testing.T) {
	attempt := sampleAttempt()
	view := Replay(attempt)

	if view.AttemptID != attempt.ID || view.Score != 67 || !view.TimedOut {
		t.Fatalf("header fields wrong: %+v", view)
	}
	if len(view.Questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(view.Questions))
	}

	q1, q2, q3 := view.Questions[0], view.Questions[1], view.Questions[2]

	if !q1.Answered || !q1.Correct || q1.ChosenOptionIndex == nil || *q1.ChosenOptionIndex != 0 {
		t.Fatalf("correct answer not replayed: %+v", q1)
	}
	if !q2.Answered || q2.Correct || *q2.ChosenOptionIndex != 2 {
		t.Fatalf("wrong answer not replayed: %+v", q2)
	}
	if q3.Answered || q3.Correct || q3.ChosenOptionIndex != nil {
		t.Fatalf("unanswered question not replayed: %+v", q3)
	}
}

func TestReplay_Idempotent(t *testing.T) {
	attempt := sampleAttempt()

	a := Replay(attempt)
	b := Replay(attempt)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("replaying the same attempt twice produced different views")
	}
}

func TestReplay_IndependentOfLivePool(t *testing.T) {
	// An attempt is graded and displayed against its own snapshot; edits
	// to the authored question afterwards must not change the replay.
	pool := makePool(3)
	cfg := baseConfig()
	questions, err := BuildQuestions(pool, cfg, newRNG(5))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	snap := &Snapshot{
		UserID:    uuid.New(),
		CourseID:  uuid.New(),
		Config:    cfg,
		Questions: questions,
		Answers:   map[uuid.UUID]int{questions[0].ID: questions[0].CorrectOptionIndex},
	}
	attempt := BuildAttempt(snap, Score(snap))
	before := Replay(attempt)

	// Simulate an instructor rewriting the bank.
	for i := range pool {
		pool[i].Text = "rewritten"
		pool[i].Options = []string{"x", "y"}
		pool[i].CorrectOptionIndex = 0
	}

	after := Replay(attempt)
	if !reflect.DeepEqual(before, after) {
		t.Fatal("editing the live pool changed a historical replay")
	}
	if after.Questions[0].Text == "rewritten" {
		t.Fatal("replay read through to the live question")
	}
}
