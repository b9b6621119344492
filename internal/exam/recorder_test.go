package exam

import (
	"context"
	"errors"
	"testing"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeProgressStore struct {
	attempts    []*model.Attempt
	completions []model.CompletionUpdate

	appendErr     error
	completionErr error
}

func (f *fakeProgressStore) AppendAttempt(_ context.Context, attempt *model.Attempt) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeProgressStore) UpdateCompletion(_ context.Context, _, _ uuid.UUID, upd model.CompletionUpdate) error {
	if f.completionErr != nil {
		return f.completionErr
	}
	f.completions = append(f.completions, upd)
	return nil
}

func submittedSnapshot(t *testing.T, correct bool) *Snapshot {
	t.Helper()
	sess := newTestSession(t, 2, 5)
	for _, q := range sess.QuestionsForTrainee() {
		idx := 0
		if correct {
			for i := range sess.questions {
				if sess.questions[i].ID == q.ID {
					idx = sess.questions[i].CorrectOptionIndex
				}
			}
		} else {
			for i := range sess.questions {
				if sess.questions[i].ID == q.ID && sess.questions[i].CorrectOptionIndex == 0 {
					idx = 1
				}
			}
		}
		if err := sess.SelectAnswer(q.ID, idx); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	snap, err := sess.Submit(false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return snap
}

func TestCheckAttemptLimit(t *testing.T) {
	cfg := model.ExamConfig{MaxAttempts: 3}

	tests := []struct {
		name        string
		count       int
		isCompleted bool
		wantErr     error
	}{
		{"first attempt", 0, false, nil},
		{"under limit", 2, false, nil},
		{"at limit", 3, false, ErrAttemptsExhausted},
		{"over limit", 5, false, ErrAttemptsExhausted},
		{"at limit but completed", 3, true, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := CheckAttemptLimit(tc.count, cfg, tc.isCompleted); err != tc.wantErr {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBuildAttempt_CopiesAnswers(t *testing.T) {
	snap := submittedSnapshot(t, true)
	result := Score(snap)

	attempt := BuildAttempt(snap, result)

	qid := snap.Questions[0].ID
	snap.Answers[qid] = 99
	if attempt.Answers[qid] == 99 {
		t.Fatal("attempt shares the snapshot's answers map")
	}

	if attempt.Score != result.ScorePercent || attempt.Passed != result.Passed {
		t.Fatalf("attempt score mismatch: %+v vs %+v", attempt, result)
	}
	if len(attempt.QuestionsSnapshot) != len(snap.Questions) {
		t.Fatalf("snapshot length %d, want %d", len(attempt.QuestionsSnapshot), len(snap.Questions))
	}
	if attempt.ID == uuid.Nil {
		t.Fatal("attempt ID not assigned")
	}
}

func TestRecorder_Record_PassWithPrerequisites(t *testing.T) {
	store := &fakeProgressStore{}
	rec := NewRecorder(store, zerolog.Nop())

	snap := submittedSnapshot(t, true)
	result := Score(snap)
	if !result.Passed {
		t.Fatalf("fixture should pass: %+v", result)
	}

	attempt, err := rec.Record(context.Background(), snap, result, true)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(store.attempts) != 1 || store.attempts[0] != attempt {
		t.Fatalf("expected one stored attempt, got %d", len(store.attempts))
	}
	if len(store.completions) != 1 {
		t.Fatalf("expected one completion update, got %d", len(store.completions))
	}

	upd := store.completions[0]
	if upd.ExamScore == nil || *upd.ExamScore != result.ScorePercent {
		t.Fatalf("exam score not propagated: %+v", upd)
	}
	if upd.IsCompleted == nil || !*upd.IsCompleted || upd.CompletionDate == nil {
		t.Fatalf("completion not marked: %+v", upd)
	}
}

func TestRecorder_Record_PassWithoutPrerequisites(t *testing.T) {
	store := &fakeProgressStore{}
	rec := NewRecorder(store, zerolog.Nop())

	snap := submittedSnapshot(t, true)
	result := Score(snap)

	if _, err := rec.Record(context.Background(), snap, result, false); err != nil {
		t.Fatalf("record: %v", err)
	}

	upd := store.completions[0]
	if upd.ExamScore == nil {
		t.Fatal("best score must still be raised")
	}
	if upd.IsCompleted != nil || upd.CompletionDate != nil {
		t.Fatalf("course must not be completed without prerequisites: %+v", upd)
	}
}

func TestRecorder_Record_FailedAttempt(t *testing.T) {
	store := &fakeProgressStore{}
	rec := NewRecorder(store, zerolog.Nop())

	snap := submittedSnapshot(t, false)
	result := Score(snap)
	if result.Passed {
		t.Fatalf("fixture should fail: %+v", result)
	}

	attempt, err := rec.Record(context.Background(), snap, result, true)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if attempt.Passed {
		t.Fatal("failed attempt marked passed")
	}
	if len(store.attempts) != 1 {
		t.Fatalf("failed attempts must still be appended, got %d", len(store.attempts))
	}
	if len(store.completions) != 0 {
		t.Fatalf("failed attempt must not touch completion, got %d updates", len(store.completions))
	}
}

func TestRecorder_Record_PersistErrorStillReturnsAttempt(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &fakeProgressStore{appendErr: storeErr}
	rec := NewRecorder(store, zerolog.Nop())

	snap := submittedSnapshot(t, true)
	result := Score(snap)

	attempt, err := rec.Record(context.Background(), snap, result, true)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if attempt == nil {
		t.Fatal("attempt must be returned so the result can still be shown")
	}
	if attempt.Score != result.ScorePercent {
		t.Fatalf("returned attempt incomplete: %+v", attempt)
	}
}
