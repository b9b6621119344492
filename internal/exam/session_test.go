package exam

import (
	"sync"
	"testing"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
)

func newTestSession(t *testing.T, numQuestions int, timeLimitMinutes int) *Session {
	t.Helper()
	pool := makePool(numQuestions)
	cfg := model.ExamConfig{
		PassingScorePercent: 75,
		TimeLimitMinutes:    timeLimitMinutes,
		MaxAttempts:         3,
	}
	questions, err := BuildQuestions(pool, cfg, newRNG(1))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return NewSession(uuid.New(), uuid.New(), nil, cfg, questions)
}

func answerAll(t *testing.T, sess *Session) {
	t.Helper()
	for _, q := range sess.QuestionsForTrainee() {
		if err := sess.SelectAnswer(q.ID, 0); err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
	}
}

func TestSession_InitialState(t *testing.T) {
	sess := newTestSession(t, 5, 2)
	if sess.State() != StateInProgress {
		t.Fatalf("state = %s, want IN_PROGRESS", sess.State())
	}
	if sess.RemainingSeconds() != 120 {
		t.Fatalf("remaining = %d, want 120", sess.RemainingSeconds())
	}
}

func TestSession_SelectAnswer(t *testing.T) {
	sess := newTestSession(t, 3, 10)
	q := sess.QuestionsForTrainee()[0]

	if err := sess.SelectAnswer(q.ID, 2); err != nil {
		t.Fatalf("valid answer rejected: %v", err)
	}
	// Overwrite is allowed.
	if err := sess.SelectAnswer(q.ID, 1); err != nil {
		t.Fatalf("overwrite rejected: %v", err)
	}
	if got := sess.Answers()[q.ID]; got != 1 {
		t.Fatalf("answer = %d, want 1", got)
	}

	if err := sess.SelectAnswer(q.ID, len(q.Options)); err != ErrInvalidAnswer {
		t.Fatalf("out-of-range high: got %v", err)
	}
	if err := sess.SelectAnswer(q.ID, -1); err != ErrInvalidAnswer {
		t.Fatalf("out-of-range low: got %v", err)
	}
	// Rejected selections leave state untouched.
	if got := sess.Answers()[q.ID]; got != 1 {
		t.Fatalf("rejected answer mutated state: %d", got)
	}

	if err := sess.SelectAnswer(uuid.New(), 0); err != ErrUnknownQuestion {
		t.Fatalf("unknown question: got %v", err)
	}
}

func TestSession_ManualSubmitRequiresAllAnswers(t *testing.T) {
	sess := newTestSession(t, 3, 10)

	if _, err := sess.Submit(false); err != ErrUnanswered {
		t.Fatalf("partial manual submit: got %v", err)
	}
	if sess.State() != StateInProgress {
		t.Fatalf("failed submit changed state to %s", sess.State())
	}

	answerAll(t, sess)
	snap, err := sess.Submit(false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(snap.Answers) != 3 || snap.TimedOut {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSession_TimedOutSubmitAllowsPartial(t *testing.T) {
	sess := newTestSession(t, 3, 1)

	snap, err := sess.Submit(true)
	if err != nil {
		t.Fatalf("timed-out submit: %v", err)
	}
	if !snap.TimedOut {
		t.Fatal("snapshot not marked timed out")
	}
	if len(snap.Answers) != 0 {
		t.Fatalf("expected no answers, got %d", len(snap.Answers))
	}

	result := Score(snap)
	if result.ScorePercent != 0 || result.Passed {
		t.Fatalf("empty timed-out submit should score 0: %+v", result)
	}
}

func TestSession_TickCountdownAndExpiry(t *testing.T) {
	sess := newTestSession(t, 2, 1) // 60 seconds

	expirations := 0
	for i := 0; i < 60; i++ {
		if sess.Tick() {
			expirations++
		}
	}
	if expirations != 1 {
		t.Fatalf("expired %d times over 60 ticks, want exactly 1", expirations)
	}
	if sess.RemainingSeconds() != 0 {
		t.Fatalf("remaining = %d, want 0", sess.RemainingSeconds())
	}

	// Further ticks are no-ops and never re-signal expiry.
	for i := 0; i < 10; i++ {
		if sess.Tick() {
			t.Fatal("tick re-signalled expiry")
		}
	}
	if sess.RemainingSeconds() != 0 {
		t.Fatalf("remaining went below zero: %d", sess.RemainingSeconds())
	}
}

func TestSession_TimeoutScenario(t *testing.T) {
	// One-minute exam, nothing answered: after 60 ticks the submit path
	// runs once, scores zero, and a later manual submit is a no-op.
	sess := newTestSession(t, 4, 1)

	var snap *Snapshot
	for i := 0; i < 60; i++ {
		if sess.Tick() {
			s, err := sess.Submit(true)
			if err != nil {
				t.Fatalf("auto-submit: %v", err)
			}
			snap = s
		}
	}
	if snap == nil {
		t.Fatal("session never expired")
	}

	result := Score(snap)
	if result.ScorePercent != 0 {
		t.Fatalf("score = %d, want 0", result.ScorePercent)
	}

	if _, err := sess.Submit(false); err != ErrAlreadySubmitted {
		t.Fatalf("manual submit after timeout: got %v", err)
	}
}

func TestSession_DoubleSubmitRace(t *testing.T) {
	// A manual submit and a timer-triggered one racing in the same
	// instant: exactly one wins the guard.
	sess := newTestSession(t, 2, 1)
	answerAll(t, sess)

	var wg sync.WaitGroup
	wins := make(chan *Snapshot, 2)

	for _, timedOut := range []bool{false, true} {
		wg.Add(1)
		go func(timedOut bool) {
			defer wg.Done()
			if snap, err := sess.Submit(timedOut); err == nil {
				wins <- snap
			}
		}(timedOut)
	}
	wg.Wait()
	close(wins)

	var snapshots []*Snapshot
	for s := range wins {
		snapshots = append(snapshots, s)
	}
	if len(snapshots) != 1 {
		t.Fatalf("%d submits won the race, want exactly 1", len(snapshots))
	}
}

func TestSession_SelectAnswerAfterSubmit(t *testing.T) {
	sess := newTestSession(t, 2, 5)
	answerAll(t, sess)
	if _, err := sess.Submit(false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	q := sess.QuestionsForTrainee()[0]
	if err := sess.SelectAnswer(q.ID, 1); err != ErrNotInProgress {
		t.Fatalf("answer after submit: got %v", err)
	}
}

func TestSession_SnapshotAnswersAreCopies(t *testing.T) {
	sess := newTestSession(t, 2, 5)
	answerAll(t, sess)
	snap, err := sess.Submit(false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	q := snap.Questions[0]
	snap.Answers[q.ID] = 99

	if got := sess.Answers()[q.ID]; got == 99 {
		t.Fatal("mutating snapshot answers leaked into the session")
	}
}
