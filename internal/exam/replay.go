package exam

import (
	"time"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
)

// ReplayQuestion is one question of a historical attempt, as shown to
// the trainee at the time, with their choice overlaid.
type ReplayQuestion struct {
	ID                 uuid.UUID `json:"id"`
	Text               string    `json:"text"`
	Options            []string  `json:"options"`
	CorrectOptionIndex int       `json:"correct_option_index"`
	ChosenOptionIndex  *int      `json:"chosen_option_index,omitempty"`
	Answered           bool      `json:"answered"`
	Correct            bool      `json:"correct"`
}

// ReplayView is the read-only reconstruction of a past attempt.
type ReplayView struct {
	AttemptID        uuid.UUID        `json:"attempt_id"`
	Timestamp        time.Time        `json:"timestamp"`
	Score            int              `json:"score"`
	Passed           bool             `json:"passed"`
	TimedOut         bool             `json:"timed_out"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
	Questions        []ReplayQuestion `json:"questions"`
}

// Replay reconstructs an attempt's view purely from its stored snapshot
// and answers. The live question pool is never consulted, so the view
// stays correct even after questions are edited or deleted. Pure and
// idempotent: replaying the same attempt twice yields identical output.
func Replay(attempt *model.Attempt) *ReplayView {
	questions := make([]ReplayQuestion, len(attempt.QuestionsSnapshot))

	for i, q := range attempt.QuestionsSnapshot {
		rq := ReplayQuestion{
			ID:                 q.ID,
			Text:               q.Text,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
		}
		if chosen, ok := attempt.Answers[q.ID]; ok {
			idx := chosen
			rq.ChosenOptionIndex = &idx
			rq.Answered = true
			rq.Correct = chosen == q.CorrectOptionIndex
		}
		questions[i] = rq
	}

	return &ReplayView{
		AttemptID:        attempt.ID,
		Timestamp:        attempt.Timestamp,
		Score:            attempt.Score,
		Passed:           attempt.Passed,
		TimedOut:         attempt.TimedOut,
		TimeSpentSeconds: attempt.TimeSpentSeconds,
		Questions:        questions,
	}
}
