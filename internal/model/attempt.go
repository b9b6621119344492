package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one completed, scored exam submission. Immutable once
// written: scoring and replay always run against QuestionsSnapshot,
// never against the live question pool.
type Attempt struct {
	ID       uuid.UUID  `json:"id"`
	UserID   uuid.UUID  `json:"user_id"`
	CourseID uuid.UUID  `json:"course_id"`
	LessonID *uuid.UUID `json:"lesson_id,omitempty"`
	// TimedOut reports whether the submission was triggered by the
	// countdown reaching zero rather than by the trainee.
	TimedOut         bool      `json:"timed_out"`
	Score            int       `json:"score"`
	Passed           bool      `json:"passed"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	Timestamp        time.Time `json:"timestamp"`
	// Answers maps question ID to the chosen option index, captured at
	// submit time. Unanswered questions have no entry.
	Answers map[uuid.UUID]int `json:"answers"`
	// QuestionsSnapshot is the exact ordered question list the trainee
	// saw, including any option reordering.
	QuestionsSnapshot []SessionQuestion `json:"questions_snapshot"`
}

// AttemptPersistJob is the queue payload for attempts whose synchronous
// write failed. The attempt ID doubles as the idempotency key, so a job
// may be delivered more than once without duplicating history.
type AttemptPersistJob struct {
	Attempt    *Attempt          `json:"attempt"`
	Completion *CompletionUpdate `json:"completion,omitempty"`
}
