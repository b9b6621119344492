package model

import (
	"time"

	"github.com/google/uuid"
)

// Progress tracks a trainee's standing in one course. The exam core
// reads the attempt count for max-attempts enforcement and appends one
// attempt per submission; completion prerequisites beyond the exam
// (the practical check) are inputs owned by instructors.
type Progress struct {
	UserID   uuid.UUID `json:"user_id"`
	CourseID uuid.UUID `json:"course_id"`
	// BestExamScore is the best passing score so far, nil before the
	// first passing attempt. Only ever raised, never lowered.
	BestExamScore   *int       `json:"best_exam_score,omitempty"`
	IsCompleted     bool       `json:"is_completed"`
	PracticalPassed bool       `json:"practical_passed"`
	CompletionDate  *time.Time `json:"completion_date,omitempty"`
	AttemptCount    int        `json:"attempt_count"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
}

// CompletionUpdate carries the fields of Progress that the attempt
// recorder may change. Nil fields are left untouched.
type CompletionUpdate struct {
	ExamScore      *int       `json:"exam_score,omitempty"`
	IsCompleted    *bool      `json:"is_completed,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
}
