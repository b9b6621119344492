package model

import (
	"time"

	"github.com/google/uuid"
)

// CourseStatus enumerates the lifecycle states of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

// Course represents a training course (e.g. PPL ground school, type rating).
type Course struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Status      CourseStatus `json:"status"`
	// HasExam reports whether the course carries a final exam.
	HasExam bool       `json:"has_exam"`
	Exam    ExamConfig `json:"exam"`
	// RequiresPractical marks courses whose completion also needs a
	// practical check signed off by an instructor.
	RequiresPractical bool      `json:"requires_practical"`
	CreatedBy         uuid.UUID `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateCourseRequest is the payload for creating a new course.
type CreateCourseRequest struct {
	Title             string `json:"title" binding:"required,min=3,max=255"`
	Description       string `json:"description" binding:"omitempty,max=5000"`
	Category          string `json:"category" binding:"required,min=2,max=50"`
	RequiresPractical bool   `json:"requires_practical"`
}

// UpdateCourseRequest is the payload for updating a draft course.
type UpdateCourseRequest struct {
	Title             string `json:"title" binding:"omitempty,min=3,max=255"`
	Description       string `json:"description" binding:"omitempty,max=5000"`
	Category          string `json:"category" binding:"omitempty,min=2,max=50"`
	RequiresPractical *bool  `json:"requires_practical" binding:"omitempty"`
}

// UpdateExamConfigRequest is the payload for configuring a course or
// lesson exam.
type UpdateExamConfigRequest struct {
	PassingScorePercent int  `json:"passing_score_percent" binding:"min=0,max=100"`
	TimeLimitMinutes    int  `json:"time_limit_minutes" binding:"required,min=1,max=480"`
	MaxAttempts         int  `json:"max_attempts" binding:"required,min=1,max=20"`
	RandomizeQuestions  bool `json:"randomize_questions"`
	RandomizeAnswers    bool `json:"randomize_answers"`
	QuestionDrawCount   int  `json:"question_draw_count" binding:"min=0"`
}
