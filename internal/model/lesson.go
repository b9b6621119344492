package model

import (
	"time"

	"github.com/google/uuid"
)

// Lesson is a unit of course content. A lesson may carry its own quiz,
// in which case its exam config overrides the course-level one for
// questions pooled under the lesson.
type Lesson struct {
	ID       uuid.UUID `json:"id"`
	CourseID uuid.UUID `json:"course_id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	OrderNum int       `json:"order_num"`
	HasExam  bool      `json:"has_exam"`
	// Exam is only meaningful when HasExam is set.
	Exam      ExamConfig `json:"exam"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateLessonRequest is the payload for adding a lesson to a course.
type CreateLessonRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=255"`
	Content  string `json:"content" binding:"omitempty"`
	OrderNum int    `json:"order_num" binding:"min=0"`
}

// UpdateLessonRequest is the payload for editing a lesson.
type UpdateLessonRequest struct {
	Title    string `json:"title" binding:"omitempty,min=3,max=255"`
	Content  string `json:"content" binding:"omitempty"`
	OrderNum *int   `json:"order_num" binding:"omitempty,min=0"`
}
