package model

import (
	"github.com/google/uuid"
)

// Question represents a single authored exam question. The pool of
// questions for a course or lesson is immutable from the exam core's
// perspective; only authoring mutates it.
type Question struct {
	ID       uuid.UUID  `json:"id"`
	CourseID uuid.UUID  `json:"course_id"`
	LessonID *uuid.UUID `json:"lesson_id,omitempty"`
	Text     string     `json:"text"`
	// Options is an ordered list of answer texts, at least two.
	Options []string `json:"options"`
	// CorrectOptionIndex is the index into Options of the right answer.
	CorrectOptionIndex int `json:"correct_option_index"`
	OrderNum           int `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to a pool.
type AddQuestionRequest struct {
	LessonID           *uuid.UUID `json:"lesson_id" binding:"omitempty"`
	Text               string     `json:"text" binding:"required,min=1,max=2000"`
	Options            []string   `json:"options" binding:"required,min=2,max=8,dive,required,max=500"`
	CorrectOptionIndex int        `json:"correct_option_index" binding:"min=0"`
	OrderNum           int        `json:"order_num" binding:"min=0"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Text               string   `json:"text" binding:"omitempty,min=1,max=2000"`
	Options            []string `json:"options" binding:"omitempty,min=2,max=8,dive,required,max=500"`
	CorrectOptionIndex *int     `json:"correct_option_index" binding:"omitempty,min=0"`
	OrderNum           *int     `json:"order_num" binding:"omitempty,min=0"`
}
