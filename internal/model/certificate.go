package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate records a completion certificate issued for a course.
// Rendering/printing is handled by the frontend; only the record is
// owned here.
type Certificate struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	CourseID uuid.UUID `json:"course_id"`
	Number   string    `json:"number"`
	Score    int       `json:"score"`
	IssuedAt time.Time `json:"issued_at"`
}
