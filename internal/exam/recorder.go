package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProgressStore is the external persistence collaborator the recorder
// writes through. Implementations own their consistency guarantees.
type ProgressStore interface {
	AppendAttempt(ctx context.Context, attempt *model.Attempt) error
	UpdateCompletion(ctx context.Context, userID, courseID uuid.UUID, upd model.CompletionUpdate) error
}

// CheckAttemptLimit enforces the max-attempts policy. It must run
// BEFORE a session is built: once the limit is reached on a
// not-yet-completed course, no further session may start.
func CheckAttemptLimit(attemptCount int, cfg model.ExamConfig, isCompleted bool) error {
	if attemptCount >= cfg.MaxAttempts && !isCompleted {
		return ErrAttemptsExhausted
	}
	return nil
}

// Recorder packages submitted sessions into immutable attempt records
// and persists them through the progress store.
type Recorder struct {
	store ProgressStore
	log   zerolog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(store ProgressStore, log zerolog.Logger) *Recorder {
	return &Recorder{
		store: store,
		log:   log.With().Str("component", "attempt_recorder").Logger(),
	}
}

// BuildAttempt turns a snapshot and its score into the immutable
// attempt record, copying the answers map by value. No persistence.
func BuildAttempt(snap *Snapshot, result model.ScoreResult) *model.Attempt {
	answers := make(map[uuid.UUID]int, len(snap.Answers))
	for k, v := range snap.Answers {
		answers[k] = v
	}

	return &model.Attempt{
		ID:                uuid.New(),
		UserID:            snap.UserID,
		CourseID:          snap.CourseID,
		LessonID:          snap.LessonID,
		TimedOut:          snap.TimedOut,
		Score:             result.ScorePercent,
		Passed:            result.Passed,
		TimeSpentSeconds:  snap.TimeSpentSeconds,
		Timestamp:         time.Now().UTC(),
		Answers:           answers,
		QuestionsSnapshot: snap.Questions,
	}
}

// Record builds the attempt, appends it to the trainee's progress, and
// on a passing attempt raises the best score and — when the external
// completion prerequisites are already satisfied — marks the course
// completed. The attempt is returned even when persistence fails so
// the result can still be shown to the trainee; the error then reports
// what could not be saved.
func (r *Recorder) Record(ctx context.Context, snap *Snapshot, result model.ScoreResult, prerequisitesMet bool) (*model.Attempt, error) {
	attempt := BuildAttempt(snap, result)

	if err := r.store.AppendAttempt(ctx, attempt); err != nil {
		return attempt, fmt.Errorf("append attempt: %w", err)
	}

	// Lesson quizzes record history only; course completion tracks the
	// final exam.
	if !result.Passed || snap.LessonID != nil {
		return attempt, nil
	}

	upd := model.CompletionUpdate{ExamScore: &result.ScorePercent}
	if prerequisitesMet {
		completed := true
		now := time.Now().UTC()
		upd.IsCompleted = &completed
		upd.CompletionDate = &now
	}

	if err := r.store.UpdateCompletion(ctx, snap.UserID, snap.CourseID, upd); err != nil {
		return attempt, fmt.Errorf("update completion: %w", err)
	}

	r.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("user_id", snap.UserID.String()).
		Str("course_id", snap.CourseID.String()).
		Int("score", result.ScorePercent).
		Bool("passed", result.Passed).
		Bool("completed", prerequisitesMet).
		Msg("Attempt recorded")

	return attempt, nil
}
