package repository

import (
	"context"
	"errors"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotEnrolled = errors.New("trainee is not enrolled in this course")

// ProgressRepository handles enrollment, per-course progress, and the
// append-only attempt history.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

func scanProgress(row interface{ Scan(...interface{}) error }) (*model.Progress, error) {
	p := &model.Progress{}
	err := row.Scan(
		&p.UserID, &p.CourseID, &p.BestExamScore, &p.IsCompleted,
		&p.PracticalPassed, &p.CompletionDate, &p.AttemptCount, &p.EnrolledAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

const progressColumns = `user_id, course_id, best_exam_score, is_completed,
	practical_passed, completion_date, attempt_count, enrolled_at`

// Get retrieves a trainee's progress in one course. Returns
// ErrNotEnrolled when no enrollment row exists.
func (r *ProgressRepository) Get(ctx context.Context, userID, courseID uuid.UUID) (*model.Progress, error) {
	p, err := scanProgress(r.pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotEnrolled
	}
	return p, err
}

// Enroll creates the progress row for a trainee in a course. Enrolling
// twice is a no-op.
func (r *ProgressRepository) Enroll(ctx context.Context, userID, courseID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO progress (user_id, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID,
	)
	return err
}

// ListByUser retrieves all of a trainee's course progress rows.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Progress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE user_id = $1 ORDER BY enrolled_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SetPracticalPassed records an instructor's sign-off of the practical
// check, and completes the course if the exam is already passed.
func (r *ProgressRepository) SetPracticalPassed(ctx context.Context, userID, courseID uuid.UUID, passingScore int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE progress SET practical_passed = TRUE,
		 is_completed = (best_exam_score IS NOT NULL AND best_exam_score >= $3),
		 completion_date = CASE
			WHEN best_exam_score IS NOT NULL AND best_exam_score >= $3 AND completion_date IS NULL
			THEN CURRENT_TIMESTAMP ELSE completion_date END
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID, passingScore,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotEnrolled
	}
	return nil
}

// AppendAttempt stores one completed attempt and bumps the counter.
// Retried deliveries of the same attempt (same ID) are absorbed so the
// persistence worker can safely redeliver.
func (r *ProgressRepository) AppendAttempt(ctx context.Context, attempt *model.Attempt) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO attempts (id, user_id, course_id, lesson_id, timed_out, score, passed,
		 time_spent_seconds, attempted_at, answers, questions_snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		attempt.ID, attempt.UserID, attempt.CourseID, attempt.LessonID,
		attempt.TimedOut, attempt.Score, attempt.Passed,
		attempt.TimeSpentSeconds, attempt.Timestamp, attempt.Answers, attempt.QuestionsSnapshot,
	)
	if err != nil {
		return err
	}

	// Only count first delivery.
	if tag.RowsAffected() == 1 && attempt.LessonID == nil {
		if _, err := tx.Exec(ctx,
			`UPDATE progress SET attempt_count = attempt_count + 1
			 WHERE user_id = $1 AND course_id = $2`,
			attempt.UserID, attempt.CourseID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateCompletion applies the recorder's outcome: the best score only
// ever goes up, and completion is monotonic.
func (r *ProgressRepository) UpdateCompletion(ctx context.Context, userID, courseID uuid.UUID, upd model.CompletionUpdate) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE progress SET
		 best_exam_score = CASE WHEN $3::int IS NULL THEN best_exam_score
			ELSE GREATEST(COALESCE(best_exam_score, 0), $3::int) END,
		 is_completed = is_completed OR COALESCE($4::boolean, FALSE),
		 completion_date = COALESCE(completion_date, $5::timestamptz)
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID, upd.ExamScore, upd.IsCompleted, upd.CompletionDate,
	)
	return err
}

// CountAttempts returns the number of recorded attempts for an exam scope.
func (r *ProgressRepository) CountAttempts(ctx context.Context, userID, courseID uuid.UUID, lessonID *uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM attempts WHERE user_id = $1 AND course_id = $2`
	args := []interface{}{userID, courseID}
	if lessonID != nil {
		query += ` AND lesson_id = $3`
		args = append(args, *lessonID)
	} else {
		query += ` AND lesson_id IS NULL`
	}

	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

const attemptColumns = `id, user_id, course_id, lesson_id, timed_out, score, passed,
	time_spent_seconds, attempted_at, answers, questions_snapshot`

func scanAttempt(row interface{ Scan(...interface{}) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.CourseID, &a.LessonID, &a.TimedOut, &a.Score, &a.Passed,
		&a.TimeSpentSeconds, &a.Timestamp, &a.Answers, &a.QuestionsSnapshot,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAttempt retrieves one attempt with its full snapshot.
func (r *ProgressRepository) GetAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id,
	))
}

// ListAttempts retrieves a trainee's attempt history for an exam scope,
// newest first.
func (r *ProgressRepository) ListAttempts(ctx context.Context, userID, courseID uuid.UUID, lessonID *uuid.UUID) ([]model.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts WHERE user_id = $1 AND course_id = $2`
	args := []interface{}{userID, courseID}
	if lessonID != nil {
		query += ` AND lesson_id = $3`
		args = append(args, *lessonID)
	} else {
		query += ` AND lesson_id IS NULL`
	}
	query += ` ORDER BY attempted_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
