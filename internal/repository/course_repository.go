package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCourseHasEnrollments = errors.New("course still has enrolled trainees")

const courseColumns = `id, title, description, category, status, has_exam,
	exam_passing_score, exam_time_limit_minutes, exam_max_attempts,
	exam_randomize_questions, exam_randomize_answers, exam_question_draw_count,
	requires_practical, created_by, created_at, updated_at`

// CourseRepository handles course data access.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func scanCourse(row interface{ Scan(...interface{}) error }) (*model.Course, error) {
	c := &model.Course{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.Status, &c.HasExam,
		&c.Exam.PassingScorePercent, &c.Exam.TimeLimitMinutes, &c.Exam.MaxAttempts,
		&c.Exam.RandomizeQuestions, &c.Exam.RandomizeAnswers, &c.Exam.QuestionDrawCount,
		&c.RequiresPractical, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a course by ID.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id,
	))
}

// ListPaginated retrieves courses with pagination and optional status filter.
func (r *CourseRepository) ListPaginated(ctx context.Context, status *model.CourseStatus, limit, offset int) ([]model.Course, int, error) {
	countQuery := `SELECT COUNT(*) FROM courses`
	var countArgs []interface{}
	if status != nil {
		countQuery += ` WHERE status = $1`
		countArgs = append(countArgs, *status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + courseColumns + ` FROM courses`
	var args []interface{}
	argIdx := 1

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
		argIdx++
	}

	query += ` ORDER BY title LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, *c)
	}
	return courses, total, rows.Err()
}

// Create inserts a new course in DRAFT status.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO courses (title, description, category, status, requires_practical, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		c.Title, c.Description, c.Category, c.Status, c.RequiresPractical, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update modifies a course's basic info.
func (r *CourseRepository) Update(ctx context.Context, c *model.Course) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE courses SET title = $1, description = $2, category = $3,
		 requires_practical = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5`,
		c.Title, c.Description, c.Category, c.RequiresPractical, c.ID,
	)
	return err
}

// UpdateExamConfig stores the course final exam configuration.
func (r *CourseRepository) UpdateExamConfig(ctx context.Context, id uuid.UUID, cfg model.ExamConfig) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE courses SET has_exam = TRUE,
		 exam_passing_score = $1, exam_time_limit_minutes = $2, exam_max_attempts = $3,
		 exam_randomize_questions = $4, exam_randomize_answers = $5, exam_question_draw_count = $6,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		cfg.PassingScorePercent, cfg.TimeLimitMinutes, cfg.MaxAttempts,
		cfg.RandomizeQuestions, cfg.RandomizeAnswers, cfg.QuestionDrawCount, id,
	)
	return err
}

// UpdateStatus transitions a course's lifecycle state.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CourseStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE courses SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id,
	)
	return err
}

// Delete removes a course. Fails while trainees are still enrolled.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrCourseHasEnrollments
		}
		return err
	}
	return nil
}
