package repository

import (
	"context"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lessonColumns = `id, course_id, title, content, order_num, has_exam,
	exam_passing_score, exam_time_limit_minutes, exam_max_attempts,
	exam_randomize_questions, exam_randomize_answers, exam_question_draw_count,
	created_at, updated_at`

// LessonRepository handles lesson data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

func scanLesson(row interface{ Scan(...interface{}) error }) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := row.Scan(
		&l.ID, &l.CourseID, &l.Title, &l.Content, &l.OrderNum, &l.HasExam,
		&l.Exam.PassingScorePercent, &l.Exam.TimeLimitMinutes, &l.Exam.MaxAttempts,
		&l.Exam.RandomizeQuestions, &l.Exam.RandomizeAnswers, &l.Exam.QuestionDrawCount,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetByID retrieves a lesson by ID.
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return scanLesson(r.pool.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id,
	))
}

// ListByCourse retrieves a course's lessons in authored order.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE course_id = $1 ORDER BY order_num, created_at`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// Create inserts a new lesson.
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO lessons (course_id, title, content, order_num)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		l.CourseID, l.Title, l.Content, l.OrderNum,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Update modifies a lesson's content fields.
func (r *LessonRepository) Update(ctx context.Context, l *model.Lesson) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lessons SET title = $1, content = $2, order_num = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		l.Title, l.Content, l.OrderNum, l.ID,
	)
	return err
}

// UpdateExamConfig stores the lesson quiz configuration.
func (r *LessonRepository) UpdateExamConfig(ctx context.Context, id uuid.UUID, cfg model.ExamConfig) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lessons SET has_exam = TRUE,
		 exam_passing_score = $1, exam_time_limit_minutes = $2, exam_max_attempts = $3,
		 exam_randomize_questions = $4, exam_randomize_answers = $5, exam_question_draw_count = $6,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		cfg.PassingScorePercent, cfg.TimeLimitMinutes, cfg.MaxAttempts,
		cfg.RandomizeQuestions, cfg.RandomizeAnswers, cfg.QuestionDrawCount, id,
	)
	return err
}

// Delete removes a lesson and, via cascade, its pooled questions.
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	return err
}
