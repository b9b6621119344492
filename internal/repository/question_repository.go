package repository

import (
	"context"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question pool data access. Options are
// stored as a JSONB array so the authored order is preserved exactly.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, lesson_id, text, options, correct_option_index, order_num
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.CourseID, &q.LessonID, &q.Text, &q.Options, &q.CorrectOptionIndex, &q.OrderNum)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByCourse retrieves the question pool for a course's final exam
// (lessonID nil) or a lesson quiz, in authored order.
func (r *QuestionRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, lessonID *uuid.UUID) ([]model.Question, error) {
	query := `SELECT id, course_id, lesson_id, text, options, correct_option_index, order_num
	 FROM questions WHERE course_id = $1`
	args := []interface{}{courseID}

	if lessonID != nil {
		query += ` AND lesson_id = $2`
		args = append(args, *lessonID)
	} else {
		query += ` AND lesson_id IS NULL`
	}
	query += ` ORDER BY order_num, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.CourseID, &q.LessonID, &q.Text, &q.Options, &q.CorrectOptionIndex, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountByCourse returns the pool size for an exam scope.
func (r *QuestionRepository) CountByCourse(ctx context.Context, courseID uuid.UUID, lessonID *uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM questions WHERE course_id = $1`
	args := []interface{}{courseID}
	if lessonID != nil {
		query += ` AND lesson_id = $2`
		args = append(args, *lessonID)
	} else {
		query += ` AND lesson_id IS NULL`
	}

	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (course_id, lesson_id, text, options, correct_option_index, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		q.CourseID, q.LessonID, q.Text, q.Options, q.CorrectOptionIndex, q.OrderNum,
	).Scan(&q.ID)
}

// Update modifies an authored question. Past attempts are unaffected:
// replay always reads the attempt's own snapshot.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET text = $1, options = $2, correct_option_index = $3, order_num = $4
		 WHERE id = $5`,
		q.Text, q.Options, q.CorrectOptionIndex, q.OrderNum, q.ID,
	)
	return err
}

// Delete removes a question from the pool.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
