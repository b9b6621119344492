package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/google/uuid"
)

var ErrCorrectIndexOutOfRange = errors.New("correct option index is out of range")

// QuestionService handles question pool authoring.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	courseRepo   *repository.CourseRepository
	lessonRepo   *repository.LessonRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		courseRepo:   courseRepo,
		lessonRepo:   lessonRepo,
	}
}

// Add appends a question to a course or lesson pool. The correct index
// must point into the options list.
func (s *QuestionService) Add(ctx context.Context, courseID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != model.CourseStatusDraft {
		return nil, ErrCourseNotDraft
	}

	if req.LessonID != nil {
		lesson, err := s.lessonRepo.GetByID(ctx, *req.LessonID)
		if err != nil {
			return nil, fmt.Errorf("get lesson: %w", err)
		}
		if lesson.CourseID != courseID {
			return nil, errors.New("lesson does not belong to this course")
		}
	}

	if req.CorrectOptionIndex < 0 || req.CorrectOptionIndex >= len(req.Options) {
		return nil, ErrCorrectIndexOutOfRange
	}

	question := &model.Question{
		CourseID:           courseID,
		LessonID:           req.LessonID,
		Text:               req.Text,
		Options:            req.Options,
		CorrectOptionIndex: req.CorrectOptionIndex,
		OrderNum:           req.OrderNum,
	}
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// List retrieves the pool for a course final exam or a lesson quiz.
func (s *QuestionService) List(ctx context.Context, courseID uuid.UUID, lessonID *uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByCourse(ctx, courseID, lessonID)
}

// Update edits an authored question. Attempts already recorded keep
// their own snapshot and are not rewritten.
func (s *QuestionService) Update(ctx context.Context, questionID uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if req.Text != "" {
		question.Text = req.Text
	}
	if len(req.Options) > 0 {
		question.Options = req.Options
		// An options rewrite invalidates the old index unless restated.
		if req.CorrectOptionIndex == nil {
			return nil, ErrCorrectIndexOutOfRange
		}
	}
	if req.CorrectOptionIndex != nil {
		question.CorrectOptionIndex = *req.CorrectOptionIndex
	}
	if req.OrderNum != nil {
		question.OrderNum = *req.OrderNum
	}

	if question.CorrectOptionIndex < 0 || question.CorrectOptionIndex >= len(question.Options) {
		return nil, ErrCorrectIndexOutOfRange
	}

	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete removes a question from its pool.
func (s *QuestionService) Delete(ctx context.Context, questionID uuid.UUID) error {
	if _, err := s.questionRepo.GetByID(ctx, questionID); err != nil {
		return err
	}
	return s.questionRepo.Delete(ctx, questionID)
}
