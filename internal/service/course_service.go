package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avialearn/avialearn-backend/internal/exam"
	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/google/uuid"
)

// Course lifecycle errors.
var (
	ErrCourseNotDraft     = errors.New("course is not in DRAFT status")
	ErrCourseNotPublished = errors.New("course is not published")
	ErrExamNotConfigured  = errors.New("course cannot be published with an exam but no valid config or questions")
)

// CourseService handles course authoring and lifecycle.
type CourseService struct {
	courseRepo   *repository.CourseRepository
	lessonRepo   *repository.LessonRepository
	questionRepo *repository.QuestionRepository
}

// NewCourseService creates a new CourseService.
func NewCourseService(
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	questionRepo *repository.QuestionRepository,
) *CourseService {
	return &CourseService{
		courseRepo:   courseRepo,
		lessonRepo:   lessonRepo,
		questionRepo: questionRepo,
	}
}

// Create starts a new course in DRAFT status owned by the caller.
func (s *CourseService) Create(ctx context.Context, createdBy uuid.UUID, req *model.CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Status:            model.CourseStatusDraft,
		RequiresPractical: req.RequiresPractical,
		CreatedBy:         createdBy,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// GetByID retrieves one course.
func (s *CourseService) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return s.courseRepo.GetByID(ctx, id)
}

// List retrieves courses with pagination and optional status filter.
func (s *CourseService) List(ctx context.Context, status *model.CourseStatus, page, perPage int) ([]model.Course, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.courseRepo.ListPaginated(ctx, status, perPage, (page-1)*perPage)
}

// Update modifies a course's basic info. Only DRAFT courses may change.
func (s *CourseService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateCourseRequest) (*model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status != model.CourseStatusDraft {
		return nil, ErrCourseNotDraft
	}

	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.Category != "" {
		course.Category = req.Category
	}
	if req.RequiresPractical != nil {
		course.RequiresPractical = *req.RequiresPractical
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// ConfigureExam stores a course's final exam configuration. Only DRAFT
// courses may change; the config must pass the same validation used at
// session start.
func (s *CourseService) ConfigureExam(ctx context.Context, id uuid.UUID, req *model.UpdateExamConfigRequest) error {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if course.Status != model.CourseStatusDraft {
		return ErrCourseNotDraft
	}

	cfg := model.ExamConfig{
		PassingScorePercent: req.PassingScorePercent,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		MaxAttempts:         req.MaxAttempts,
		RandomizeQuestions:  req.RandomizeQuestions,
		RandomizeAnswers:    req.RandomizeAnswers,
		QuestionDrawCount:   req.QuestionDrawCount,
	}
	if err := exam.ValidateConfig(cfg); err != nil {
		return err
	}

	return s.courseRepo.UpdateExamConfig(ctx, id, cfg)
}

// Publish transitions a DRAFT course to PUBLISHED. A course carrying an
// exam must have a valid config and a non-empty question pool, so a
// trainee can never start an unrunnable exam.
func (s *CourseService) Publish(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status != model.CourseStatusDraft {
		return nil, ErrCourseNotDraft
	}

	if course.HasExam {
		if err := exam.ValidateConfig(course.Exam); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExamNotConfigured, err)
		}
		count, err := s.questionRepo.CountByCourse(ctx, id, nil)
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		if count == 0 {
			return nil, ErrExamNotConfigured
		}
	}

	// Lesson quizzes get the same guard.
	lessons, err := s.lessonRepo.ListByCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	for _, lesson := range lessons {
		if !lesson.HasExam {
			continue
		}
		if err := exam.ValidateConfig(lesson.Exam); err != nil {
			return nil, fmt.Errorf("%w: lesson %q: %v", ErrExamNotConfigured, lesson.Title, err)
		}
		lessonID := lesson.ID
		count, err := s.questionRepo.CountByCourse(ctx, id, &lessonID)
		if err != nil {
			return nil, fmt.Errorf("count lesson questions: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: lesson %q has no questions", ErrExamNotConfigured, lesson.Title)
		}
	}

	if err := s.courseRepo.UpdateStatus(ctx, id, model.CourseStatusPublished); err != nil {
		return nil, err
	}
	course.Status = model.CourseStatusPublished
	return course, nil
}

// Archive retires a published course. Enrolled trainees keep their
// history; no new enrollments or sessions start against it.
func (s *CourseService) Archive(ctx context.Context, id uuid.UUID) error {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if course.Status != model.CourseStatusPublished {
		return ErrCourseNotPublished
	}
	return s.courseRepo.UpdateStatus(ctx, id, model.CourseStatusArchived)
}

// Delete removes a DRAFT course.
func (s *CourseService) Delete(ctx context.Context, id uuid.UUID) error {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if course.Status != model.CourseStatusDraft {
		return ErrCourseNotDraft
	}
	return s.courseRepo.Delete(ctx, id)
}

// ─── Lessons ────────────────────────────────────────────────────────

// AddLesson appends a lesson to a DRAFT course.
func (s *CourseService) AddLesson(ctx context.Context, courseID uuid.UUID, req *model.CreateLessonRequest) (*model.Lesson, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != model.CourseStatusDraft {
		return nil, ErrCourseNotDraft
	}

	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
		OrderNum: req.OrderNum,
	}
	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListLessons retrieves a course's lessons in order.
func (s *CourseService) ListLessons(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	return s.lessonRepo.ListByCourse(ctx, courseID)
}

// UpdateLesson edits a lesson on a DRAFT course.
func (s *CourseService) UpdateLesson(ctx context.Context, lessonID uuid.UUID, req *model.UpdateLessonRequest) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if course.Status != model.CourseStatusDraft {
		return nil, ErrCourseNotDraft
	}

	if req.Title != "" {
		lesson.Title = req.Title
	}
	if req.Content != "" {
		lesson.Content = req.Content
	}
	if req.OrderNum != nil {
		lesson.OrderNum = *req.OrderNum
	}

	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ConfigureLessonExam stores a lesson quiz configuration.
func (s *CourseService) ConfigureLessonExam(ctx context.Context, lessonID uuid.UUID, req *model.UpdateExamConfigRequest) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}
	course, err := s.courseRepo.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return err
	}
	if course.Status != model.CourseStatusDraft {
		return ErrCourseNotDraft
	}

	cfg := model.ExamConfig{
		PassingScorePercent: req.PassingScorePercent,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		MaxAttempts:         req.MaxAttempts,
		RandomizeQuestions:  req.RandomizeQuestions,
		RandomizeAnswers:    req.RandomizeAnswers,
		QuestionDrawCount:   req.QuestionDrawCount,
	}
	if err := exam.ValidateConfig(cfg); err != nil {
		return err
	}

	return s.lessonRepo.UpdateExamConfig(ctx, lessonID, cfg)
}

// DeleteLesson removes a lesson from a DRAFT course.
func (s *CourseService) DeleteLesson(ctx context.Context, lessonID uuid.UUID) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}
	course, err := s.courseRepo.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return err
	}
	if course.Status != model.CourseStatusDraft {
		return ErrCourseNotDraft
	}
	return s.lessonRepo.Delete(ctx, lessonID)
}
