package service

import (
	"context"
	"fmt"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProgressService handles enrollment, the trainee dashboard, and the
// instructor's practical sign-off.
type ProgressService struct {
	progressRepo *repository.ProgressRepository
	courseRepo   *repository.CourseRepository
	certService  *CertificateService
	log          zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(
	progressRepo *repository.ProgressRepository,
	courseRepo *repository.CourseRepository,
	certService *CertificateService,
	log zerolog.Logger,
) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		courseRepo:   courseRepo,
		certService:  certService,
		log:          log.With().Str("component", "progress_service").Logger(),
	}
}

// Enroll signs a trainee up for a published course. Enrolling twice is
// a no-op.
func (s *ProgressService) Enroll(ctx context.Context, userID, courseID uuid.UUID) error {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	if course.Status != model.CourseStatusPublished {
		return ErrCourseNotPublished
	}
	return s.progressRepo.Enroll(ctx, userID, courseID)
}

// Get returns a trainee's standing in one course.
func (s *ProgressService) Get(ctx context.Context, userID, courseID uuid.UUID) (*model.Progress, error) {
	return s.progressRepo.Get(ctx, userID, courseID)
}

// ListForUser returns all of a trainee's enrollments with progress.
func (s *ProgressService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Progress, error) {
	return s.progressRepo.ListByUser(ctx, userID)
}

// SignOffPractical records an instructor's sign-off of the practical
// check. If the trainee has already passed the exam this completes the
// course and issues the certificate.
func (s *ProgressService) SignOffPractical(ctx context.Context, userID, courseID uuid.UUID) (*model.Progress, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}

	if err := s.progressRepo.SetPracticalPassed(ctx, userID, courseID, course.Exam.PassingScorePercent); err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.Get(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	if progress.IsCompleted && progress.BestExamScore != nil {
		if _, err := s.certService.Issue(ctx, userID, courseID, *progress.BestExamScore); err != nil {
			s.log.Error().Err(err).
				Str("user_id", userID.String()).
				Str("course_id", courseID.String()).
				Msg("Certificate issue failed after practical sign-off")
		}
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("course_id", courseID.String()).
		Bool("completed", progress.IsCompleted).
		Msg("Practical check signed off")

	return progress, nil
}
