package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CertificateService issues and looks up completion certificates.
type CertificateService struct {
	certRepo *repository.CertificateRepository
	log      zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(certRepo *repository.CertificateRepository, log zerolog.Logger) *CertificateService {
	return &CertificateService{
		certRepo: certRepo,
		log:      log.With().Str("component", "certificate_service").Logger(),
	}
}

// Issue creates the certificate record for a completed course. Issuing
// again for the same trainee and course returns the existing record.
func (s *CertificateService) Issue(ctx context.Context, userID, courseID uuid.UUID, score int) (*model.Certificate, error) {
	cert := &model.Certificate{
		UserID:   userID,
		CourseID: courseID,
		Number:   newCertificateNumber(),
		Score:    score,
	}
	if err := s.certRepo.Create(ctx, cert); err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("course_id", courseID.String()).
		Str("number", cert.Number).
		Msg("Certificate issued")

	return cert, nil
}

// GetForCourse retrieves the trainee's certificate for one course.
func (s *CertificateService) GetForCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.Certificate, error) {
	return s.certRepo.GetByUserAndCourse(ctx, userID, courseID)
}

// Verify looks a certificate up by its public number.
func (s *CertificateService) Verify(ctx context.Context, number string) (*model.Certificate, error) {
	return s.certRepo.GetByNumber(ctx, number)
}

// ListForUser retrieves all certificates a trainee has earned.
func (s *CertificateService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	return s.certRepo.ListByUser(ctx, userID)
}

// newCertificateNumber builds a public certificate number, e.g.
// AVL-2026-1A2B3C4D.
func newCertificateNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("AVL-%d-%s", time.Now().UTC().Year(), suffix)
}
