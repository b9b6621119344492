package repository

import (
	"context"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CertificateRepository handles completion certificate records.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

// Create stores a certificate record. At most one certificate exists per
// trainee and course; re-completion does not issue a second one.
func (r *CertificateRepository) Create(ctx context.Context, c *model.Certificate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO certificates (user_id, course_id, number, score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, course_id) DO UPDATE SET number = certificates.number
		 RETURNING id, number, issued_at`,
		c.UserID, c.CourseID, c.Number, c.Score,
	).Scan(&c.ID, &c.Number, &c.IssuedAt)
}

// GetByUserAndCourse retrieves the certificate for one completion.
func (r *CertificateRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*model.Certificate, error) {
	c := &model.Certificate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, course_id, number, score, issued_at
		 FROM certificates WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&c.ID, &c.UserID, &c.CourseID, &c.Number, &c.Score, &c.IssuedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByNumber retrieves a certificate by its public number, for
// third-party verification.
func (r *CertificateRepository) GetByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	c := &model.Certificate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, course_id, number, score, issued_at
		 FROM certificates WHERE number = $1`, number,
	).Scan(&c.ID, &c.UserID, &c.CourseID, &c.Number, &c.Score, &c.IssuedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByUser retrieves all certificates a trainee has earned.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, course_id, number, score, issued_at
		 FROM certificates WHERE user_id = $1 ORDER BY issued_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []model.Certificate
	for rows.Next() {
		var c model.Certificate
		if err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.Number, &c.Score, &c.IssuedAt); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}
