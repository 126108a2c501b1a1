package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"byamn-backend/internal/models"
)

// EnrollmentRepo persists the enrollment ledger. The completed-lesson set
// is stored as a JSONB array; membership is what matters, order is not.
type EnrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) *EnrollmentRepo {
	return &EnrollmentRepo{pool: pool}
}

const enrollmentColumns = `id, user_id, course_id, completed_lessons, progress, enrolled_at,
	completed_at, last_accessed_at, certificate_id, certificate_name, holder_name, holder_email`

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	var completed []byte

	err := row.Scan(
		&e.ID, &e.UserID, &e.CourseID, &completed, &e.Progress, &e.EnrolledAt,
		&e.CompletedAt, &e.LastAccessedAt, &e.CertificateID, &e.CertificateName,
		&e.HolderName, &e.HolderEmail,
	)
	if err != nil {
		return nil, err
	}

	// Tolerate missing/garbled sets from older records: treat as empty.
	if len(completed) > 0 {
		if err := json.Unmarshal(completed, &e.CompletedLessons); err != nil {
			e.CompletedLessons = nil
		}
	}
	return e, nil
}

func (r *EnrollmentRepo) Create(ctx context.Context, e *models.Enrollment) error {
	e.ID = uuid.New()
	if e.CompletedLessons == nil {
		e.CompletedLessons = []uuid.UUID{}
	}
	completed, _ := json.Marshal(e.CompletedLessons)

	query := `
		INSERT INTO enrollments (id, user_id, course_id, completed_lessons, progress)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING enrolled_at, last_accessed_at`

	return r.pool.QueryRow(ctx, query,
		e.ID, e.UserID, e.CourseID, completed, e.Progress,
	).Scan(&e.EnrolledAt, &e.LastAccessedAt)
}

func (r *EnrollmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error) {
	return scanEnrollment(r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
}

func (r *EnrollmentRepo) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	return scanEnrollment(r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID))
}

// Update overwrites every mutable field from the given record. Callers
// re-fetch immediately before mutating; the store itself offers no
// compare-and-swap, so this is last-write-wins by design of the backing
// model.
func (r *EnrollmentRepo) Update(ctx context.Context, e *models.Enrollment) error {
	completed, _ := json.Marshal(e.CompletedLessons)

	tag, err := r.pool.Exec(ctx, `
		UPDATE enrollments
		SET completed_lessons = $1,
			progress = $2,
			completed_at = $3,
			certificate_id = $4,
			certificate_name = $5,
			holder_name = $6,
			holder_email = $7
		WHERE id = $8`,
		completed, e.Progress, e.CompletedAt, e.CertificateID, e.CertificateName,
		e.HolderName, e.HolderEmail, e.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *EnrollmentRepo) TouchLastAccessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE enrollments SET last_accessed_at = NOW() WHERE id = $1`, id)
	return err
}

// FindByCertificateID returns the completed enrollment holding the given
// certificate identifier. Incomplete enrollments are excluded from the
// scan even if a certificate_id is somehow present on them.
func (r *EnrollmentRepo) FindByCertificateID(ctx context.Context, certificateID string) (*models.Enrollment, error) {
	return scanEnrollment(r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE certificate_id = $1 AND progress = 100`,
		certificateID))
}

func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.EnrollmentWithCourse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.user_id, e.course_id, e.completed_lessons, e.progress, e.enrolled_at,
			e.completed_at, e.last_accessed_at, e.certificate_id, e.certificate_name,
			e.holder_name, e.holder_email,
			c.title, c.instructor_name, c.thumbnail_url,
			(SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS total_lessons
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.last_accessed_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.EnrollmentWithCourse
	for rows.Next() {
		item := &models.EnrollmentWithCourse{}
		var completed []byte
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.CourseID, &completed, &item.Progress, &item.EnrolledAt,
			&item.CompletedAt, &item.LastAccessedAt, &item.CertificateID, &item.CertificateName,
			&item.HolderName, &item.HolderEmail,
			&item.CourseTitle, &item.CourseInstructor, &item.CourseThumbnailURL,
			&item.TotalLessons,
		); err != nil {
			return nil, err
		}
		if len(completed) > 0 {
			if err := json.Unmarshal(completed, &item.CompletedLessons); err != nil {
				item.CompletedLessons = nil
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
