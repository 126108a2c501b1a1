package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/models"
)

// EnrollmentStore is the slice of the enrollment repository the ledger
// needs. The backing store offers read-then-write only, no transactions
// or compare-and-swap, so every mutator here re-fetches the row
// immediately before writing. That narrows lost-update races; it does
// not eliminate them. Accepted limitation of the backing model.
type EnrollmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error)
	Create(ctx context.Context, e *models.Enrollment) error
	Update(ctx context.Context, e *models.Enrollment) error
	TouchLastAccessed(ctx context.Context, id uuid.UUID) error
}

// EnrollmentService owns the enrollment ledger: the authoritative record
// of completed lessons, derived progress and completion time.
type EnrollmentService struct {
	store EnrollmentStore
	now   func() time.Time
}

func NewEnrollmentService(store EnrollmentStore) *EnrollmentService {
	return &EnrollmentService{store: store, now: time.Now}
}

// EnsureEnrollment returns the enrollment for (user, course), creating
// one with zero progress on first view. The existence check runs
// immediately before the create so two racing calls converge on one
// logical enrollment.
func (s *EnrollmentService) EnsureEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	e, err := s.store.GetByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	e = &models.Enrollment{
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: []uuid.UUID{},
		Progress:         0,
	}
	if err := s.store.Create(ctx, e); err != nil {
		// Lost the race: someone else created it first. Re-read.
		if existing, readErr := s.store.GetByUserAndCourse(ctx, userID, courseID); readErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return e, nil
}

// MarkLessonComplete adds lessonID to the completed set and recomputes
// progress. Completing an already-completed lesson is a no-op and
// returns the enrollment unchanged; progress never decreases and set
// entries are never removed. The first transition to 100 stamps the
// completion time, exactly once.
func (s *EnrollmentService) MarkLessonComplete(ctx context.Context, enrollmentID, lessonID uuid.UUID, totalLessons int) (*models.Enrollment, error) {
	e, err := s.store.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Enrollment not found"}
		}
		return nil, err
	}

	if e.HasCompleted(lessonID) {
		return e, nil
	}

	e.CompletedLessons = append(e.CompletedLessons, lessonID)
	e.Progress = progressPercent(len(e.CompletedLessons), totalLessons)

	if e.Progress == 100 && e.CompletedAt == nil {
		completedAt := s.now().UTC()
		e.CompletedAt = &completedAt
	}

	if err := s.store.Update(ctx, e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Enrollment not found"}
		}
		return nil, err
	}
	return e, nil
}

// TouchLastAccessed records a lesson view. Best-effort: a failure here
// must not block the viewing itself.
func (s *EnrollmentService) TouchLastAccessed(ctx context.Context, enrollmentID uuid.UUID) {
	if err := s.store.TouchLastAccessed(ctx, enrollmentID); err != nil {
		log.Printf("enrollment %s: failed to touch last_accessed_at: %v", enrollmentID, err)
	}
}

// progressPercent derives the integer percentage. 100 is reserved for a
// full set: rounding alone could report 100 with a lesson still open on
// very long courses, so anything short of the full count caps at 99.
func progressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	if pct > 99 {
		pct = 99
	}
	return pct
}
