package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/middleware"
	"byamn-backend/internal/models"
)

var certificateIDPattern = regexp.MustCompile(`^CERT-[A-Z0-9]+-[A-Z0-9]+$`)

// ValidCertificateID reports whether id has the issued shape:
// CERT-<alnum>-<alnum>, overall length 10 to 50.
func ValidCertificateID(id string) bool {
	return len(id) >= 10 && len(id) <= 50 && certificateIDPattern.MatchString(id)
}

// CertificateLookup is the slice of the enrollment repository the
// verifier needs: the scan for a completed enrollment holding the
// identifier.
type CertificateLookup interface {
	FindByCertificateID(ctx context.Context, certificateID string) (*models.Enrollment, error)
}

// VerificationAudit records every verification attempt, success or
// failure, for later security review. Never used for control flow.
type VerificationAudit interface {
	Record(ctx context.Context, certificateID string, valid bool, reason, clientIP string) error
}

// VerificationService validates certificate identifiers presented by
// anyone, independent of the session that earned them. Format and rate
// checks run before any storage access.
type VerificationService struct {
	enrollments CertificateLookup
	users       UserStore
	courses     CourseStore
	audit       VerificationAudit
	limiter     *middleware.RateLimiter
	now         func() time.Time
}

func NewVerificationService(enrollments CertificateLookup, users UserStore, courses CourseStore, audit VerificationAudit, limiter *middleware.RateLimiter) *VerificationService {
	return &VerificationService{
		enrollments: enrollments,
		users:       users,
		courses:     courses,
		audit:       audit,
		limiter:     limiter,
		now:         time.Now,
	}
}

func (s *VerificationService) Verify(ctx context.Context, certificateID, clientIP string) models.VerificationResult {
	certificateID = strings.TrimSpace(certificateID)

	if !ValidCertificateID(certificateID) {
		return s.reject(ctx, certificateID, clientIP, models.VerifyErrInvalidFormat)
	}

	if s.limiter != nil && !s.limiter.Allow(clientIP) {
		return s.reject(ctx, certificateID, clientIP, models.VerifyErrRateLimited)
	}

	e, err := s.enrollments.FindByCertificateID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.reject(ctx, certificateID, clientIP, models.VerifyErrNotFound)
		}
		log.Printf("verification %s: lookup failed: %v", certificateID, err)
		return s.reject(ctx, certificateID, clientIP, models.VerifyErrServiceUnavailable)
	}

	if !s.authentic(e, certificateID) {
		return s.reject(ctx, certificateID, clientIP, models.VerifyErrAuthenticityFailed)
	}

	courseTitle := "Unknown Course"
	courseCreator := "Unknown Creator"
	if course, err := s.courses.GetByID(ctx, e.CourseID); err == nil {
		courseTitle = course.Title
		courseCreator = course.InstructorName
	}

	verifiedAt := s.now().UTC()
	result := models.VerificationResult{
		Valid:                 true,
		CertificateID:         certificateID,
		IssuedTo:              s.resolveIssuedTo(ctx, e),
		CourseTitle:           courseTitle,
		CourseCreator:         courseCreator,
		IssuedOn:              e.CompletedAt,
		Status:                "Active",
		Expiration:            "Lifetime",
		VerificationTimestamp: &verifiedAt,
	}

	s.record(ctx, certificateID, true, "verified", clientIP)
	return result
}

// authentic is the predicate every verified certificate must pass: the
// enrollment is complete, holds exactly this identifier, and has a
// completion time that is not in the future.
func (s *VerificationService) authentic(e *models.Enrollment, certificateID string) bool {
	if e.Progress != 100 {
		return false
	}
	if e.CertificateID == nil || *e.CertificateID != certificateID {
		return false
	}
	if e.CompletedAt == nil {
		return false
	}
	return !e.CompletedAt.After(s.now())
}

// resolveIssuedTo mirrors the issuance-time fallback chain, using the
// holder snapshot first so verification works even if the account later
// changes or disappears.
func (s *VerificationService) resolveIssuedTo(ctx context.Context, e *models.Enrollment) string {
	if e.HolderName != nil && strings.TrimSpace(*e.HolderName) != "" {
		return strings.TrimSpace(*e.HolderName)
	}
	if e.HolderEmail != nil && *e.HolderEmail != "" {
		if local, _, found := strings.Cut(*e.HolderEmail, "@"); found && local != "" {
			return local
		}
		return *e.HolderEmail
	}
	if user, err := s.users.GetByID(ctx, e.UserID); err == nil {
		return resolveHolderName(e.CertificateName, user)
	}
	return FallbackHolderName
}

func (s *VerificationService) reject(ctx context.Context, certificateID, clientIP, reason string) models.VerificationResult {
	s.record(ctx, certificateID, false, reason, clientIP)
	return models.VerificationResult{Valid: false, Error: reason}
}

func (s *VerificationService) record(ctx context.Context, certificateID string, valid bool, reason, clientIP string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, certificateID, valid, reason, clientIP); err != nil {
		log.Printf("verification %s: failed to record audit entry: %v", certificateID, err)
	}
}
