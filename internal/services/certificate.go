package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/models"
)

// FallbackHolderName is the display name of last resort on certificates.
const FallbackHolderName = "BYAMN Learner"

// UserStore is the slice of the user repository certificate issuance
// needs for resolving holder identity.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CourseStore resolves course display data for certificates.
type CourseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

// CertificateService assigns certificate identifiers to completed
// enrollments. An identifier is generated at most once per enrollment
// and never regenerated; repeat requests return the stored value.
type CertificateService struct {
	enrollments EnrollmentStore
	users       UserStore
	courses     CourseStore
	email       *EmailService
	now         func() time.Time
}

func NewCertificateService(enrollments EnrollmentStore, users UserStore, courses CourseStore, email *EmailService) *CertificateService {
	return &CertificateService{
		enrollments: enrollments,
		users:       users,
		courses:     courses,
		email:       email,
		now:         time.Now,
	}
}

// EnsureCertificateID returns the enrollment's certificate identifier,
// generating and persisting one on first request. Only valid for
// enrollments at 100% progress. The re-fetch before the write is what
// keeps repeat invocations across page loads from ever minting two
// identifiers for one enrollment.
func (s *CertificateService) EnsureCertificateID(ctx context.Context, enrollmentID uuid.UUID) (string, error) {
	e, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &NotFoundError{Message: "Enrollment not found"}
		}
		return "", err
	}

	if e.Progress != 100 {
		return "", &ForbiddenError{Message: "Certificate is only available after completing the course"}
	}

	if e.CertificateID != nil && *e.CertificateID != "" {
		return *e.CertificateID, nil
	}

	user, err := s.users.GetByID(ctx, e.UserID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	certID, err := newCertificateID(s.now())
	if err != nil {
		return "", err
	}

	holderName := resolveHolderName(e.CertificateName, user)
	e.CertificateID = &certID
	e.HolderName = &holderName
	if user != nil {
		email := user.Email
		e.HolderEmail = &email
	}

	if err := s.enrollments.Update(ctx, e); err != nil {
		return "", err
	}

	if s.email != nil && user != nil {
		if err := s.email.SendCertificateEmail(user.Email, holderName, certID); err != nil {
			log.Printf("certificate %s: failed to send issuance email: %v", certID, err)
		}
	}

	return certID, nil
}

// SetCustomCertificateName stores the student's preferred display name.
// It changes what the certificate shows from now on; an already-assigned
// identifier stays as it is.
func (s *CertificateService) SetCustomCertificateName(ctx context.Context, enrollmentID uuid.UUID, name string) (*models.Enrollment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Certificate name cannot be empty"}}
	}

	e, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Enrollment not found"}
		}
		return nil, err
	}

	e.CertificateName = &name
	if e.CertificateID != nil {
		// Keep the rendered holder snapshot in step for verification.
		e.HolderName = &name
	}

	if err := s.enrollments.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Certificate assembles the displayable certificate for a completed
// enrollment, issuing the identifier if it has not been requested yet.
func (s *CertificateService) Certificate(ctx context.Context, enrollmentID uuid.UUID) (*models.Certificate, error) {
	certID, err := s.EnsureCertificateID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	e, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	courseTitle := "Unknown Course"
	instructor := "Unknown Creator"
	if course, err := s.courses.GetByID(ctx, e.CourseID); err == nil {
		courseTitle = course.Title
		instructor = course.InstructorName
	}

	issuedOn := s.now().UTC()
	if e.CompletedAt != nil {
		issuedOn = *e.CompletedAt
	}

	issuedTo := FallbackHolderName
	if e.HolderName != nil && *e.HolderName != "" {
		issuedTo = *e.HolderName
	}

	return &models.Certificate{
		CertificateID: certID,
		IssuedTo:      issuedTo,
		CourseTitle:   courseTitle,
		Instructor:    instructor,
		IssuedOn:      issuedOn,
		Status:        "Active",
		Expiration:    "Lifetime",
	}, nil
}

// newCertificateID mints "CERT-<time segment>-<random segment>", both
// segments uppercase alphanumeric. The time segment makes collisions
// need the same millisecond; the random segment makes them need the
// same dice as well.
func newCertificateID(now time.Time) (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate certificate id: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	timeSeg := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("CERT-%s-%s", timeSeg, string(buf)), nil
}

// resolveHolderName picks the certificate display name: explicit custom
// name, else account name, else the email local part, else a generic
// fallback.
func resolveHolderName(customName *string, user *models.User) string {
	if customName != nil && strings.TrimSpace(*customName) != "" {
		return strings.TrimSpace(*customName)
	}
	if user != nil {
		if strings.TrimSpace(user.FullName) != "" {
			return strings.TrimSpace(user.FullName)
		}
		if user.Email != "" {
			if local, _, found := strings.Cut(user.Email, "@"); found && local != "" {
				return local
			}
			return user.Email
		}
	}
	return FallbackHolderName
}
