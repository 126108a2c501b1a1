package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"byamn-backend/internal/models"
)

func seedCompletedEnrollment(store *fakeEnrollmentStore, user *models.User, courseID uuid.UUID) *models.Enrollment {
	completedAt := time.Now().Add(-time.Hour).UTC()
	e := &models.Enrollment{
		ID:               uuid.New(),
		UserID:           user.ID,
		CourseID:         courseID,
		CompletedLessons: []uuid.UUID{uuid.New(), uuid.New()},
		Progress:         100,
		CompletedAt:      &completedAt,
	}
	store.rows[e.ID] = cloneEnrollment(e)
	return e
}

func newTestCertificateService(store *fakeEnrollmentStore, users *fakeUserStore, courses *fakeCourseStore) *CertificateService {
	return NewCertificateService(store, users, courses, nil)
}

func TestEnsureCertificateID_IdempotentAcrossCalls(t *testing.T) {
	store := newFakeEnrollmentStore()
	user := &models.User{ID: uuid.New(), Email: "ayan@example.com", FullName: "Ayan B"}
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{user.ID: user}}
	courseID := uuid.New()
	courses := &fakeCourseStore{courses: map[uuid.UUID]*models.Course{
		courseID: {ID: courseID, Title: "Go Basics", InstructorName: "Dana"},
	}}
	svc := newTestCertificateService(store, users, courses)
	e := seedCompletedEnrollment(store, user, courseID)

	first, err := svc.EnsureCertificateID(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("EnsureCertificateID: %v", err)
	}
	if !ValidCertificateID(first) {
		t.Fatalf("generated identifier %q does not satisfy the issued shape", first)
	}

	for i := 0; i < 5; i++ {
		again, err := svc.EnsureCertificateID(context.Background(), e.ID)
		if err != nil {
			t.Fatalf("EnsureCertificateID call %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("identifier changed on call %d: %q vs %q", i, again, first)
		}
	}
}

func TestEnsureCertificateID_RequiresCompletion(t *testing.T) {
	store := newFakeEnrollmentStore()
	user := &models.User{ID: uuid.New(), Email: "a@b.com"}
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{user.ID: user}}
	courses := &fakeCourseStore{courses: map[uuid.UUID]*models.Course{}}
	svc := newTestCertificateService(store, users, courses)

	e := &models.Enrollment{
		ID: uuid.New(), UserID: user.ID, CourseID: uuid.New(),
		CompletedLessons: []uuid.UUID{uuid.New()}, Progress: 50,
	}
	store.rows[e.ID] = cloneEnrollment(e)

	if _, err := svc.EnsureCertificateID(context.Background(), e.ID); err == nil {
		t.Fatal("expected error for incomplete enrollment")
	} else if _, ok := err.(*ForbiddenError); !ok {
		t.Errorf("expected ForbiddenError, got %T", err)
	}

	stored := store.rows[e.ID]
	if stored.CertificateID != nil {
		t.Error("incomplete enrollment was given a certificate identifier")
	}
}

func TestResolveHolderName(t *testing.T) {
	custom := "  Custom Name  "
	empty := "   "
	tests := []struct {
		name       string
		customName *string
		user       *models.User
		want       string
	}{
		{"custom name wins", &custom, &models.User{FullName: "Acct Name", Email: "x@y.com"}, "Custom Name"},
		{"blank custom falls through", &empty, &models.User{FullName: "Acct Name"}, "Acct Name"},
		{"account name", nil, &models.User{FullName: "Acct Name", Email: "x@y.com"}, "Acct Name"},
		{"email local part", nil, &models.User{Email: "ayan.b@example.com"}, "ayan.b"},
		{"email without at sign", nil, &models.User{Email: "not-an-email"}, "not-an-email"},
		{"nothing available", nil, &models.User{}, FallbackHolderName},
		{"nil user", nil, nil, FallbackHolderName},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveHolderName(tc.customName, tc.user); got != tc.want {
				t.Errorf("resolveHolderName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSetCustomCertificateName(t *testing.T) {
	store := newFakeEnrollmentStore()
	user := &models.User{ID: uuid.New(), Email: "a@b.com", FullName: "Ayan"}
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{user.ID: user}}
	courseID := uuid.New()
	courses := &fakeCourseStore{courses: map[uuid.UUID]*models.Course{
		courseID: {ID: courseID, Title: "Go Basics", InstructorName: "Dana"},
	}}
	svc := newTestCertificateService(store, users, courses)
	e := seedCompletedEnrollment(store, user, courseID)

	if _, err := svc.SetCustomCertificateName(context.Background(), e.ID, "   "); err == nil {
		t.Error("blank name should be rejected")
	}

	updated, err := svc.SetCustomCertificateName(context.Background(), e.ID, "  Ayan Bekzhanov  ")
	if err != nil {
		t.Fatalf("SetCustomCertificateName: %v", err)
	}
	if updated.CertificateName == nil || *updated.CertificateName != "Ayan Bekzhanov" {
		t.Errorf("stored name = %v, want trimmed custom name", updated.CertificateName)
	}

	cert, err := svc.Certificate(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Certificate: %v", err)
	}
	if cert.IssuedTo != "Ayan Bekzhanov" {
		t.Errorf("IssuedTo = %q, want custom name", cert.IssuedTo)
	}
	if cert.CourseTitle != "Go Basics" || cert.Instructor != "Dana" {
		t.Errorf("course display = %q / %q", cert.CourseTitle, cert.Instructor)
	}
	if cert.Status != "Active" || cert.Expiration != "Lifetime" {
		t.Errorf("status/expiration = %q / %q", cert.Status, cert.Expiration)
	}
}

func TestNewCertificateID_Shape(t *testing.T) {
	id, err := newCertificateID(time.Now())
	if err != nil {
		t.Fatalf("newCertificateID: %v", err)
	}
	if !strings.HasPrefix(id, "CERT-") {
		t.Errorf("identifier %q missing prefix", id)
	}
	if !ValidCertificateID(id) {
		t.Errorf("identifier %q fails its own format check", id)
	}
}
