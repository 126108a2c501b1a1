package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"byamn-backend/internal/middleware"
	"byamn-backend/internal/models"
)

type verifyFixture struct {
	store   *fakeEnrollmentStore
	audit   *fakeAudit
	svc     *VerificationService
	user    *models.User
	course  *models.Course
	certID  string
	enrolID uuid.UUID
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()

	store := newFakeEnrollmentStore()
	audit := &fakeAudit{}
	user := &models.User{ID: uuid.New(), Email: "holder@example.com", FullName: "Cert Holder"}
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{user.ID: user}}
	course := &models.Course{ID: uuid.New(), Title: "Distributed Systems", InstructorName: "Prof. K"}
	courses := &fakeCourseStore{courses: map[uuid.UUID]*models.Course{course.ID: course}}

	e := seedCompletedEnrollment(store, user, course.ID)
	certID := "CERT-ABC123-XY99Z0"
	holder := "Cert Holder"
	row := store.rows[e.ID]
	row.CertificateID = &certID
	row.HolderName = &holder

	svc := NewVerificationService(store, users, courses, audit, nil)
	return &verifyFixture{store: store, audit: audit, svc: svc, user: user, course: course, certID: certID, enrolID: e.ID}
}

func TestValidCertificateID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"CERT-ABC123-XY99Z0", true},
		{"CERT-1-2", false},             // too short
		{"cert-abc123-xy99z0", false},   // lowercase
		{"CERT-ABC123", false},          // missing segment
		{"CERT-ABC_23-XY99Z0", false},   // bad character
		{"BADGE-ABC123-XY99Z0", false},  // wrong prefix
		{"", false},
		{"CERT-" + string(make([]byte, 60)), false}, // too long and bad bytes
	}

	for _, tc := range tests {
		if got := ValidCertificateID(tc.id); got != tc.want {
			t.Errorf("ValidCertificateID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestVerify_InvalidFormatSkipsStorage(t *testing.T) {
	f := newVerifyFixture(t)

	result := f.svc.Verify(context.Background(), "not-a-cert", "10.0.0.1")
	if result.Valid {
		t.Fatal("malformed identifier verified")
	}
	if result.Error != models.VerifyErrInvalidFormat {
		t.Errorf("error = %q, want %q", result.Error, models.VerifyErrInvalidFormat)
	}
	if f.store.lookupCalls != 0 {
		t.Errorf("storage was consulted %d times for a malformed identifier", f.store.lookupCalls)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].reason != models.VerifyErrInvalidFormat {
		t.Errorf("audit entries = %+v, want one INVALID_FORMAT record", f.audit.entries)
	}
}

func TestVerify_Success(t *testing.T) {
	f := newVerifyFixture(t)

	result := f.svc.Verify(context.Background(), "  "+f.certID+"  ", "10.0.0.1")
	if !result.Valid {
		t.Fatalf("expected valid result, got error %q", result.Error)
	}
	if result.CertificateID != f.certID {
		t.Errorf("CertificateID = %q, want %q", result.CertificateID, f.certID)
	}
	if result.IssuedTo != "Cert Holder" {
		t.Errorf("IssuedTo = %q", result.IssuedTo)
	}
	if result.CourseTitle != "Distributed Systems" || result.CourseCreator != "Prof. K" {
		t.Errorf("course display = %q / %q", result.CourseTitle, result.CourseCreator)
	}
	if result.IssuedOn == nil {
		t.Error("IssuedOn missing")
	}
	if result.VerificationTimestamp == nil {
		t.Error("VerificationTimestamp missing")
	}
	if len(f.audit.entries) != 1 || !f.audit.entries[0].valid {
		t.Errorf("audit entries = %+v, want one success record", f.audit.entries)
	}
}

func TestVerify_UnknownIdentifier(t *testing.T) {
	f := newVerifyFixture(t)

	result := f.svc.Verify(context.Background(), "CERT-ZZZZZZ-QQQQQQ", "10.0.0.1")
	if result.Valid {
		t.Fatal("unknown identifier verified")
	}
	if result.Error != models.VerifyErrNotFound {
		t.Errorf("error = %q, want %q", result.Error, models.VerifyErrNotFound)
	}
}

func TestVerify_IncompleteEnrollmentNotFound(t *testing.T) {
	f := newVerifyFixture(t)

	// Degrade the backing enrollment below 100. The lookup excludes it,
	// so the identifier no longer resolves.
	row := f.store.rows[f.enrolID]
	row.Progress = 90

	result := f.svc.Verify(context.Background(), f.certID, "10.0.0.1")
	if result.Valid {
		t.Fatal("certificate for incomplete enrollment verified")
	}
	if result.Error != models.VerifyErrNotFound {
		t.Errorf("error = %q, want %q", result.Error, models.VerifyErrNotFound)
	}
}

func TestVerify_FutureCompletionFailsAuthenticity(t *testing.T) {
	f := newVerifyFixture(t)

	future := time.Now().Add(24 * time.Hour)
	f.store.rows[f.enrolID].CompletedAt = &future

	result := f.svc.Verify(context.Background(), f.certID, "10.0.0.1")
	if result.Valid {
		t.Fatal("future-dated completion verified")
	}
	if result.Error != models.VerifyErrAuthenticityFailed {
		t.Errorf("error = %q, want %q", result.Error, models.VerifyErrAuthenticityFailed)
	}
}

func TestVerify_RateLimited(t *testing.T) {
	f := newVerifyFixture(t)
	f.svc.limiter = middleware.NewRateLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if result := f.svc.Verify(context.Background(), f.certID, "10.0.0.9"); !result.Valid {
			t.Fatalf("attempt %d unexpectedly failed: %q", i, result.Error)
		}
	}

	result := f.svc.Verify(context.Background(), f.certID, "10.0.0.9")
	if result.Valid {
		t.Fatal("third attempt inside the window should be limited")
	}
	if result.Error != models.VerifyErrRateLimited {
		t.Errorf("error = %q, want %q", result.Error, models.VerifyErrRateLimited)
	}

	// A different caller is unaffected.
	if other := f.svc.Verify(context.Background(), f.certID, "10.0.0.10"); !other.Valid {
		t.Errorf("unrelated address was limited: %q", other.Error)
	}
}
