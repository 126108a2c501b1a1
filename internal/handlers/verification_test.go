package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/models"
	"byamn-backend/internal/services"
)

type stubCertLookup struct {
	enrollment *models.Enrollment
}

func (s *stubCertLookup) FindByCertificateID(_ context.Context, certificateID string) (*models.Enrollment, error) {
	if s.enrollment != nil && s.enrollment.CertificateID != nil && *s.enrollment.CertificateID == certificateID {
		return s.enrollment, nil
	}
	return nil, pgx.ErrNoRows
}

type stubUserStore struct{}

func (stubUserStore) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, pgx.ErrNoRows
}

type stubCourseStore struct{}

func (stubCourseStore) GetByID(context.Context, uuid.UUID) (*models.Course, error) {
	return nil, pgx.ErrNoRows
}

func postVerify(t *testing.T, handler *VerificationHandler, certificateID string) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(models.VerifyRequest{CertificateID: certificateID})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.4:51234"

	rr := httptest.NewRecorder()
	handler.Verify(rr, req)
	return rr
}

func TestVerifyEndpoint(t *testing.T) {
	certID := "CERT-ABC123-XY99Z0"
	holder := "Grad"
	completedAt := time.Now().Add(-time.Hour)
	lookup := &stubCertLookup{enrollment: &models.Enrollment{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		CourseID:      uuid.New(),
		Progress:      100,
		CompletedAt:   &completedAt,
		CertificateID: &certID,
		HolderName:    &holder,
	}}

	svc := services.NewVerificationService(lookup, stubUserStore{}, stubCourseStore{}, nil, nil)
	handler := NewVerificationHandler(svc)

	tests := []struct {
		name       string
		certID     string
		wantStatus int
		wantValid  bool
	}{
		{"valid certificate", certID, http.StatusOK, true},
		{"malformed identifier", "nope", http.StatusBadRequest, false},
		{"unknown identifier", "CERT-ZZZZZZ-QQQQQQ", http.StatusNotFound, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postVerify(t, handler, tc.certID)
			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}

			var result models.VerificationResult
			if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if result.Valid != tc.wantValid {
				t.Errorf("valid = %v, want %v", result.Valid, tc.wantValid)
			}
		})
	}
}

func TestVerifyEndpoint_BadBody(t *testing.T) {
	svc := services.NewVerificationService(&stubCertLookup{}, stubUserStore{}, stubCourseStore{}, nil, nil)
	handler := NewVerificationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", bytes.NewReader([]byte("{")))
	rr := httptest.NewRecorder()
	handler.Verify(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStatusForVerification(t *testing.T) {
	tests := []struct {
		result models.VerificationResult
		want   int
	}{
		{models.VerificationResult{Valid: true}, http.StatusOK},
		{models.VerificationResult{Error: models.VerifyErrInvalidFormat}, http.StatusBadRequest},
		{models.VerificationResult{Error: models.VerifyErrRateLimited}, http.StatusTooManyRequests},
		{models.VerificationResult{Error: models.VerifyErrNotFound}, http.StatusNotFound},
		{models.VerificationResult{Error: models.VerifyErrAuthenticityFailed}, http.StatusNotFound},
		{models.VerificationResult{Error: models.VerifyErrServiceUnavailable}, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		if got := statusForVerification(tc.result); got != tc.want {
			t.Errorf("statusForVerification(%+v) = %d, want %d", tc.result, got, tc.want)
		}
	}
}
