package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/middleware"
	"byamn-backend/internal/models"
	"byamn-backend/internal/repository"
	"byamn-backend/internal/services"
)

type CertificateHandler struct {
	enrollments *repository.EnrollmentRepo
	certs       *services.CertificateService
}

func NewCertificateHandler(enrollments *repository.EnrollmentRepo, certs *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{enrollments: enrollments, certs: certs}
}

func (h *CertificateHandler) enrollmentFor(w http.ResponseWriter, r *http.Request) (*models.Enrollment, bool) {
	userID := middleware.GetUserID(r.Context())
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return nil, false
	}

	enrollment, err := h.enrollments.GetByUserAndCourse(r.Context(), userID, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Enrollment not found", r))
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load enrollment", r))
		return nil, false
	}
	return enrollment, true
}

// Get returns the certificate for the caller's completed course,
// assigning the identifier on first request. Repeated calls return the
// same certificate.
func (h *CertificateHandler) Get(w http.ResponseWriter, r *http.Request) {
	enrollment, ok := h.enrollmentFor(w, r)
	if !ok {
		return
	}

	cert, err := h.certs.Certificate(r.Context(), enrollment.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"certificate": cert})
}

func (h *CertificateHandler) SetName(w http.ResponseWriter, r *http.Request) {
	enrollment, ok := h.enrollmentFor(w, r)
	if !ok {
		return
	}

	var req models.SetCertificateNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	updated, err := h.certs.SetCustomCertificateName(r.Context(), enrollment.ID, req.Name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"certificate_name": updated.CertificateName,
	})
}
