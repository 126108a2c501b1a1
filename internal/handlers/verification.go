package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"byamn-backend/internal/models"
	"byamn-backend/internal/services"
)

// VerificationHandler is the public certificate check. No auth: anyone
// holding a certificate identifier may confirm it.
type VerificationHandler struct {
	verifier *services.VerificationService
}

func NewVerificationHandler(verifier *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verifier: verifier}
}

func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result := h.verifier.Verify(r.Context(), req.CertificateID, clientIP(r))
	writeJSON(w, statusForVerification(result), result)
}

// The result always carries the full outcome in the body; the status
// code just mirrors it for clients that only look at status.
func statusForVerification(result models.VerificationResult) int {
	if result.Valid {
		return http.StatusOK
	}
	switch result.Error {
	case models.VerifyErrInvalidFormat:
		return http.StatusBadRequest
	case models.VerifyErrRateLimited:
		return http.StatusTooManyRequests
	case models.VerifyErrNotFound, models.VerifyErrAuthenticityFailed:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
