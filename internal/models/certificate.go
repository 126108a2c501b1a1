package models

import "time"

// Certificate is computed on demand from an enrollment plus its course;
// only the identifier and holder snapshot are persisted.
type Certificate struct {
	CertificateID string    `json:"certificate_id"`
	IssuedTo      string    `json:"issued_to"`
	CourseTitle   string    `json:"course_title"`
	Instructor    string    `json:"instructor"`
	IssuedOn      time.Time `json:"issued_on"`
	Status        string    `json:"status"`     // always "Active"
	Expiration    string    `json:"expiration"` // always "Lifetime"
}

type VerifyRequest struct {
	CertificateID string `json:"certificate_id"`
}

// Verification failure reasons, recorded verbatim in the audit log.
const (
	VerifyErrInvalidFormat      = "INVALID_FORMAT"
	VerifyErrRateLimited        = "RATE_LIMITED"
	VerifyErrNotFound           = "NOT_FOUND"
	VerifyErrAuthenticityFailed = "AUTHENTICITY_FAILED"
	VerifyErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

type VerificationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`

	CertificateID         string     `json:"certificate_id,omitempty"`
	IssuedTo              string     `json:"issued_to,omitempty"`
	CourseTitle           string     `json:"course_title,omitempty"`
	CourseCreator         string     `json:"course_creator,omitempty"`
	IssuedOn              *time.Time `json:"issued_on,omitempty"`
	Status                string     `json:"status,omitempty"`
	Expiration            string     `json:"expiration,omitempty"`
	VerificationTimestamp *time.Time `json:"verification_timestamp,omitempty"`
}

type SetCertificateNameRequest struct {
	Name string `json:"name"`
}
