package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment links one user to one course and is the single source of
// truth for progress. Progress is derived from CompletedLessons and is
// never set directly; CompletedAt is stamped once, when progress first
// reaches 100. CertificateID is assigned lazily on the first certificate
// request and is immutable afterwards.
type Enrollment struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	CourseID         uuid.UUID   `json:"course_id"`
	CompletedLessons []uuid.UUID `json:"completed_lessons"`
	Progress         int         `json:"progress"` // 0-100
	EnrolledAt       time.Time   `json:"enrolled_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	LastAccessedAt   time.Time   `json:"last_accessed_at"`

	CertificateID *string `json:"certificate_id,omitempty"`

	// Optional display-name override chosen by the student for their
	// certificate. Does not affect an already-assigned CertificateID.
	CertificateName *string `json:"certificate_name,omitempty"`

	// Identity snapshot captured at issuance time, consulted by the
	// verifier so verification works without the original session.
	HolderName  *string `json:"holder_name,omitempty"`
	HolderEmail *string `json:"holder_email,omitempty"`
}

// HasCompleted reports membership in the completed-lesson set.
func (e *Enrollment) HasCompleted(lessonID uuid.UUID) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// EnrollmentWithCourse is the "my courses" row shape.
type EnrollmentWithCourse struct {
	Enrollment
	CourseTitle        string  `json:"course_title"`
	CourseInstructor   string  `json:"course_instructor"`
	CourseThumbnailURL *string `json:"course_thumbnail_url"`
	TotalLessons       int     `json:"total_lessons"`
}
