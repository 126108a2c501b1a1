package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/models"
)

// LessonStore is the slice of the course repository the player needs.
type LessonStore interface {
	GetLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*models.Lesson, error)
	CountLessons(ctx context.Context, courseID uuid.UUID) (int, error)
}

// LessonView is what the player screen renders: the lesson, the
// caller's enrollment and the current gating decision.
type LessonView struct {
	Lesson         *models.Lesson     `json:"lesson"`
	Enrollment     *models.Enrollment `json:"enrollment"`
	WatchedSeconds float64            `json:"watched_seconds"`
	Gating         GatingState        `json:"gating"`
}

// PlayerService orchestrates a lesson session: the tracker accumulates
// watch time, the gating engine decides availability, and the ledger is
// only ever called once gating has been re-validated against a freshly
// projected watched value.
type PlayerService struct {
	enrollments *EnrollmentService
	lessons     LessonStore
	tracker     *WatchTracker
	publisher   *ProgressPublisher
}

func NewPlayerService(enrollments *EnrollmentService, lessons LessonStore, tracker *WatchTracker, publisher *ProgressPublisher) *PlayerService {
	return &PlayerService{
		enrollments: enrollments,
		lessons:     lessons,
		tracker:     tracker,
		publisher:   publisher,
	}
}

// ViewLesson opens a lesson: ensures the enrollment exists, restores the
// watch counter from the cache and reports the gating state. The
// last-accessed touch is best-effort and never blocks the view.
func (s *PlayerService) ViewLesson(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*LessonView, error) {
	lesson, err := s.lessons.GetLesson(ctx, courseID, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Lesson not found"}
		}
		return nil, err
	}

	enrollment, err := s.enrollments.EnsureEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	s.enrollments.TouchLastAccessed(ctx, enrollment.ID)

	watched := s.tracker.Load(ctx, userID, courseID, lessonID)
	gating := GatingFor(float64(lesson.MinWatchTimeSeconds), watched, enrollment.HasCompleted(lessonID))

	return &LessonView{
		Lesson:         lesson,
		Enrollment:     enrollment,
		WatchedSeconds: watched,
		Gating:         gating,
	}, nil
}

// WatchEvent consumes a player event ("play", "pause", "ended", "tick")
// and returns the refreshed gating snapshot. Out-of-order events are
// tolerated: duplicate plays and pauses without a play are no-ops.
func (s *PlayerService) WatchEvent(ctx context.Context, userID, courseID, lessonID uuid.UUID, event string) (*LessonView, error) {
	lesson, err := s.lessons.GetLesson(ctx, courseID, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Lesson not found"}
		}
		return nil, err
	}

	enrollment, err := s.enrollments.EnsureEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	var watched float64
	switch event {
	case "play":
		s.tracker.Play(ctx, userID, courseID, lessonID)
		watched = s.tracker.WatchedSeconds(userID, lessonID)
	case "pause", "ended":
		watched = s.tracker.PauseOrEnd(ctx, userID, lessonID)
	case "tick":
		watched = s.tracker.Tick(ctx, userID, lessonID)
	default:
		return nil, &ValidationError{Fields: map[string]string{"event": "event must be play, pause, ended or tick"}}
	}

	gating := GatingFor(float64(lesson.MinWatchTimeSeconds), watched, enrollment.HasCompleted(lessonID))

	if s.publisher != nil {
		s.publisher.Publish(ctx, userID, models.WSMessage{
			Type: "gating",
			Payload: models.GatingUpdate{
				CourseID:         courseID,
				LessonID:         lessonID,
				WatchedSeconds:   watched,
				State:            gating.Label(),
				RemainingSeconds: gating.RemainingSeconds,
			},
		})
	}

	return &LessonView{
		Lesson:         lesson,
		Enrollment:     enrollment,
		WatchedSeconds: watched,
		Gating:         gating,
	}, nil
}

// CompleteLesson records a completion. Gating is re-validated here with
// a freshly projected watched value: the check at button-enable time is
// advisory, this one is authoritative. A locked lesson returns a
// GatingError and the ledger is never called.
func (s *PlayerService) CompleteLesson(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.Enrollment, error) {
	lesson, err := s.lessons.GetLesson(ctx, courseID, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Lesson not found"}
		}
		return nil, err
	}

	enrollment, err := s.enrollments.EnsureEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	if enrollment.HasCompleted(lessonID) {
		return enrollment, nil
	}

	// Load rather than WatchedSeconds: the in-memory session may be gone
	// after a restart while the cached counter survives.
	watched := s.tracker.Load(ctx, userID, courseID, lessonID)
	gating := GatingFor(float64(lesson.MinWatchTimeSeconds), watched, false)
	if gating.Locked() {
		return nil, &GatingError{RemainingSeconds: gating.RemainingSeconds}
	}

	total, err := s.lessons.CountLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}

	updated, err := s.enrollments.MarkLessonComplete(ctx, enrollment.ID, lessonID, total)
	if err != nil {
		return nil, err
	}

	// Completion recorded: the cached counter has served its purpose.
	s.tracker.Finish(ctx, userID, lessonID)

	if s.publisher != nil {
		s.publisher.Publish(ctx, userID, models.WSMessage{
			Type: "progress",
			Payload: models.ProgressUpdate{
				CourseID:   courseID,
				LessonID:   lessonID,
				Progress:   updated.Progress,
				CourseDone: updated.Progress == 100,
				TotalDone:  len(updated.CompletedLessons),
				TotalCount: total,
			},
		})
	}

	return updated, nil
}
