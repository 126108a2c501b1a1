package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/models"
)

// In-memory stand-ins for the repositories. They hand out copies the
// way a row scan would, so a caller's mutation only sticks after Update.

type fakeEnrollmentStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Enrollment

	createCalls int
	lookupCalls int
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{rows: make(map[uuid.UUID]*models.Enrollment)}
}

func cloneEnrollment(e *models.Enrollment) *models.Enrollment {
	c := *e
	c.CompletedLessons = append([]uuid.UUID(nil), e.CompletedLessons...)
	return &c
}

func (f *fakeEnrollmentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneEnrollment(e), nil
}

func (f *fakeEnrollmentStore) GetByUserAndCourse(_ context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.UserID == userID && e.CourseID == courseID {
			return cloneEnrollment(e), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEnrollmentStore) Create(_ context.Context, e *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	for _, existing := range f.rows {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return pgx.ErrTxClosed // any non-nil error, unique violation stand-in
		}
	}
	e.ID = uuid.New()
	e.EnrolledAt = time.Now()
	e.LastAccessedAt = time.Now()
	f.rows[e.ID] = cloneEnrollment(e)
	return nil
}

func (f *fakeEnrollmentStore) Update(_ context.Context, e *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.rows[e.ID] = cloneEnrollment(e)
	return nil
}

func (f *fakeEnrollmentStore) TouchLastAccessed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.rows[id]; ok {
		e.LastAccessedAt = time.Now()
	}
	return nil
}

func (f *fakeEnrollmentStore) FindByCertificateID(_ context.Context, certificateID string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	for _, e := range f.rows {
		if e.CertificateID != nil && *e.CertificateID == certificateID && e.Progress == 100 {
			return cloneEnrollment(e), nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeCourseStore struct {
	courses map[uuid.UUID]*models.Course
}

func (f *fakeCourseStore) GetByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, pgx.ErrNoRows
}

type auditEntry struct {
	certificateID string
	valid         bool
	reason        string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (f *fakeAudit) Record(_ context.Context, certificateID string, valid bool, reason, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, auditEntry{certificateID, valid, reason})
	return nil
}

type memScratchStore struct {
	mu    sync.Mutex
	items map[string]string
}

func newMemScratchStore() *memScratchStore {
	return &memScratchStore{items: make(map[string]string)}
}

func (m *memScratchStore) GetItem(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *memScratchStore) SetItem(_ context.Context, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

func (m *memScratchStore) RemoveItem(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}
