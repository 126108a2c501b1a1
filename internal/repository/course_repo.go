package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"byamn-backend/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	c.ID = uuid.New()

	query := `INSERT INTO courses (id, title, description, instructor_name, thumbnail_url, is_published)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.Title, c.Description, c.InstructorName, c.ThumbnailURL, c.IsPublished,
	).Scan(&c.CreatedAt)
}

func (r *CourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c := &models.Course{}
	query := `SELECT id, title, description, instructor_name, thumbnail_url, is_published, created_at
		FROM courses WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Description, &c.InstructorName, &c.ThumbnailURL,
		&c.IsPublished, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetWithLessons loads a course plus its lessons ordered by position.
// Lesson order is load-bearing: it drives "next lesson" navigation and
// the progress denominator.
func (r *CourseRepo) GetWithLessons(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, position, title, video_url, duration_seconds, min_watch_time_seconds, created_at
		FROM lessons WHERE course_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		l := &models.Lesson{}
		if err := rows.Scan(
			&l.ID, &l.CourseID, &l.Position, &l.Title, &l.VideoURL,
			&l.DurationSeconds, &l.MinWatchTimeSeconds, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		c.Lessons = append(c.Lessons, l)
	}
	return c, rows.Err()
}

func (r *CourseRepo) ListPublished(ctx context.Context) ([]*models.Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, instructor_name, thumbnail_url, is_published, created_at
		FROM courses WHERE is_published = TRUE ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		c := &models.Course{}
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.InstructorName, &c.ThumbnailURL,
			&c.IsPublished, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *CourseRepo) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE courses SET is_published = $1 WHERE id = $2`, published, id)
	return err
}

func (r *CourseRepo) GetLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*models.Lesson, error) {
	l := &models.Lesson{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, position, title, video_url, duration_seconds, min_watch_time_seconds, created_at
		FROM lessons WHERE id = $1 AND course_id = $2`, lessonID, courseID).Scan(
		&l.ID, &l.CourseID, &l.Position, &l.Title, &l.VideoURL,
		&l.DurationSeconds, &l.MinWatchTimeSeconds, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *CourseRepo) CountLessons(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lessons WHERE course_id = $1`, courseID).Scan(&n)
	return n, err
}

// AddLesson appends a lesson at the next position for the course.
func (r *CourseRepo) AddLesson(ctx context.Context, l *models.Lesson) error {
	l.ID = uuid.New()

	query := `
		INSERT INTO lessons (id, course_id, position, title, video_url, duration_seconds, min_watch_time_seconds)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM lessons WHERE course_id = $2), $3, $4, $5, $6)
		RETURNING position, created_at`

	return r.pool.QueryRow(ctx, query,
		l.ID, l.CourseID, l.Title, l.VideoURL, l.DurationSeconds, l.MinWatchTimeSeconds,
	).Scan(&l.Position, &l.CreatedAt)
}
