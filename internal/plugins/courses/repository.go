package courses

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// CourseRepository defines the data access contract for catalog operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type CourseRepository interface {
	// ListCategories returns active categories ordered by sort_order.
	ListCategories(ctx context.Context) ([]Category, error)

	// ListCourses returns published courses, newest first, up to limit.
	ListCourses(ctx context.Context, limit int) ([]Course, error)

	// ListCoursesByCategory returns published courses in a category slug.
	ListCoursesByCategory(ctx context.Context, categorySlug string, limit int) ([]Course, error)

	// FindBySlug returns a published course by slug, or apperror.NotFound.
	FindBySlug(ctx context.Context, slug string) (*Course, error)

	// ListSections returns a course's active sections ordered by
	// order_index, without lessons.
	ListSections(ctx context.Context, courseID string) ([]Section, error)

	// ListLessons returns the active lessons for the given sections,
	// ordered by order_index.
	ListLessons(ctx context.Context, sectionIDs []string) ([]Lesson, error)

	// ListSlugs returns the slugs of all published courses. Used by the
	// sitemap generator.
	ListSlugs(ctx context.Context) ([]string, error)

	// CountLessons returns the number of active lessons in a course.
	CountLessons(ctx context.Context, courseID string) (int, error)
}

// courseRepository implements CourseRepository with MariaDB queries.
type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new repository backed by the given DB pool.
func NewCourseRepository(db *sql.DB) CourseRepository {
	return &courseRepository{db: db}
}

// courseColumns is the shared SELECT list for course rows joined with their
// category and instructor.
const courseColumns = `
	c.id, c.title, c.slug, c.description, c.cover_image, c.status, c.is_free,
	c.enrollment_count, c.what_will_learn, c.requirements,
	c.created_at, c.updated_at,
	cat.id, cat.name, cat.slug,
	i.id, i.first_name, i.last_name, i.email`

const courseJoins = `
	FROM courses c
	LEFT JOIN categories cat ON cat.id = c.category_id
	LEFT JOIN instructors i ON i.id = c.instructor_id`

func (r *courseRepository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `SELECT id, name, slug, sort_order, is_active, created_at
	          FROM categories WHERE is_active = 1 ORDER BY sort_order`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.SortOrder, &cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *courseRepository) ListCourses(ctx context.Context, limit int) ([]Course, error) {
	query := `SELECT` + courseColumns + courseJoins + `
	          WHERE c.status = 'published'
	          ORDER BY c.created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

func (r *courseRepository) ListCoursesByCategory(ctx context.Context, categorySlug string, limit int) ([]Course, error) {
	query := `SELECT` + courseColumns + courseJoins + `
	          WHERE c.status = 'published' AND cat.slug = ?
	          ORDER BY c.created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, categorySlug, limit)
	if err != nil {
		return nil, fmt.Errorf("querying courses by category: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

func (r *courseRepository) FindBySlug(ctx context.Context, slug string) (*Course, error) {
	query := `SELECT` + courseColumns + courseJoins + `
	          WHERE c.status = 'published' AND c.slug = ?`

	row := r.db.QueryRowContext(ctx, query, slug)
	course, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("querying course by slug: %w", err)
	}
	return course, nil
}

func (r *courseRepository) ListSections(ctx context.Context, courseID string) ([]Section, error) {
	query := `SELECT id, course_id, title, slug, description, order_index, is_active
	          FROM course_sections
	          WHERE course_id = ? AND is_active = 1
	          ORDER BY order_index`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var s Section
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Title, &s.Slug, &desc, &s.OrderIndex, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		s.Description = desc.String
		s.Lessons = []Lesson{}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *courseRepository) ListLessons(ctx context.Context, sectionIDs []string) ([]Lesson, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(sectionIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := `SELECT id, section_id, title, slug, content, order_index,
	                 estimated_duration, is_free, is_active
	          FROM lessons
	          WHERE section_id IN (` + placeholders + `) AND is_active = 1
	          ORDER BY order_index`

	args := make([]any, len(sectionIDs))
	for i, id := range sectionIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		var l Lesson
		var content sql.NullString
		if err := rows.Scan(&l.ID, &l.SectionID, &l.Title, &l.Slug, &content,
			&l.OrderIndex, &l.EstimatedDuration, &l.IsFree, &l.IsActive); err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		l.Content = content.String
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *courseRepository) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slug FROM courses WHERE status = 'published' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying course slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning course slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

func (r *courseRepository) CountLessons(ctx context.Context, courseID string) (int, error) {
	query := `SELECT COUNT(*)
	          FROM lessons l
	          JOIN course_sections s ON s.id = l.section_id
	          WHERE s.course_id = ? AND l.is_active = 1 AND s.is_active = 1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting lessons: %w", err)
	}
	return count, nil
}

// --- Scanning helpers ---

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*Course, error) {
	var c Course
	var coverImage, whatWillLearn, requirements sql.NullString
	var catID, catName, catSlug sql.NullString
	var insID, insFirst, insLast, insEmail sql.NullString

	err := row.Scan(
		&c.ID, &c.Title, &c.Slug, &c.Description, &coverImage, &c.Status, &c.IsFree,
		&c.EnrollmentCount, &whatWillLearn, &requirements,
		&c.CreatedAt, &c.UpdatedAt,
		&catID, &catName, &catSlug,
		&insID, &insFirst, &insLast, &insEmail,
	)
	if err != nil {
		return nil, err
	}

	c.CoverImage = coverImage.String
	c.WhatWillLearn = decodeStringList(whatWillLearn)
	c.Requirements = decodeStringList(requirements)

	if catID.Valid {
		c.Category = &Category{ID: catID.String, Name: catName.String, Slug: catSlug.String}
	}
	if insID.Valid {
		c.Instructor = &Instructor{
			ID:        insID.String,
			FirstName: insFirst.String,
			LastName:  insLast.String,
			Email:     insEmail.String,
		}
	}

	return &c, nil
}

func scanCourses(rows *sql.Rows) ([]Course, error) {
	var courses []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

// decodeStringList parses a JSON array column ("what_will_learn",
// "requirements") into a string slice. Malformed or NULL values decode to nil
// rather than failing the whole row.
func decodeStringList(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(col.String), &list); err != nil {
		return nil
	}
	return list
}
