// Package progress tracks what a user has done inside a course: their
// enrollment, which lessons they completed, and the derived completion
// percentage stored back on the enrollment row.
package progress

import "time"

// Enrollment ties a user to a course. ProgressPercent is denormalized from
// lesson progress whenever a lesson is marked complete or incomplete, so
// course lists don't recompute it per row.
type Enrollment struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	CourseID        string     `json:"course_id"`
	ProgressPercent int        `json:"progress_percent"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// EnrolledCourse is an enrollment joined with catalog fields for the
// my-courses listing.
type EnrolledCourse struct {
	Enrollment
	CourseTitle string `json:"course_title"`
	CourseSlug  string `json:"course_slug"`
	CoverImage  string `json:"cover_image,omitempty"`
}

// LessonProgress records a single lesson's completion state for a user.
type LessonProgress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	LessonID    string     `json:"lesson_id"`
	CourseID    string     `json:"course_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CourseStats summarizes a user's completion within one course.
type CourseStats struct {
	TotalLessons       int `json:"totalLessons"`
	CompletedLessons   int `json:"completedLessons"`
	ProgressPercentage int `json:"progressPercentage"`
}
