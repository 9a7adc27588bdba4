// Package courses provides the course catalog: categories, published
// courses, and the section/lesson hierarchy that makes up course content.
// Enrollment and progress tracking live in the progress plugin.
package courses

import "time"

// Category groups courses for browsing. Only active categories are listed.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Instructor is the denormalized author info attached to a course listing.
type Instructor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"-"` // Internal only, never serialized.
}

// Course is a published course as shown in the catalog.
type Course struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Description     string      `json:"description"`
	CoverImage      string      `json:"cover_image,omitempty"`
	Status          string      `json:"status"`
	IsFree          bool        `json:"is_free"`
	EnrollmentCount int         `json:"enrollment_count"`
	WhatWillLearn   []string    `json:"what_will_learn,omitempty"`
	Requirements    []string    `json:"requirements,omitempty"`
	Category        *Category   `json:"category,omitempty"`
	Instructor      *Instructor `json:"instructor,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Section is an ordered group of lessons within a course.
type Section struct {
	ID          string   `json:"id"`
	CourseID    string   `json:"course_id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	OrderIndex  int      `json:"order_index"`
	IsActive    bool     `json:"is_active"`
	Lessons     []Lesson `json:"lessons"`
}

// Lesson is a single unit of course content. Content is only included in
// detail responses for lessons the caller may read (free lessons, or any
// lesson once enrolled -- enforced by the handler).
type Lesson struct {
	ID                string `json:"id"`
	SectionID         string `json:"section_id"`
	Title             string `json:"title"`
	Slug              string `json:"slug"`
	Content           string `json:"content,omitempty"`
	OrderIndex        int    `json:"order_index"`
	EstimatedDuration int    `json:"estimated_duration"`
	IsFree            bool   `json:"is_free"`
	IsActive          bool   `json:"is_active"`
}

// CourseDetail is a course plus its full content hierarchy.
type CourseDetail struct {
	Course   Course    `json:"course"`
	Sections []Section `json:"sections"`
}
