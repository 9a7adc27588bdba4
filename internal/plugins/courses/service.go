package courses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jadihebat/platform/internal/apperror"
	"github.com/jadihebat/platform/internal/images"
)

// defaultCatalogLimit bounds unqualified catalog listings.
const defaultCatalogLimit = 24

// CourseService defines the business logic contract for the catalog.
// Handlers call these methods -- they never touch the repository directly.
type CourseService interface {
	// GetCategories returns the active categories for browse navigation.
	GetCategories(ctx context.Context) ([]Category, error)

	// GetCatalog returns published courses, optionally filtered by
	// category slug. limit <= 0 uses the default.
	GetCatalog(ctx context.Context, categorySlug string, limit int) ([]Course, error)

	// GetCourseDetail returns a course with its full section/lesson
	// hierarchy. Lesson content is stripped unless includeContent is set
	// (the handler sets it for enrolled users; free lessons always keep
	// their content).
	GetCourseDetail(ctx context.Context, slug string, includeContent bool) (*CourseDetail, error)

	// ListSlugs returns all published course slugs for the sitemap.
	ListSlugs(ctx context.Context) ([]string, error)

	// ListCategorySlugs returns active category slugs for the sitemap.
	ListCategorySlugs(ctx context.Context) ([]string, error)

	// CountLessons returns the number of active lessons in a course.
	CountLessons(ctx context.Context, courseID string) (int, error)
}

// courseService implements CourseService.
type courseService struct {
	repo CourseRepository
	imgs *images.Builder
}

// NewCourseService creates a new catalog service. Cover images are stored as
// asset IDs or full URLs; imgs resolves them to CDN URLs on the way out.
func NewCourseService(repo CourseRepository, imgs *images.Builder) CourseService {
	return &courseService{repo: repo, imgs: imgs}
}

func (s *courseService) GetCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing categories: %w", err))
	}
	return categories, nil
}

func (s *courseService) GetCatalog(ctx context.Context, categorySlug string, limit int) ([]Course, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultCatalogLimit
	}

	var (
		list []Course
		err  error
	)
	if categorySlug != "" {
		list, err = s.repo.ListCoursesByCategory(ctx, categorySlug, limit)
	} else {
		list, err = s.repo.ListCourses(ctx, limit)
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing courses: %w", err))
	}
	for i := range list {
		list[i].CoverImage = s.imgs.URL(list[i].CoverImage)
	}
	return list, nil
}

func (s *courseService) GetCourseDetail(ctx context.Context, slug string, includeContent bool) (*CourseDetail, error) {
	course, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("course not found")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("finding course: %w", err))
	}

	sections, err := s.repo.ListSections(ctx, course.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing sections: %w", err))
	}

	sectionIDs := make([]string, len(sections))
	for i, sec := range sections {
		sectionIDs[i] = sec.ID
	}

	lessons, err := s.repo.ListLessons(ctx, sectionIDs)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing lessons: %w", err))
	}

	// Attach lessons to their sections, withholding paid content from
	// visitors who aren't entitled to it.
	bySection := make(map[string][]Lesson, len(sections))
	for _, lesson := range lessons {
		if !includeContent && !lesson.IsFree {
			lesson.Content = ""
		}
		bySection[lesson.SectionID] = append(bySection[lesson.SectionID], lesson)
	}
	for i := range sections {
		if ls, ok := bySection[sections[i].ID]; ok {
			sections[i].Lessons = ls
		}
	}

	course.CoverImage = s.imgs.URL(course.CoverImage)

	return &CourseDetail{Course: *course, Sections: sections}, nil
}

func (s *courseService) ListSlugs(ctx context.Context) ([]string, error) {
	slugs, err := s.repo.ListSlugs(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing course slugs: %w", err))
	}
	return slugs, nil
}

func (s *courseService) ListCategorySlugs(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing category slugs: %w", err))
	}
	slugs := make([]string, 0, len(categories))
	for _, c := range categories {
		slugs = append(slugs, c.Slug)
	}
	return slugs, nil
}

func (s *courseService) CountLessons(ctx context.Context, courseID string) (int, error) {
	count, err := s.repo.CountLessons(ctx, courseID)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("counting lessons: %w", err))
	}
	return count, nil
}
