package blog

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jadihebat/platform/internal/apperror"
	"github.com/jadihebat/platform/internal/images"
	"github.com/jadihebat/platform/internal/sanitize"
)

const (
	defaultPageSize   = 10
	maxPageSize       = 50
	relatedLimit      = 3
	searchResultLimit = 10
)

// BlogService defines the business logic contract for the blog. Article
// bodies pass through markdown rendering and HTML sanitization before they
// reach a client; raw stored content is never served.
type BlogService interface {
	// ListArticles returns a page of articles with pagination metadata.
	// Page bodies are omitted; only the detail endpoint renders content.
	ListArticles(ctx context.Context, page, limit int) (*ArticlePage, error)

	// GetArticle returns one article with rendered content and its
	// related articles.
	GetArticle(ctx context.Context, slug string) (*Article, []Article, error)

	// ListByCategory returns a page of articles in a category.
	ListByCategory(ctx context.Context, categorySlug string, page, limit int) ([]Article, error)

	// ListByTag returns articles carrying a tag.
	ListByTag(ctx context.Context, tag string) ([]Article, error)

	// Search returns articles matching a free-text query.
	Search(ctx context.Context, query string) ([]Article, error)

	// ListCategories returns the active categories.
	ListCategories(ctx context.Context) ([]Category, error)

	// ListTags returns all tags.
	ListTags(ctx context.Context) ([]Tag, error)

	// ListSlugs returns slug -> last modified date, for the sitemap.
	ListSlugs(ctx context.Context) (map[string]string, error)

	// ListCategorySlugs returns active category slugs for the sitemap.
	ListCategorySlugs(ctx context.Context) ([]string, error)
}

// blogService implements BlogService.
type blogService struct {
	repo     BlogRepository
	markdown goldmark.Markdown
	imgs     *images.Builder
	logger   *slog.Logger
}

// NewBlogService creates a new blog service. imgs resolves stored cover
// image IDs to CDN URLs.
func NewBlogService(repo BlogRepository, imgs *images.Builder, logger *slog.Logger) BlogService {
	return &blogService{
		repo:     repo,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		imgs:     imgs,
		logger:   logger,
	}
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func (s *blogService) ListArticles(ctx context.Context, page, limit int) (*ArticlePage, error) {
	page, limit = clampPage(page, limit)

	total, err := s.repo.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting articles: %w", err)
	}

	articles, err := s.repo.ListArticles(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []Article{}
	}

	totalPages := (total + limit - 1) / limit
	return &ArticlePage{
		Articles:    s.resolveCovers(articles),
		TotalCount:  total,
		TotalPages:  totalPages,
		Page:        page,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

func (s *blogService) GetArticle(ctx context.Context, slug string) (*Article, []Article, error) {
	article, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, apperror.NewNotFound("article not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("finding article %s: %w", slug, err)
	}

	article.SafeContent = s.renderContent(article.Content)
	article.CoverImage = s.imgs.URL(article.CoverImage)

	var related []Article
	if article.CategorySlug != "" {
		related, err = s.repo.ListRelated(ctx, article.CategorySlug, article.ID, relatedLimit)
		if err != nil {
			// related articles are decorative; the article still serves
			s.logger.Warn("failed to load related articles",
				slog.String("slug", slug), slog.Any("error", err))
			related = nil
		}
	}
	if related == nil {
		related = []Article{}
	}
	return article, s.resolveCovers(related), nil
}

func (s *blogService) ListByCategory(ctx context.Context, categorySlug string, page, limit int) ([]Article, error) {
	page, limit = clampPage(page, limit)
	articles, err := s.repo.ListByCategory(ctx, categorySlug, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []Article{}
	}
	return s.resolveCovers(articles), nil
}

func (s *blogService) ListByTag(ctx context.Context, tag string) ([]Article, error) {
	articles, err := s.repo.ListByTag(ctx, tag, searchResultLimit)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []Article{}
	}
	return s.resolveCovers(articles), nil
}

func (s *blogService) Search(ctx context.Context, query string) ([]Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Article{}, nil
	}
	articles, err := s.repo.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []Article{}
	}
	return s.resolveCovers(articles), nil
}

func (s *blogService) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *blogService) ListTags(ctx context.Context) ([]Tag, error) {
	return s.repo.ListTags(ctx)
}

func (s *blogService) ListSlugs(ctx context.Context) (map[string]string, error) {
	return s.repo.ListSlugs(ctx)
}

func (s *blogService) ListCategorySlugs(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(categories))
	for _, c := range categories {
		slugs = append(slugs, c.Slug)
	}
	return slugs, nil
}

// renderContent turns a stored body into sanitized HTML. Bodies that look
// like markdown are rendered first; everything is sanitized on the way out,
// markdown or not.
func (s *blogService) renderContent(raw string) string {
	html := raw
	if looksLikeMarkdown(raw) {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(raw), &buf); err != nil {
			s.logger.Warn("markdown rendering failed, serving raw body", slog.Any("error", err))
		} else {
			html = buf.String()
		}
	}
	return sanitize.HTML(html)
}

// resolveCovers maps stored cover image IDs to full CDN URLs in place.
func (s *blogService) resolveCovers(articles []Article) []Article {
	for i := range articles {
		articles[i].CoverImage = s.imgs.URL(articles[i].CoverImage)
	}
	return articles
}

func looksLikeMarkdown(content string) bool {
	return strings.ContainsAny(content, "#*[") || strings.Contains(content, "```")
}
