package blog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// BlogRepository defines the data access contract for blog posts,
// categories and tags. All SQL lives in the concrete implementation.
type BlogRepository interface {
	// ListArticles returns published articles newest first.
	ListArticles(ctx context.Context, limit, offset int) ([]Article, error)

	// CountArticles returns the number of published articles.
	CountArticles(ctx context.Context) (int, error)

	// FindBySlug returns one article, sql.ErrNoRows when absent.
	FindBySlug(ctx context.Context, slug string) (*Article, error)

	// ListByCategory returns published articles in a category.
	ListByCategory(ctx context.Context, categorySlug string, limit, offset int) ([]Article, error)

	// ListByTag returns published articles carrying a tag, matched by
	// tag slug or name.
	ListByTag(ctx context.Context, tag string, limit int) ([]Article, error)

	// Search matches the query against title, excerpt and content.
	Search(ctx context.Context, query string, limit int) ([]Article, error)

	// ListRelated returns recent articles sharing a category, excluding
	// the article itself.
	ListRelated(ctx context.Context, categorySlug, excludeID string, limit int) ([]Article, error)

	// ListCategories returns the active categories.
	ListCategories(ctx context.Context) ([]Category, error)

	// ListTags returns all tags.
	ListTags(ctx context.Context) ([]Tag, error)

	// ListSlugs returns every published article slug with its publish
	// time, for the sitemap.
	ListSlugs(ctx context.Context) (map[string]string, error)
}

// blogRepository implements BlogRepository with MariaDB queries.
type blogRepository struct {
	db *sql.DB
}

// NewBlogRepository creates a new repository backed by the given DB pool.
func NewBlogRepository(db *sql.DB) BlogRepository {
	return &blogRepository{db: db}
}

// articleColumns and articleJoins are shared across every article query so
// the scan order stays in one place. Tags arrive as a single
// GROUP_CONCAT'd column of id|name|slug triples.
const (
	articleColumns = `bp.id, bp.title, bp.slug, COALESCE(bp.excerpt, ''), bp.content,
	       COALESCE(bp.cover_image, ''), COALESCE(u.name, ''),
	       COALESCE(bc.name, ''), COALESCE(bc.slug, ''),
	       COALESCE(bp.published_at, bp.created_at), bp.updated_at,
	       COALESCE(GROUP_CONCAT(CONCAT_WS('|', bt.id, bt.name, bt.slug)), '')`

	articleJoins = `FROM blog_posts bp
	       LEFT JOIN blog_categories bc ON bp.blog_category_id = bc.id
	       LEFT JOIN users u ON bp.author_id = u.id
	       LEFT JOIN blog_post_tags bpt ON bp.id = bpt.post_id
	       LEFT JOIN blog_tags bt ON bpt.tag_id = bt.id`
)

// scanArticle reads one row produced by articleColumns.
func scanArticle(scanner interface{ Scan(...any) error }) (Article, error) {
	var a Article
	var updatedAt sql.NullTime
	var tagsConcat string

	err := scanner.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content,
		&a.CoverImage, &a.AuthorName,
		&a.CategoryName, &a.CategorySlug,
		&a.PublishedAt, &updatedAt, &tagsConcat,
	)
	if err != nil {
		return a, err
	}
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	a.Tags = decodeTags(tagsConcat)
	return a, nil
}

// decodeTags splits a GROUP_CONCAT of id|name|slug triples.
func decodeTags(concat string) []Tag {
	tags := []Tag{}
	if concat == "" {
		return tags
	}
	for _, part := range strings.Split(concat, ",") {
		fields := strings.SplitN(part, "|", 3)
		if len(fields) != 3 || fields[0] == "" {
			continue
		}
		tags = append(tags, Tag{ID: fields[0], Name: fields[1], Slug: fields[2]})
	}
	return tags
}

func (r *blogRepository) queryArticles(ctx context.Context, query string, args ...any) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *blogRepository) ListArticles(ctx context.Context, limit, offset int) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` ` + articleJoins + `
	          GROUP BY bp.id
	          ORDER BY COALESCE(bp.published_at, bp.created_at) DESC
	          LIMIT ? OFFSET ?`
	return r.queryArticles(ctx, query, limit, offset)
}

func (r *blogRepository) CountArticles(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts`).Scan(&count)
	return count, err
}

func (r *blogRepository) FindBySlug(ctx context.Context, slug string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` ` + articleJoins + `
	          WHERE bp.slug = ?
	          GROUP BY bp.id`

	a, err := scanArticle(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *blogRepository) ListByCategory(ctx context.Context, categorySlug string, limit, offset int) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` ` + articleJoins + `
	          WHERE bc.slug = ?
	          GROUP BY bp.id
	          ORDER BY COALESCE(bp.published_at, bp.created_at) DESC
	          LIMIT ? OFFSET ?`
	return r.queryArticles(ctx, query, categorySlug, limit, offset)
}

func (r *blogRepository) ListByTag(ctx context.Context, tag string, limit int) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` ` + articleJoins + `
	          WHERE bp.id IN (
	              SELECT bpt2.post_id FROM blog_post_tags bpt2
	              JOIN blog_tags bt2 ON bpt2.tag_id = bt2.id
	              WHERE bt2.slug = ? OR bt2.name = ?
	          )
	          GROUP BY bp.id
	          ORDER BY COALESCE(bp.published_at, bp.created_at) DESC
	          LIMIT ?`
	return r.queryArticles(ctx, query, tag, tag, limit)
}

func (r *blogRepository) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	term := "%" + query + "%"
	q := `SELECT ` + articleColumns + ` ` + articleJoins + `
	      WHERE bp.title LIKE ? OR bp.content LIKE ? OR bp.excerpt LIKE ?
	      GROUP BY bp.id
	      ORDER BY COALESCE(bp.published_at, bp.created_at) DESC
	      LIMIT ?`
	return r.queryArticles(ctx, q, term, term, term, limit)
}

func (r *blogRepository) ListRelated(ctx context.Context, categorySlug, excludeID string, limit int) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` ` + articleJoins + `
	          WHERE bc.slug = ? AND bp.id != ?
	          GROUP BY bp.id
	          ORDER BY COALESCE(bp.published_at, bp.created_at) DESC
	          LIMIT ?`
	return r.queryArticles(ctx, query, categorySlug, excludeID, limit)
}

func (r *blogRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug, COALESCE(description, '')
		 FROM blog_categories WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing blog categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("scanning blog category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *blogRepository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug FROM blog_tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing blog tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scanning blog tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *blogRepository) ListSlugs(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slug, DATE_FORMAT(COALESCE(updated_at, published_at, created_at), '%Y-%m-%d')
		 FROM blog_posts`)
	if err != nil {
		return nil, fmt.Errorf("listing blog slugs: %w", err)
	}
	defer rows.Close()

	slugs := make(map[string]string)
	for rows.Next() {
		var slug, lastMod string
		if err := rows.Scan(&slug, &lastMod); err != nil {
			return nil, fmt.Errorf("scanning blog slug: %w", err)
		}
		slugs[slug] = lastMod
	}
	return slugs, rows.Err()
}
