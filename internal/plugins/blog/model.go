package blog

import "time"

// Article is a published blog post. Content holds the raw stored body;
// SafeContent is the rendered and sanitized HTML set by the service.
type Article struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Excerpt      string     `json:"excerpt"`
	Content      string     `json:"-"`
	SafeContent  string     `json:"content,omitempty"`
	CoverImage   string     `json:"coverImage,omitempty"`
	AuthorName   string     `json:"authorName"`
	CategoryName string     `json:"categoryName,omitempty"`
	CategorySlug string     `json:"categorySlug,omitempty"`
	Tags         []Tag      `json:"tags"`
	PublishedAt  time.Time  `json:"publishedAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Category groups articles.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// Tag labels articles.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ArticlePage is a page of articles with pagination metadata.
type ArticlePage struct {
	Articles    []Article `json:"articles"`
	TotalCount  int       `json:"totalCount"`
	TotalPages  int       `json:"totalPages"`
	Page        int       `json:"page"`
	HasNextPage bool      `json:"hasNextPage"`
	HasPrevPage bool      `json:"hasPrevPage"`
}
