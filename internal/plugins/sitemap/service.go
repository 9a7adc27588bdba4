package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "sitemap:xml"
	cacheTTL = time.Hour
)

// staticPage is a fixed route included in every sitemap.
type staticPage struct {
	path       string
	changeFreq string
	priority   string
}

// staticPages mirrors the site's public routes.
var staticPages = []staticPage{
	{"", "daily", "1.0"},
	{"about", "monthly", "0.8"},
	{"courses", "weekly", "0.9"},
	{"blog", "daily", "0.8"},
	{"privacy", "monthly", "0.3"},
	{"terms", "monthly", "0.3"},
	{"login", "yearly", "0.4"},
	{"register", "yearly", "0.5"},
	{"help", "yearly", "0.5"},
	{"faq", "yearly", "0.5"},
}

// CourseSource supplies course and category slugs for the sitemap. The
// courses plugin implements it.
type CourseSource interface {
	ListSlugs(ctx context.Context) ([]string, error)
	ListCategorySlugs(ctx context.Context) ([]string, error)
}

// BlogSource supplies blog slugs with their last modified dates, plus
// category slugs. The blog plugin implements it.
type BlogSource interface {
	ListSlugs(ctx context.Context) (map[string]string, error)
	ListCategorySlugs(ctx context.Context) ([]string, error)
}

// urlEntry is one <url> element.
type urlEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod"`
	ChangeFreq string   `xml:"changefreq"`
	Priority   string   `xml:"priority"`
}

// urlSet is the sitemap document root.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// SitemapService generates and caches the sitemap XML. Generation touches
// two tables per source, so the output is cached in Redis for an hour.
type SitemapService struct {
	courses CourseSource
	blog    BlogSource
	rdb     *redis.Client
	baseURL string
	logger  *slog.Logger
}

// NewSitemapService creates a new sitemap service.
func NewSitemapService(courses CourseSource, blog BlogSource, rdb *redis.Client, baseURL string, logger *slog.Logger) *SitemapService {
	return &SitemapService{
		courses: courses,
		blog:    blog,
		rdb:     rdb,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Generate returns the sitemap XML, from cache when fresh. A Redis outage
// only costs the cache; generation still runs.
func (s *SitemapService) Generate(ctx context.Context) (string, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && err != redis.Nil {
			s.logger.Warn("sitemap cache read failed", slog.Any("error", err))
		}
	}

	content, err := s.build(ctx)
	if err != nil {
		return "", err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey, content, cacheTTL).Err(); err != nil {
			s.logger.Warn("sitemap cache write failed", slog.Any("error", err))
		}
	}
	return content, nil
}

func (s *SitemapService) build(ctx context.Context) (string, error) {
	now := time.Now().UTC().Format("2006-01-02")

	var urls []urlEntry
	for _, p := range staticPages {
		urls = append(urls, urlEntry{
			Loc:        s.pageURL(p.path),
			LastMod:    now,
			ChangeFreq: p.changeFreq,
			Priority:   p.priority,
		})
	}

	// Dynamic sources are best effort. A failing source logs and drops its
	// section rather than breaking the whole sitemap.
	if blogCategories, err := s.blog.ListCategorySlugs(ctx); err != nil {
		s.logger.Warn("sitemap: blog categories unavailable", slog.Any("error", err))
	} else {
		for _, slug := range blogCategories {
			urls = append(urls, urlEntry{
				Loc:        s.pageURL("blog/category/" + slug),
				LastMod:    now,
				ChangeFreq: "weekly",
				Priority:   "0.7",
			})
		}
	}

	if courseCategories, err := s.courses.ListCategorySlugs(ctx); err != nil {
		s.logger.Warn("sitemap: course categories unavailable", slog.Any("error", err))
	} else {
		for _, slug := range courseCategories {
			urls = append(urls, urlEntry{
				Loc:        s.pageURL("categories/" + slug),
				LastMod:    now,
				ChangeFreq: "weekly",
				Priority:   "0.7",
			})
		}
	}

	if articles, err := s.blog.ListSlugs(ctx); err != nil {
		s.logger.Warn("sitemap: blog articles unavailable", slog.Any("error", err))
	} else {
		for slug, lastMod := range articles {
			if lastMod == "" {
				lastMod = now
			}
			urls = append(urls, urlEntry{
				Loc:        s.pageURL("blog/" + slug),
				LastMod:    lastMod,
				ChangeFreq: "monthly",
				Priority:   "0.6",
			})
		}
	}

	if courses, err := s.courses.ListSlugs(ctx); err != nil {
		s.logger.Warn("sitemap: courses unavailable", slog.Any("error", err))
	} else {
		for _, slug := range courses {
			urls = append(urls, urlEntry{
				Loc:        s.pageURL("courses/" + slug),
				LastMod:    now,
				ChangeFreq: "weekly",
				Priority:   "0.8",
			})
		}
	}

	doc := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding sitemap: %w", err)
	}

	s.logger.Info("sitemap generated", slog.Int("urls", len(urls)))
	return buf.String(), nil
}

func (s *SitemapService) pageURL(path string) string {
	if path == "" {
		return s.baseURL + "/"
	}
	return s.baseURL + "/" + path
}
