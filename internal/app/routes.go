package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/images"
	"github.com/jadihebat/platform/internal/plugins/authweb"
	"github.com/jadihebat/platform/internal/plugins/blog"
	"github.com/jadihebat/platform/internal/plugins/courses"
	"github.com/jadihebat/platform/internal/plugins/profile"
	"github.com/jadihebat/platform/internal/plugins/progress"
	"github.com/jadihebat/platform/internal/plugins/quiz"
	"github.com/jadihebat/platform/internal/plugins/sitemap"
)

// RegisterRoutes builds every plugin's repository/service/handler chain and
// registers its routes. This is the single place where all routes are
// aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo
	logger := slog.Default()

	// Health check endpoint for Docker health monitoring.
	e.GET("/healthz", a.healthz)

	// Auth: login, register, logout, session info.
	authHandler := authweb.NewHandler(a.Identity, a.Admin, a.Config.IsProduction())
	authweb.RegisterRoutes(e, authHandler, a.Redis)

	// Cover images are stored as asset IDs; the builder resolves them
	// against the CDN.
	imgs := images.NewBuilder(a.Config.CDNBaseURL)

	// Catalog and per-user progress. The two plugins consume each other
	// through narrow interfaces: progress needs lesson counts, courses
	// needs enrollment checks.
	courseService := courses.NewCourseService(courses.NewCourseRepository(a.DB), imgs)
	progressService := progress.NewProgressService(progress.NewProgressRepository(a.DB), courseService, imgs)

	courses.RegisterRoutes(e, courses.NewHandler(courseService, progressService))
	progress.RegisterRoutes(e, progress.NewHandler(progressService))

	// Lesson quizzes.
	quizService := quiz.NewQuizService(quiz.NewQuizRepository(a.DB), logger)
	quiz.RegisterRoutes(e, quiz.NewHandler(quizService))

	// Blog.
	blogService := blog.NewBlogService(blog.NewBlogRepository(a.DB), imgs, logger)
	blog.RegisterRoutes(e, blog.NewHandler(blogService))

	// Profile and avatar uploads. Object storage is optional in
	// development; the handler rejects uploads cleanly when it is absent.
	avatarStore, err := profile.NewAvatarStore(context.Background(), a.Config.Storage)
	if err != nil {
		logger.Warn("avatar uploads disabled", slog.Any("error", err))
		avatarStore = nil
	}
	profile.RegisterRoutes(e, profile.NewHandler(avatarStore, a.Admin, a.Config.Upload.MaxAvatarSize, logger))

	// Sitemap, cached in Redis.
	sitemapService := sitemap.NewSitemapService(courseService, blogService, a.Redis, a.Config.BaseURL, logger)
	sitemap.RegisterRoutes(e, sitemap.NewHandler(sitemapService))
}

// healthz reports process liveness plus DB and Redis reachability.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	status := http.StatusOK
	checks := map[string]string{"db": "ok", "redis": "ok"}

	if err := a.DB.PingContext(ctx); err != nil {
		checks["db"] = "down"
		status = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
