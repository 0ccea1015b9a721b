package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simpledms/internal/service"
)

// Services bundles what the routes need. Sweeper may be nil when the
// maintenance endpoint should not be exposed.
type Services struct {
	Documents        service.DocumentService
	Shares           service.ShareService
	Catalog          service.CatalogService
	Sweeper          SweepRunner
	DefaultOwner     string
	DefaultShareDays int
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, s Services) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	days := s.DefaultShareDays
	if days <= 0 {
		days = service.DefaultShareDays
	}

	v1 := app.Group("/api/v1")

	docs := v1.Group("/documents")
	docs.Get("/", ListDocuments(s.Documents, s.DefaultOwner))
	docs.Post("/", UploadDocument(s.Documents, s.DefaultOwner))
	docs.Get("/:id", GetDocument(s.Documents, s.DefaultOwner))
	docs.Patch("/:id", UpdateDocument(s.Documents, s.DefaultOwner))
	docs.Delete("/:id", DeleteDocument(s.Documents, s.DefaultOwner))
	docs.Get("/:id/download", DownloadURL(s.Documents, s.DefaultOwner))

	shares := v1.Group("/shares")
	shares.Get("/", ListShares(s.Shares, s.DefaultOwner))
	shares.Post("/", CreateShare(s.Shares, s.DefaultOwner, days))
	shares.Get("/:id", GetShare(s.Shares))
	shares.Delete("/:id", DeleteShare(s.Shares, s.DefaultOwner))

	v1.Get("/categories", ListCategories(s.Catalog))
	v1.Post("/categories", CreateCategory(s.Catalog))
	v1.Delete("/categories/:name", DeleteCategory(s.Catalog))
	v1.Get("/tags", ListTags(s.Catalog))
	v1.Post("/tags", CreateTag(s.Catalog))
	v1.Delete("/tags/:name", DeleteTag(s.Catalog))

	if s.Sweeper != nil {
		v1.Post("/maintenance/sweep", RunSweep(s.Sweeper))
	}
}
