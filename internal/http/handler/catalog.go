package handler

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"simpledms/internal/service"
	"simpledms/internal/worker"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func nameParam(c *fiber.Ctx) string {
	name := c.Params("name")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// ListCategories
//
// @Summary  List categories
// @Tags     catalog
// @Produce  json
// @Success  200 {array} model.Category
// @Router   /api/v1/categories [get]
func ListCategories(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListCategories(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}

// CreateCategory
//
// @Summary  Create category
// @Tags     catalog
// @Accept   json
// @Produce  json
// @Param    body body createCategoryRequest true "Category"
// @Success  201 {object} model.Category
// @Failure  409 {object} errorPayload
// @Router   /api/v1/categories [post]
func CreateCategory(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createCategoryRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		cat, err := svc.CreateCategory(c.UserContext(), req.Name, req.Icon, req.Description)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// DeleteCategory
//
// @Summary  Delete category by name
// @Tags     catalog
// @Param    name path string true "Category name"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /api/v1/categories/{name} [delete]
func DeleteCategory(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteCategory(c.UserContext(), nameParam(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListTags
//
// @Summary  List tags
// @Tags     catalog
// @Produce  json
// @Success  200 {array} model.Tag
// @Router   /api/v1/tags [get]
func ListTags(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListTags(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}

// CreateTag
//
// @Summary  Create tag
// @Tags     catalog
// @Accept   json
// @Produce  json
// @Param    body body createTagRequest true "Tag"
// @Success  201 {object} model.Tag
// @Failure  409 {object} errorPayload
// @Router   /api/v1/tags [post]
func CreateTag(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createTagRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		tag, err := svc.CreateTag(c.UserContext(), req.Name, req.Color)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tag)
	}
}

// DeleteTag
//
// @Summary  Delete tag by name
// @Tags     catalog
// @Param    name path string true "Tag name"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /api/v1/tags/{name} [delete]
func DeleteTag(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteTag(c.UserContext(), nameParam(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SweepRunner runs one maintenance pass on demand.
type SweepRunner interface {
	RunOnce(ctx context.Context) *worker.Result
}

// RunSweep triggers an orphan and expired-share sweep synchronously.
//
// @Summary  Run maintenance sweep now
// @Tags     maintenance
// @Produce  json
// @Success  200 {object} worker.Result
// @Router   /api/v1/maintenance/sweep [post]
func RunSweep(s SweepRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(s.RunOnce(c.UserContext()))
	}
}
