package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"simpledms/internal/service"
)

type createShareRequest struct {
	DocumentID    string `json:"document_id"`
	OwnerID       string `json:"owner_id"`
	ExpiresInDays *int   `json:"expires_in_days"`
}

// CreateShare creates a time-limited public link for a document.
//
// @Summary  Create share link
// @Tags     shares
// @Accept   json
// @Produce  json
// @Param    body body createShareRequest true "Document and lifetime in days (default 7)"
// @Success  201 {object} model.Share
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /api/v1/shares [post]
func CreateShare(svc service.ShareService, defaultOwner string, defaultDays int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createShareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if _, err := uuid.Parse(req.DocumentID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid document_id format")
		}
		days := defaultDays
		if req.ExpiresInDays != nil {
			days = *req.ExpiresInDays
		}
		owner := req.OwnerID
		if owner == "" {
			owner = ownerFrom(c, defaultOwner)
		}

		share, err := svc.Create(c.UserContext(), req.DocumentID, owner, days)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(share)
	}
}

// GetShare returns a live share. Expired shares are removed and answer 404.
//
// @Summary  Get share link
// @Tags     shares
// @Produce  json
// @Param    id path string true "Share id"
// @Success  200 {object} model.Share
// @Failure  404 {object} errorPayload
// @Router   /api/v1/shares/{id} [get]
func GetShare(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		share, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(share)
	}
}

// ListShares returns the owner's shares.
//
// @Summary  List share links
// @Tags     shares
// @Produce  json
// @Param    owner_id        query string false "Owner id"
// @Param    include_expired query bool   false "Include expired shares"
// @Success  200 {array} model.Share
// @Router   /api/v1/shares [get]
func ListShares(svc service.ShareService, defaultOwner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		include, err := strconv.ParseBool(c.Query("include_expired", "false"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INCLUDE_EXPIRED", "include_expired must be a boolean")
		}
		items, err := svc.List(c.UserContext(), ownerFrom(c, defaultOwner), include)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}

// DeleteShare removes a share owned by the caller.
//
// @Summary  Delete share link
// @Tags     shares
// @Param    id       path  string true  "Share id"
// @Param    owner_id query string false "Owner id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /api/v1/shares/{id} [delete]
func DeleteShare(svc service.ShareService, defaultOwner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, ownerFrom(c, defaultOwner)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
