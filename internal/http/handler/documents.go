package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"simpledms/internal/model"
	"simpledms/internal/service"
)

const maxListLimit = 100

// ownerFrom resolves the acting owner: form field, then query parameter, then the configured placeholder.
func ownerFrom(c *fiber.Ctx, def string) string {
	if v := strings.TrimSpace(c.FormValue("owner_id")); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Query("owner_id")); v != "" {
		return v
	}
	return def
}

func validID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// formList collects a repeated multipart field. A single comma separated value is split too.
func formList(c *fiber.Ctx, key string) []string {
	var raw []string
	if form, err := c.MultipartForm(); err == nil {
		raw = form.Value[key]
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// ListDocuments returns the owner's live documents.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    owner_id query string false "Owner id"
// @Param    skip     query int    false "Items to skip" default(0)
// @Param    limit    query int    false "Page size (1-100)" default(10)
// @Param    category query string false "Exact category name"
// @Param    tag      query string false "Exact tag name"
// @Success  200 {object} service.DocumentListResult
// @Failure  400 {object} errorPayload
// @Router   /api/v1/documents [get]
func ListDocuments(svc service.DocumentService, defaultOwner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skip, err := strconv.Atoi(c.Query("skip", "0"))
		if err != nil || skip < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SKIP", "skip must be a non-negative integer")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit < 1 || limit > maxListLimit {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 100")
		}

		res, err := svc.List(c.UserContext(), service.ListDocumentsQuery{
			OwnerID:  ownerFrom(c, defaultOwner),
			Skip:     skip,
			Limit:    limit,
			Category: c.Query("category"),
			Tag:      c.Query("tag"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument stores a new document (multipart/form-data, file field "file").
//
// @Summary  Upload document
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    file        formData file   true  "Document content"
// @Param    title       formData string true  "Title"
// @Param    description formData string false "Description"
// @Param    categories  formData []string false "Category names" collectionFormat(multi)
// @Param    tags        formData []string false "Tag names" collectionFormat(multi)
// @Param    owner_id    formData string false "Owner id"
// @Success  201 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /api/v1/documents [post]
func UploadDocument(svc service.DocumentService, defaultOwner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Create(c.UserContext(), service.CreateDocumentInput{
			Content:     f,
			Size:        fh.Size,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			Categories:  formList(c, "categories"),
			Tags:        formList(c, "tags"),
			OwnerID:     ownerFrom(c, defaultOwner),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document.
//
// @Summary  Get document
// @Tags     documents
// @Produce  json
// @Param    id       path  string true  "Document id"
// @Param    owner_id query string false "Owner id"
// @Success  200 {object} model.Document
// @Failure  404 {object} errorPayload
// @Router   /api/v1/documents/{id} [get]
func GetDocument(svc service.DocumentService, defaultOwner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id, ownerFrom(c, defaultOwner))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument applies a partial metadata update. Omitted fields are kept.
//
// @Summary  Update document metadata
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    id       path  string               true  "Document id"
// @Param    owner_id query string               false "Owner id"
// @Param    body     body  model.DocumentUpdate true  "Fields to change"
// @Success  200 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /api/v1/documents/{id} [patch]
func UpdateDocument(svc service.DocumentService, defaultOwner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var upd model.DocumentUpdate
		if err := c.BodyParser(&upd); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := svc.Update(c.UserContext(), id, ownerFrom(c, defaultOwner), upd)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes the blob, the record and its shares.
//
// @Summary  Delete document
// @Tags     documents
// @Param    id       path  string true  "Document id"
// @Param    owner_id query string false "Owner id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /api/v1/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService, defaultOwner string) fiber.Handler {
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

// DownloadURL returns a presigned download link.
//
// @Summary  Presigned download URL
// @Tags     documents
// @Produce  json
// @Param    id         path  string true  "Document id"
// @Param    owner_id   query string false "Owner id"
// @Param    expires_in query int    false "Validity in seconds"
// @Success  200 {object} map[string]string
// @Failure  404 {object} errorPayload
// @Router   /api/v1/documents/{id}/download [get]
func DownloadURL(svc service.DocumentService, defaultOwner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		secs, err := strconv.Atoi(c.Query("expires_in", "0"))
		if err != nil || secs < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRES_IN", "expires_in must be a non-negative integer")
		}

		u, err := svc.GenerateDownloadURL(c.UserContext(), id, ownerFrom(c, defaultOwner), time.Duration(secs)*time.Second)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"download_url": u})
	}
}
