package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"simpledms/internal/model"
	"simpledms/internal/service"
	serviceMocks "simpledms/internal/service/mocks"
	"simpledms/internal/worker"
)

const owner = "test_user"

func notFound(msg string) error {
	return &service.Error{Kind: service.ErrNotFound, Message: msg}
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func multipartUpload(t *testing.T, fields map[string][]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if withFile {
		part, err := w.CreateFormFile("file", "report.pdf")
		require.NoError(t, err)
		_, _ = part.Write([]byte("%PDF-1.4"))
	}
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("no database", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents", ListDocuments(mockSvc, owner))

	t.Run("defaults", func(t *testing.T) {
		expected := &service.DocumentListResult{
			Items: []model.Document{{ID: uuid.New().String(), Filename: "test.pdf"}},
			Total: 1,
			Limit: 10,
		}
		mockSvc.On("List", mock.Anything, service.ListDocumentsQuery{OwnerID: owner, Limit: 10}).Return(expected, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result service.DocumentListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("filters and owner", func(t *testing.T) {
		q := service.ListDocumentsQuery{OwnerID: "alice", Skip: 20, Limit: 5, Category: "Finance", Tag: "urgent"}
		mockSvc.On("List", mock.Anything, q).Return(&service.DocumentListResult{Items: []model.Document{}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet,
			"/documents?owner_id=alice&skip=20&limit=5&category=Finance&tag=urgent", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	for _, tc := range []struct {
		name, query, code string
	}{
		{"limit not a number", "limit=abc", "INVALID_LIMIT"},
		{"limit zero", "limit=0", "INVALID_LIMIT"},
		{"limit too big", "limit=101", "INVALID_LIMIT"},
		{"negative skip", "skip=-1", "INVALID_SKIP"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?"+tc.query, nil))

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp).Error.Code)
		})
	}

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/documents", UploadDocument(mockSvc, owner))

	t.Run("success", func(t *testing.T) {
		body, ct := multipartUpload(t, map[string][]string{
			"title":      {"Q1 report"},
			"categories": {"Finance", "Legal"},
			"tags":       {"urgent, q1"},
		}, true)

		expected := &model.Document{ID: uuid.New().String(), Filename: "report.pdf"}
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateDocumentInput) bool {
			data, _ := io.ReadAll(in.Content)
			return in.Filename == "report.pdf" &&
				in.Title == "Q1 report" &&
				in.OwnerID == owner &&
				in.Size == 8 &&
				string(data) == "%PDF-1.4" &&
				assert.ObjectsAreEqual([]string{"Finance", "Legal"}, in.Categories) &&
				assert.ObjectsAreEqual([]string{"urgent", "q1"}, in.Tags)
		})).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/documents", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("blank title", func(t *testing.T) {
		body, ct := multipartUpload(t, nil, true)
		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.ErrValidation, Message: "title is required"}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_FAILED", res.Error.Code)
		assert.Equal(t, "title is required", res.Error.Message)
	})

	t.Run("storage failure", func(t *testing.T) {
		body, ct := multipartUpload(t, map[string][]string{"title": {"x"}}, true)
		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.ErrStorage, Message: "upload", Err: errors.New("bucket gone")}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "STORAGE_ERROR", res.Error.Code)
		assert.NotContains(t, res.Error.Message, "bucket")
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id", GetDocument(mockSvc, owner))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id, owner).Return(&model.Document{ID: id}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("orphaned", func(t *testing.T) {
		id := uuid.New().String()
		msg := "document not found in storage, metadata has been cleaned up"
		mockSvc.On("Get", mock.Anything, id, owner).Return(nil, notFound(msg)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		assert.Equal(t, msg, res.Error.Message)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}

func TestUpdateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Patch("/documents/:id", UpdateDocument(mockSvc, owner))
	id := uuid.New().String()

	t.Run("partial", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, id, owner, mock.MatchedBy(func(u model.DocumentUpdate) bool {
			return u.Title != nil && *u.Title == "renamed" && u.Description == nil && u.Tags != nil && len(*u.Tags) == 0
		})).Return(&model.Document{ID: id, Title: "renamed"}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/documents/"+id, strings.NewReader(`{"title":"renamed","tags":[]}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/documents/"+id, strings.NewReader(`{"title":`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/documents/:id", DeleteDocument(mockSvc, owner))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id, owner).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id, owner).Return(notFound("document not found")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id, owner).Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/download", DownloadURL(mockSvc, owner))
	id := uuid.New().String()

	t.Run("custom validity", func(t *testing.T) {
		mockSvc.On("GenerateDownloadURL", mock.Anything, id, owner, 10*time.Minute).
			Return("https://store/documents/x?sig=1", nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download?expires_in=600", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://store/documents/x?sig=1", body["download_url"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("bad validity", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download?expires_in=soon", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_EXPIRES_IN", decodeError(t, resp).Error.Code)
	})
}

func TestShares(t *testing.T) {
	mockSvc := new(serviceMocks.MockShareService)
	app := fiber.New()
	app.Post("/shares", CreateShare(mockSvc, owner, 7))
	app.Get("/shares", ListShares(mockSvc, owner))
	app.Get("/shares/:id", GetShare(mockSvc))
	app.Delete("/shares/:id", DeleteShare(mockSvc, owner))
	docID := uuid.New().String()
	shareID := uuid.New().String()

	t.Run("create with default days", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, docID, owner, 7).
			Return(&model.Share{ID: shareID, DocumentID: docID, ShortURL: "https://is.gd/x"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/shares", strings.NewReader(`{"document_id":"`+docID+`"}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.Share
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "https://is.gd/x", result.ShortURL)
		mockSvc.AssertExpectations(t)
	})

	t.Run("create with explicit zero days", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, docID, owner, 0).Return(&model.Share{ID: shareID}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/shares", strings.NewReader(`{"document_id":"`+docID+`","expires_in_days":0}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("create with bad document id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/shares", strings.NewReader(`{"document_id":"nope"}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("expired share", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, shareID).Return(nil, notFound("share link has expired")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/shares/"+shareID, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "share link has expired", decodeError(t, resp).Error.Message)
	})

	t.Run("list including expired", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, owner, true).Return([]model.Share{{ID: shareID}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/shares?include_expired=true", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var items []model.Share
		json.NewDecoder(resp.Body).Decode(&items)
		assert.Len(t, items, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, shareID, owner).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/shares/"+shareID, nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCatalog(t *testing.T) {
	mockSvc := new(serviceMocks.MockCatalogService)
	app := fiber.New()
	app.Get("/categories", ListCategories(mockSvc))
	app.Post("/categories", CreateCategory(mockSvc))
	app.Delete("/categories/:name", DeleteCategory(mockSvc))
	app.Post("/tags", CreateTag(mockSvc))
	app.Delete("/tags/:name", DeleteTag(mockSvc))

	t.Run("list categories", func(t *testing.T) {
		mockSvc.On("ListCategories", mock.Anything).Return([]model.Category{{Name: "Finance"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/categories", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("duplicate category", func(t *testing.T) {
		mockSvc.On("CreateCategory", mock.Anything, "Finance", "bank", "").
			Return(nil, &service.Error{Kind: service.ErrConflict, Message: "category already exists"}).Once()

		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Finance","icon":"bank"}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)
	})

	t.Run("delete category with encoded name", func(t *testing.T) {
		mockSvc.On("DeleteCategory", mock.Anything, "Tax Returns").Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/categories/Tax%20Returns", nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("create tag", func(t *testing.T) {
		mockSvc.On("CreateTag", mock.Anything, "urgent", "#ff0000").Return(&model.Tag{Name: "urgent", Color: "#ff0000"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/tags", strings.NewReader(`{"name":"urgent","color":"#ff0000"}`))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("delete missing tag", func(t *testing.T) {
		mockSvc.On("DeleteTag", mock.Anything, "gone").Return(notFound("tag not found")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/tags/gone", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

type stubSweeper struct{ calls int }

func (s *stubSweeper) RunOnce(context.Context) *worker.Result {
	s.calls++
	return &worker.Result{Tasks: []worker.TaskResult{{Task: "expired_shares", Removed: 3}}}
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})
	sweeper := &stubSweeper{}
	docs := new(serviceMocks.MockDocumentService)
	RegisterRoutes(app, nil, Services{
		Documents:    docs,
		Shares:       new(serviceMocks.MockShareService),
		Catalog:      new(serviceMocks.MockCatalogService),
		Sweeper:      sweeper,
		DefaultOwner: owner,
	})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("documents are versioned", func(t *testing.T) {
		docs.On("List", mock.Anything, service.ListDocumentsQuery{OwnerID: owner, Limit: 10}).
			Return(&service.DocumentListResult{Items: []model.Document{}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		docs.AssertExpectations(t)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(b), "go_goroutines")
	})

	t.Run("manual sweep", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/sweep", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res worker.Result
		json.NewDecoder(resp.Body).Decode(&res)
		require.Len(t, res.Tasks, 1)
		assert.Equal(t, 3, res.Tasks[0].Removed)
		assert.Equal(t, 1, sweeper.calls)
	})
}
