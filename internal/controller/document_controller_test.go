package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocumentService struct {
	uploadedFilename string
	uploadedMime     string
	uploadedContent  []byte
}

func (s *stubDocumentService) Upload(ctx context.Context, userId uuid.UUID, originalFilename, mimeType string, content []byte) (*dto.UploadDocumentResponse, error) {
	s.uploadedFilename = originalFilename
	s.uploadedMime = mimeType
	s.uploadedContent = content
	return &dto.UploadDocumentResponse{
		Id:       uuid.New(),
		Title:    originalFilename,
		Status:   "processing",
		MimeType: mimeType,
		FileSize: int64(len(content)),
	}, nil
}

func (s *stubDocumentService) List(ctx context.Context, userId uuid.UUID) ([]dto.DocumentListItem, error) {
	return []dto.DocumentListItem{}, nil
}

func (s *stubDocumentService) Show(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ShowDocumentResponse, error) {
	return nil, serverutils.NewNotFoundError("Document not found")
}

func (s *stubDocumentService) Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error {
	return nil
}

func (s *stubDocumentService) Reprocess(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ReprocessDocumentResponse, error) {
	return &dto.ReprocessDocumentResponse{Id: documentId, Status: "processing"}, nil
}

func newTestApp(t *testing.T, stub *stubDocumentService) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewDocumentController(stub).RegisterRoutes(api)
	return app
}

func authToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func uploadBody(t *testing.T, filename, mimeType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestDocumentUpload(t *testing.T) {
	stub := &stubDocumentService{}
	app := newTestApp(t, stub)
	token := authToken(t)

	buf, contentType := uploadBody(t, "notes.txt", "text/plain", []byte("hello document"))

	req := httptest.NewRequest("POST", "/api/document/v1/upload", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, res.StatusCode)

	assert.Equal(t, "notes.txt", stub.uploadedFilename)
	assert.Equal(t, "text/plain", stub.uploadedMime)
	assert.Equal(t, []byte("hello document"), stub.uploadedContent)

	body, _ := io.ReadAll(res.Body)
	var envelope serverutils.ApiResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.True(t, envelope.Success)
}

func TestDocumentUpload_UnsupportedType(t *testing.T) {
	stub := &stubDocumentService{}
	app := newTestApp(t, stub)

	buf, contentType := uploadBody(t, "photo.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})

	req := httptest.NewRequest("POST", "/api/document/v1/upload", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+authToken(t))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Empty(t, stub.uploadedFilename)
}

func TestDocumentUpload_MissingFile(t *testing.T) {
	app := newTestApp(t, &stubDocumentService{})

	req := httptest.NewRequest("POST", "/api/document/v1/upload", nil)
	req.Header.Set("Authorization", "Bearer "+authToken(t))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestDocumentUpload_RequiresAuth(t *testing.T) {
	app := newTestApp(t, &stubDocumentService{})

	req := httptest.NewRequest("POST", "/api/document/v1/upload", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestDocumentShow_NotFoundAndInvalidId(t *testing.T) {
	app := newTestApp(t, &stubDocumentService{})
	token := authToken(t)

	req := httptest.NewRequest("GET", "/api/document/v1/"+uuid.New().String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	req = httptest.NewRequest("GET", "/api/document/v1/not-a-uuid", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}
