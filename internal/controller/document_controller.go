package controller

import (
	"io"
	"strings"

	"docuchat-be/internal/pkg/serverutils"
	"docuchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MaxUploadSize is the upload ceiling. Larger files get 413.
const MaxUploadSize = 50 * 1024 * 1024

// Word-processor formats are accepted but only get a placeholder until
// their extractors land.
var allowedUploadTypes = map[string]bool{
	"text/plain":         true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/rtf": true,
}

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reprocess(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/upload", c.Upload)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Post(":id/reprocess", c.Reprocess)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewBadRequestError("FILE_REQUIRED", "A file is required under the 'file' form field")
	}

	if fileHeader.Size > MaxUploadSize {
		return serverutils.NewApiError(fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the 50MB upload limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !allowedUploadTypes[mimeType] {
		return serverutils.NewBadRequestError("UNSUPPORTED_FILE_TYPE", "File type is not supported, please upload a PDF, text, or Word document")
	}

	res, err := c.service.Upload(ctx.Context(), userId, fileHeader.Filename, mimeType, content)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document uploaded, processing started", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.List(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewBadRequestError("INVALID_ID", "Invalid document id")
	}

	res, err := c.service.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewBadRequestError("INVALID_ID", "Invalid document id")
	}

	if err := c.service.Delete(ctx.Context(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document deleted", nil))
}

func (c *documentController) Reprocess(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewBadRequestError("INVALID_ID", "Invalid document id")
	}

	res, err := c.service.Reprocess(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Reprocessing started", res))
}
