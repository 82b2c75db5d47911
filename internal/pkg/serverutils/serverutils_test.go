package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerMiddleware_ApiError(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(ctx *fiber.Ctx) error {
		return NewNotFoundError("Document not found")
	})
	app.Get("/ai", func(ctx *fiber.Ctx) error {
		return NewAIUnavailableError("The AI service is currently unavailable, please try again")
	})
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return assertAnError
	})

	res, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	body, _ := io.ReadAll(res.Body)
	var envelope ApiResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "Document not found", envelope.Message)

	res, err = app.Test(httptest.NewRequest("GET", "/ai", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, res.StatusCode)

	// Unknown errors must not leak internals.
	res, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
	body, _ = io.ReadAll(res.Body)
	assert.NotContains(t, string(body), "dsn=postgres://")
	assert.Contains(t, string(body), "Internal server error")
}

var assertAnError = errors.New("connect failed dsn=postgres://user:pass@db")

func TestValidateRequest(t *testing.T) {
	type loginReq struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	err := ValidateRequest(loginReq{Email: "user@example.com", Password: "longenough"})
	assert.NoError(t, err)

	err = ValidateRequest(loginReq{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	apiErr, ok := err.(*ApiError)
	require.True(t, ok)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)

	fields, ok := apiErr.Errs.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Use(JwtMiddleware)
	app.Get("/me", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"user_id": ctx.Locals("user_id")})
	})

	// Missing token
	res, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	// Garbage token
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	// Valid token
	claims := jwt.MapClaims{
		"user_id": "9f1c7b4e-0000-0000-0000-000000000001",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "9f1c7b4e-0000-0000-0000-000000000001")
}
