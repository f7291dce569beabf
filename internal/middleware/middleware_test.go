package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLimiter_OnlyCountsPosts(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger())
	app.Use(WriteLimiter(2, 60))
	app.Get("/users", func(c *fiber.Ctx) error { return c.SendString("list") })
	app.Post("/users", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 5; i++ {
		res, err := app.Test(httptest.NewRequest("GET", "/users", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	}

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		res, err := app.Test(httptest.NewRequest("POST", "/users", nil))
		require.NoError(t, err)
		codes = append(codes, res.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}
