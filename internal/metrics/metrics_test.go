package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/things/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", Handler())

	counter := httpRequestTotal.WithLabelValues("GET", "/things/:id", "200")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		res, err := app.Test(httptest.NewRequest("GET", "/things/"+id, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, res.StatusCode)
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))

	res, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	assert.True(t, strings.Contains(string(b), "http_requests_total"))
}
