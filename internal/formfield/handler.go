package formfield

import "github.com/gofiber/fiber/v2"

type Handler struct {
	fields []Field
}

func NewHandler(fields []Field) *Handler {
	return &Handler{fields: fields}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/users/fields", h.getFields)
}

func (h *Handler) getFields(c *fiber.Ctx) error {
	return c.JSON(h.fields)
}
