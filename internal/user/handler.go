package user

import (
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.getPage)
	app.Get("/users", h.getUsers)
	app.Post("/users", h.postAction)
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		logrus.WithContext(c.UserContext()).WithError(err).Error("list users")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgFailure})
	}
	return c.JSON(users)
}

func (h *Handler) getPage(c *fiber.Ctx) error {
	state := pageState{}
	if msg := doneMessage(c.Query("done")); msg != "" {
		state.result = &Result{Kind: ResultSuccess, Message: msg}
	}

	if raw := c.Query("edit"); raw != "" {
		user, err := h.editTarget(c, raw)
		switch {
		case errors.Is(err, ErrNotFound):
			state.result = &Result{Kind: ResultNotFound, Message: msgNotFound}
		case err != nil:
			logrus.WithContext(c.UserContext()).WithError(err).Error("load user for edit")
			state.result = &Result{Kind: ResultFailure, Message: msgFailure}
		default:
			state.editID = strconv.Itoa(user.ID)
			state.values = user.Values()
		}
	}

	if state.result != nil {
		c.Status(state.result.Status())
	}
	return h.renderPage(c, state)
}

func (h *Handler) editTarget(c *fiber.Ctx, raw string) (User, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return User{}, ErrNotFound
	}
	return h.service.GetByID(c.UserContext(), id)
}

func (h *Handler) postAction(c *fiber.Ctx) error {
	action, closeFile, err := readAction(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer closeFile()

	result := h.service.Dispatch(c.UserContext(), action)
	c.Status(result.Status())

	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
		// redirect after success so a reload does not submit again
		if result.OK() {
			return c.Redirect("/?done="+action.Intent, fiber.StatusSeeOther)
		}
		// keep what was typed; a failed update stays in edit mode
		state := pageState{result: &result, values: action.Form.Values()}
		if action.Intent == IntentUpdate {
			state.editID = action.ID
		}
		return h.renderPage(c, state)
	}
	return c.JSON(result.body())
}

// readAction collects the submitted fields. Skills may arrive as repeated
// "skills" or "skills[]" keys, in multipart or url-encoded bodies.
func readAction(c *fiber.Ctx) (Action, func(), error) {
	action := Action{
		Intent: formValue(c, "_intent"),
		ID:     formValue(c, "id"),
		Form: Form{
			Name:   formValue(c, "name"),
			Email:  formValue(c, "email"),
			Age:    formValue(c, "age"),
			DOB:    formValue(c, "dob"),
			Gender: formValue(c, "gender"),
			Skills: formValues(c, "skills"),
			Bio:    formValue(c, "bio"),
		},
	}

	closeFile := func() {}
	fh, err := c.FormFile("profilePic")
	if err != nil {
		return action, closeFile, nil
	}
	f, err := fh.Open()
	if err != nil {
		return Action{}, closeFile, err
	}
	action.Picture = &Attachment{Filename: fh.Filename, Size: fh.Size, Content: f}
	return action, func() { closeQuietly(f) }, nil
}

// formValue copies the value out of the request buffer, which fiber reuses.
func formValue(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.FormValue(key))
}

func formValues(c *fiber.Ctx, key string) []string {
	keys := []string{key, key + "[]"}
	values := make([]string, 0)

	if form, err := c.MultipartForm(); err == nil {
		for _, k := range keys {
			values = append(values, form.Value[k]...)
		}
		return values
	}

	args := c.Request().PostArgs()
	for _, k := range keys {
		for _, v := range args.PeekMulti(k) {
			values = append(values, string(v))
		}
	}
	return values
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		logrus.WithError(err).Warn("close uploaded file")
	}
}
