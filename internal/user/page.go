package user

import (
	"html/template"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/user-admin/internal/formfield"
	"github.com/wichananm65/user-admin/internal/view"
)

const (
	pageTitle = "User Management"
	actionURL = "/users"
)

// pageState is the view state of one render. An empty editID means the
// form is in create mode.
type pageState struct {
	result *Result
	editID string
	values map[string][]string
}

var tableColumns = []string{"name", "email", "age", "dob", "gender", "skills", "bio"}

func usersTable(users []User) view.Table[User] {
	columns := make([]view.Column[User], 0, len(tableColumns)+1)
	for _, key := range tableColumns {
		columns = append(columns, view.Column[User]{Key: key, Label: label(key)})
	}
	columns = append(columns, view.Column[User]{
		Key:   "profilePic",
		Label: label("profilePic"),
		Render: func(u User) template.HTML {
			if u.ProfilePic == nil {
				return "No Image"
			}
			return view.Image(*u.ProfilePic, u.Name)
		},
	})

	return view.Table[User]{
		Rows:    users,
		Columns: columns,
		Actions: func(u User) (template.HTML, error) {
			id := strconv.Itoa(u.ID)
			return view.RowActions{EditURL: "/?edit=" + id, ActionURL: actionURL, ID: id}.Render()
		},
	}
}

func label(key string) string {
	if field, ok := formfield.Lookup(key); ok {
		return field.Label
	}
	return key
}

func (h *Handler) renderPage(c *fiber.Ctx, state pageState) error {
	ctx := c.UserContext()

	users, err := h.service.List(ctx)
	if err != nil {
		logrus.WithContext(ctx).WithError(err).Error("list users for page")
		return c.Status(fiber.StatusInternalServerError).SendString(msgFailure)
	}

	table, err := usersTable(users).Render()
	if err != nil {
		return err
	}

	form, err := view.Form{
		ActionURL: actionURL,
		CancelURL: "/",
		Fields:    formfield.Catalog(),
		Values:    state.values,
		Editing:   state.editID != "",
		ID:        state.editID,
	}.Render()
	if err != nil {
		return err
	}

	page := view.Page{Title: pageTitle, Form: form, Table: table}
	if state.result != nil {
		if state.result.OK() {
			page.Success = state.result.Message
		} else {
			page.Error = state.result.Message
		}
	}

	c.Type("html", "utf-8")
	return view.RenderPage(c.Response().BodyWriter(), page)
}
