package user

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/user-admin/internal/upload"
)

func makeAppWithUserHandler(t *testing.T, seed []User) (*fiber.App, *InMemoryRepository, string) {
	t.Helper()
	publicDir := t.TempDir()
	store := upload.NewLocalStore(publicDir, "uploads")
	store.Now = func() time.Time { return time.UnixMilli(1700000000123) }

	repo := NewInMemoryRepository(seed)
	handler := NewHandler(NewService(repo, store, nil))

	app := fiber.New()
	handler.RegisterRoutes(app)
	return app, repo, publicDir
}

func multipartRequest(t *testing.T, fields map[string][]string, file string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, values := range fields {
		for _, v := range values {
			if err := writer.WriteField(key, v); err != nil {
				t.Fatalf("write field %s: %v", key, err)
			}
		}
	}
	if file != "" || content != nil {
		part, err := writer.CreateFormFile("profilePic", file)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/users", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func annFields(intent string) map[string][]string {
	return map[string][]string{
		"_intent": {intent},
		"name":    {"Ann"},
		"age":     {"30"},
		"email":   {"ann@x.com"},
		"dob":     {"1995-01-01"},
		"gender":  {"Female"},
		"skills":  {"JS", "Python"},
		"bio":     {"hi"},
	}
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode body %s: %v", b, err)
	}
}

func TestPostUsers_CreateThenList(t *testing.T) {
	app, _, _ := makeAppWithUserHandler(t, nil)

	// browsers send an empty file part when no picture is chosen
	res, err := app.Test(multipartRequest(t, annFields("create"), "", []byte{}))
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var created map[string]any
	decodeBody(t, res, &created)
	if created["success"] != "User created successfully!" {
		t.Fatalf("unexpected body %v", created)
	}

	res, err = app.Test(httptest.NewRequest("GET", "/users", nil))
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	var users []map[string]any
	decodeBody(t, res, &users)
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0]["profilePic"] != nil {
		t.Fatalf("expected null profilePic, got %v", users[0]["profilePic"])
	}
	skills, ok := users[0]["skills"].([]any)
	if !ok || len(skills) != 2 || skills[0] != "JS" || skills[1] != "Python" {
		t.Fatalf("unexpected skills %v", users[0]["skills"])
	}
}

func TestPostUsers_CreateStoresPicture(t *testing.T) {
	app, repo, publicDir := makeAppWithUserHandler(t, nil)

	res, err := app.Test(multipartRequest(t, annFields("create"), "me.png", []byte("png-bytes")))
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	stored, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.ProfilePic == nil || *stored.ProfilePic != "/uploads/1700000000123.png" {
		t.Fatalf("unexpected profilePic %v", stored.ProfilePic)
	}

	data, err := os.ReadFile(filepath.Join(publicDir, "uploads", "1700000000123.png"))
	if err != nil {
		t.Fatalf("committed file missing: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected file content %q", data)
	}

	staging, _ := os.ReadDir(filepath.Join(publicDir, "uploads", ".staging"))
	if len(staging) != 0 {
		t.Fatalf("expected empty staging dir, found %d entries", len(staging))
	}
}

func TestPostUsers_ConflictDiscardsPicture(t *testing.T) {
	app, _, publicDir := makeAppWithUserHandler(t, []User{{ID: 1, Email: "ann@x.com"}})

	res, err := app.Test(multipartRequest(t, annFields("create"), "me.png", []byte("png-bytes")))
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", res.StatusCode)
	}

	entries, _ := os.ReadDir(filepath.Join(publicDir, "uploads"))
	for _, e := range entries {
		if !e.IsDir() {
			t.Fatalf("unexpected committed file %s", e.Name())
		}
	}
	staging, _ := os.ReadDir(filepath.Join(publicDir, "uploads", ".staging"))
	if len(staging) != 0 {
		t.Fatalf("expected empty staging dir, found %d entries", len(staging))
	}
}

func TestPostUsers_UpdateValidationFailure(t *testing.T) {
	app, repo, _ := makeAppWithUserHandler(t, seededAnn())

	fields := annFields("update")
	fields["id"] = []string{"1"}
	fields["age"] = []string{"abc"}
	fields["name"] = []string{"Anna"}

	res, err := app.Test(multipartRequest(t, fields, "", nil))
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	var body map[string]any
	decodeBody(t, res, &body)
	if body["error"] != "All fields are required" {
		t.Fatalf("unexpected body %v", body)
	}
	if got, _ := body["fields"].([]any); len(got) != 1 || got[0] != "age" {
		t.Fatalf("unexpected fields %v", body["fields"])
	}

	stored, _ := repo.GetByID(context.Background(), 1)
	if stored.Name != "Ann" || stored.Age != 30 {
		t.Fatalf("record changed: %+v", stored)
	}
}

func TestPostUsers_URLEncodedSkillsBrackets(t *testing.T) {
	app, repo, _ := makeAppWithUserHandler(t, seededAnn())

	form := url.Values{}
	form.Set("_intent", "update")
	form.Set("id", "1")
	form.Set("name", "Ann")
	form.Set("age", "31")
	form.Set("email", "ann@x.com")
	form.Set("dob", "1995-01-01")
	form.Set("gender", "Female")
	form.Add("skills[]", "Java")
	form.Add("skills[]", "JS")
	form.Set("bio", "updated")

	req := httptest.NewRequest("POST", "/users", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	stored, _ := repo.GetByID(context.Background(), 1)
	if strings.Join(stored.Skills, ",") != "Java,JS" || stored.Bio != "updated" || stored.Age != 31 {
		t.Fatalf("unexpected record %+v", stored)
	}
}

func TestPostUsers_UnknownIntentAndDelete(t *testing.T) {
	app, repo, _ := makeAppWithUserHandler(t, seededAnn())

	res, err := app.Test(multipartRequest(t, map[string][]string{"_intent": {"foo"}, "id": {"1"}}, "", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	var body map[string]any
	decodeBody(t, res, &body)
	if body["error"] != "Invalid action" {
		t.Fatalf("unexpected body %v", body)
	}

	for i := 0; i < 2; i++ {
		res, err = app.Test(multipartRequest(t, map[string][]string{"_intent": {"delete"}, "id": {"1"}}, "", nil))
		if err != nil {
			t.Fatalf("delete request failed: %v", err)
		}
		if res.StatusCode != fiber.StatusOK {
			t.Fatalf("delete #%d: expected 200, got %d", i+1, res.StatusCode)
		}
	}
	if users, _ := repo.List(context.Background()); len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
}

func TestPostUsers_HTMLClientRedirectedAfterSuccess(t *testing.T) {
	app, _, _ := makeAppWithUserHandler(t, nil)

	req := multipartRequest(t, annFields("create"), "", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.StatusCode)
	}
	location := res.Header.Get("Location")
	if location != "/?done=create" {
		t.Fatalf("unexpected location %q", location)
	}

	res, err = app.Test(httptest.NewRequest("GET", location, nil))
	if err != nil {
		t.Fatalf("page request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html, got %s", ct)
	}
	b, _ := io.ReadAll(res.Body)
	page := string(b)
	for _, want := range []string{"User created successfully!", "ann@x.com", "JS,Python", "No Image", `value="create"`} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestPostUsers_HTMLClientFailureRendersPage(t *testing.T) {
	app, _, _ := makeAppWithUserHandler(t, seededAnn())

	fields := annFields("update")
	fields["id"] = []string{"1"}
	fields["name"] = []string{"Anna"}
	fields["bio"] = []string{""}
	req := multipartRequest(t, fields, "", nil)
	req.Header.Set("Accept", "text/html")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	page := string(b)
	for _, want := range []string{"All fields are required", `name="name" value="Anna"`, `name="id" value="1"`, `value="update"`} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestGetPage_UnknownDoneShowsNoBanner(t *testing.T) {
	app, _, _ := makeAppWithUserHandler(t, nil)

	res, err := app.Test(httptest.NewRequest("GET", "/?done=foo", nil))
	if err != nil {
		t.Fatalf("page request failed: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	if strings.Contains(string(b), "successfully") {
		t.Fatalf("unexpected banner for unknown intent")
	}
}

func TestGetPage_EditMode(t *testing.T) {
	app, _, _ := makeAppWithUserHandler(t, seededAnn())

	res, err := app.Test(httptest.NewRequest("GET", "/?edit=1", nil))
	if err != nil {
		t.Fatalf("page request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	page := string(b)
	for _, want := range []string{`name="id" value="1"`, `value="update"`, `name="name" value="Ann"`, "Cancel"} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}

	res, err = app.Test(httptest.NewRequest("GET", "/?edit=9", nil))
	if err != nil {
		t.Fatalf("page request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestGetPage_EmptyTable(t *testing.T) {
	app, _, _ := makeAppWithUserHandler(t, nil)

	res, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("page request failed: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "No data available") {
		t.Fatalf("expected empty placeholder row")
	}
}
