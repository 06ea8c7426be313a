package render

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

// helperSession returns a session.Data suitable for rendering admin templates.
func helperSession() *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@blogpress.local",
		DisplayName: "Test User",
		Role:        models.RoleAdmin,
		TwoFADone:   true,
	}
}

// serve runs fn behind the CSRF Issue middleware so the request context
// carries a token, with sess loaded when non-nil.
func serve(t *testing.T, req *http.Request, sess *session.Data, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: "csrf-test-token"})
	rr := httptest.NewRecorder()
	middleware.NewCSRF(false).Issue(fn).ServeHTTP(rr, req)
	return rr
}

type fakeFlashes struct {
	queue []session.Flash
	calls int
	err   error
}

func (f *fakeFlashes) PopFlashes(context.Context, *http.Request) ([]session.Flash, error) {
	f.calls++
	out := f.queue
	f.queue = nil
	return out, f.err
}

func newRenderer(t *testing.T, flashes FlashSource) *Renderer {
	t.Helper()
	rn, err := New(false, "Test Blog", flashes)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rn
}

func sampleCategory() models.Category {
	return models.Category{
		ID:          7,
		Title:       "Go <Tips>",
		Slug:        "go-tips",
		AuthorID:    uuid.New(),
		AuthorName:  "Alice",
		PublishedAt: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewParsesAllTemplates(t *testing.T) {
	for _, dev := range []bool{true, false} {
		rn, err := New(dev, "Blog", nil)
		if err != nil {
			t.Fatalf("New(devMode=%v): %v", dev, err)
		}
		for _, name := range []string{"category_list", "category_form", "category_show", "login", "2fa_setup", "2fa_verify"} {
			if _, ok := rn.admin[name]; !ok {
				t.Errorf("admin template %q missing", name)
			}
		}
		for _, name := range []string{"category_list", "category_show", "search"} {
			if _, ok := rn.public[name]; !ok {
				t.Errorf("public template %q missing", name)
			}
		}
		if _, ok := rn.admin["base"]; ok {
			t.Error("base layout must not be registered as a page")
		}
	}
}

func TestPageFullAndPartial(t *testing.T) {
	rn := newRenderer(t, nil)
	c := sampleCategory()
	render := func(w http.ResponseWriter, r *http.Request) {
		rn.Page(w, r, "category_list", &PageData{
			Title:   "My categories",
			Section: "categories",
			Data:    map[string]any{"Categories": []models.Category{c}},
		})
	}

	full := serve(t, httptest.NewRequest(http.MethodGet, "/admin/category/", nil), helperSession(), render)
	if full.Code != http.StatusOK {
		t.Fatalf("status: got %d", full.Code)
	}
	body := full.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "Go &lt;Tips&gt;", "/admin/category/7/edit", "Mar 05, 2026", `"X-CSRF-Token": "csrf-test-token"`, "Test User"} {
		if !strings.Contains(body, want) {
			t.Errorf("full page missing %q", want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/category/", nil)
	req.Header.Set("HX-Request", "true")
	partial := serve(t, req, helperSession(), render)
	if strings.Contains(partial.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX partial should not include the layout")
	}
	if !strings.Contains(partial.Body.String(), "/admin/category/7/edit") {
		t.Error("HTMX partial should include the content block")
	}
}

func TestPageStatusRendersFormErrors(t *testing.T) {
	rn := newRenderer(t, nil)
	rr := serve(t, httptest.NewRequest(http.MethodPost, "/admin/category/new", nil), helperSession(),
		func(w http.ResponseWriter, r *http.Request) {
			rn.PageStatus(w, r, http.StatusUnprocessableEntity, "category_form", &PageData{
				Title: "Create new category",
				Data: map[string]any{
					"Category": &models.Category{},
					"Form":     struct{ Title string }{Title: ""},
					"Errors":   map[string]string{"title": "This value should not be blank."},
					"IsNew":    true,
				},
			})
		})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "This value should not be blank.") {
		t.Error("expected field error in body")
	}
	if !strings.Contains(body, `value="saveAndCreateNew"`) {
		t.Error("new form should offer save-and-create-new")
	}
}

func TestStandaloneTemplatesIgnoreHTMX(t *testing.T) {
	rn := newRenderer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req.Header.Set("HX-Request", "true")
	rr := serve(t, req, nil, func(w http.ResponseWriter, r *http.Request) {
		rn.Page(w, r, "login", &PageData{Title: "Sign In"})
	})

	body := rr.Body.String()
	if !strings.Contains(body, "<!DOCTYPE html>") || !strings.Contains(body, `name="csrf_token" value="csrf-test-token"`) {
		t.Errorf("login page not rendered as a standalone document: %s", body)
	}
}

func TestMissingTemplate(t *testing.T) {
	rn := newRenderer(t, nil)
	rr := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(w http.ResponseWriter, r *http.Request) {
		rn.Page(w, r, "nope", &PageData{})
	})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("admin: got %d, want 500", rr.Code)
	}

	rr = serve(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(w http.ResponseWriter, r *http.Request) {
		rn.Public(w, r, "nope", &PageData{})
	})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("public: got %d, want 500", rr.Code)
	}
}

func TestFlashesPoppedOnlyWithSession(t *testing.T) {
	flashes := &fakeFlashes{queue: []session.Flash{{Type: session.FlashSuccess, Message: "Category created successfully."}}}
	rn := newRenderer(t, flashes)
	page := func(w http.ResponseWriter, r *http.Request) {
		rn.Page(w, r, "category_list", &PageData{Title: "My categories"})
	}

	serve(t, httptest.NewRequest(http.MethodGet, "/admin/category/", nil), nil, page)
	if flashes.calls != 0 {
		t.Error("flashes must not be read without a session")
	}

	rr := serve(t, httptest.NewRequest(http.MethodGet, "/admin/category/", nil), helperSession(), page)
	if !strings.Contains(rr.Body.String(), "Category created successfully.") {
		t.Error("expected flash message on the page")
	}

	rr = serve(t, httptest.NewRequest(http.MethodGet, "/admin/category/", nil), helperSession(), page)
	if strings.Contains(rr.Body.String(), "Category created successfully.") {
		t.Error("flash must only be shown once")
	}
}

func TestPublicPagesLeaveFlashesQueued(t *testing.T) {
	flashes := &fakeFlashes{queue: []session.Flash{{Type: session.FlashSuccess, Message: "Category updated successfully."}}}
	rn := newRenderer(t, flashes)
	p := &store.Paginator{CurrentPage: 1, PageSize: 10}

	serve(t, httptest.NewRequest(http.MethodGet, "/category/", nil), helperSession(),
		func(w http.ResponseWriter, r *http.Request) {
			rn.Public(w, r, "category_list", &PageData{Title: "Categories", Data: map[string]any{"Paginator": p}})
		})
	if flashes.calls != 0 {
		t.Fatalf("public render read flashes %d times", flashes.calls)
	}

	rr := serve(t, httptest.NewRequest(http.MethodGet, "/admin/category/", nil), helperSession(),
		func(w http.ResponseWriter, r *http.Request) {
			rn.Page(w, r, "category_list", &PageData{Title: "My categories"})
		})
	if !strings.Contains(rr.Body.String(), "Category updated successfully.") {
		t.Error("flash should survive a public page view and show on the next admin page")
	}
}

func TestAdminLayoutSwapsValidationErrors(t *testing.T) {
	rn := newRenderer(t, nil)
	rr := serve(t, httptest.NewRequest(http.MethodGet, "/admin/category/", nil), helperSession(),
		func(w http.ResponseWriter, r *http.Request) {
			rn.Page(w, r, "category_list", &PageData{Title: "My categories"})
		})

	body := rr.Body.String()
	if !strings.Contains(body, `hx-boost="true"`) {
		t.Fatal("admin layout should boost links and forms")
	}
	// htmx 2 discards 4xx bodies unless responseHandling opts in.
	if !strings.Contains(body, `<meta name="htmx-config"`) || !strings.Contains(body, `{"code":"422","swap":true}`) {
		t.Error("admin layout must let htmx swap 422 form responses")
	}
}

func TestFlashErrorStillRenders(t *testing.T) {
	rn := newRenderer(t, &fakeFlashes{err: errors.New("valkey down")})
	rr := serve(t, httptest.NewRequest(http.MethodGet, "/admin/category/", nil), helperSession(),
		func(w http.ResponseWriter, r *http.Request) {
			rn.Page(w, r, "category_list", &PageData{Title: "My categories"})
		})
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestPublicListPagination(t *testing.T) {
	rn := newRenderer(t, nil)
	p := &store.Paginator{Items: []models.Category{sampleCategory()}, CurrentPage: 2, PageSize: 10, Total: 25}

	rr := serve(t, httptest.NewRequest(http.MethodGet, "/category/page/2", nil), nil,
		func(w http.ResponseWriter, r *http.Request) {
			rn.Public(w, r, "category_list", &PageData{Title: "Categories", Section: "categories", Data: map[string]any{"Paginator": p}})
		})

	body := rr.Body.String()
	for _, want := range []string{
		`<title>Categories | Test Blog</title>`,
		`href="/category/categories/go-tips"`,
		`href="/category/page/1"`,
		`href="/category/page/3"`,
		`<span aria-current="page">2</span>`,
		`by Alice`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("public list missing %q", want)
		}
	}
}

func TestJSON(t *testing.T) {
	rn := newRenderer(t, nil)
	rr := httptest.NewRecorder()
	rn.JSON(rr, http.StatusOK, []map[string]string{{"title": "Go"}})

	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type: got %q", got)
	}
	if rr.Body.String() != `[{"title":"Go"}]` {
		t.Errorf("body: got %q", rr.Body.String())
	}
}

func TestXML(t *testing.T) {
	type doc struct {
		XMLName xml.Name `xml:"doc"`
		Name    string   `xml:"name"`
	}
	rn := newRenderer(t, nil)
	rr := httptest.NewRecorder()
	rn.XML(rr, http.StatusOK, "application/rss+xml; charset=utf-8", doc{Name: "a & b"})

	if got := rr.Header().Get("Content-Type"); got != "application/rss+xml; charset=utf-8" {
		t.Errorf("Content-Type: got %q", got)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing XML declaration: %q", body)
	}
	if !strings.Contains(body, "<name>a &amp; b</name>") {
		t.Errorf("body: got %q", body)
	}
}
