// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// an in-memory category store, a recording flasher, and a chi router wired
// the way the server wires the category routes.
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogpress/internal/authz"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/render"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

const testCSRF = "test-csrf-token"

// fakeCategoryStore is an in-memory CategoryStore.
type fakeCategoryStore struct {
	mu          sync.Mutex
	rows        map[int64]*models.Category
	nextID      int64
	searchCalls int
	saves       int
	deletes     int
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{rows: map[int64]*models.Category{}, nextID: 1}
}

// add inserts a category published at the given time and returns it.
func (f *fakeCategoryStore) add(title string, author uuid.UUID, authorName string, published time.Time) *models.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.Category{
		ID:          f.nextID,
		Title:       title,
		AuthorID:    author,
		AuthorName:  authorName,
		PublishedAt: published,
		UpdatedAt:   published,
	}
	c.RefreshSlug()
	f.rows[c.ID] = c
	f.nextID++
	return c
}

func (f *fakeCategoryStore) get(id int64) *models.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func (f *fakeCategoryStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeCategoryStore) sorted(keep func(*models.Category) bool) []models.Category {
	var out []models.Category
	for _, c := range f.rows {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

func (f *fakeCategoryStore) FindByAuthor(_ context.Context, authorID uuid.UUID, _ store.Order) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(c *models.Category) bool { return c.AuthorID == authorID }), nil
}

func (f *fakeCategoryStore) FindLatest(_ context.Context, page int) (*store.Paginator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(*models.Category) bool { return true })
	p := &store.Paginator{CurrentPage: page, PageSize: store.PageSize, Total: len(all)}
	if len(all) > 0 && page <= p.LastPage() {
		start := (page - 1) * store.PageSize
		p.Items = all[start:min(start+store.PageSize, len(all))]
	}
	return p, nil
}

func (f *fakeCategoryStore) Search(_ context.Context, query string, limit int) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	terms := store.SearchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	out := f.sorted(func(c *models.Category) bool {
		for _, t := range terms {
			if strings.Contains(strings.ToLower(c.Title), strings.ToLower(t)) {
				return true
			}
		}
		return false
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCategoryStore) FindByID(_ context.Context, id int64) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCategoryStore) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryStore) SlugTaken(_ context.Context, slug string, exceptID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.Slug == slug && c.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryStore) Save(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	now := time.Now()
	if c.IsNew() {
		c.ID = f.nextID
		f.nextID++
		c.PublishedAt = now
	}
	c.UpdatedAt = now
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeCategoryStore) Delete(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[c.ID]; !ok {
		return fmt.Errorf("delete category %d: %w", c.ID, sql.ErrNoRows)
	}
	f.deletes++
	delete(f.rows, c.ID)
	return nil
}

// fakeFlasher records flashes instead of storing them in Valkey.
type fakeFlasher struct {
	mu      sync.Mutex
	flashes []session.Flash
}

func (f *fakeFlasher) AddFlash(_ context.Context, _ *http.Request, typ, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, session.Flash{Type: typ, Message: message})
	return nil
}

func (f *fakeFlasher) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, fl := range f.flashes {
		out = append(out, fl.Message)
	}
	return out
}

// testEnv holds the wired handlers and their fakes.
type testEnv struct {
	Cats   *fakeCategoryStore
	Flash  *fakeFlasher
	Router http.Handler
	Alice  *session.Data
	Bob    *session.Data
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.New(true, "Test Blog", nil)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	env := &testEnv{
		Cats:  newFakeCategoryStore(),
		Flash: &fakeFlasher{},
		Alice: testSession("alice@blogpress.local", "Alice"),
		Bob:   testSession("bob@blogpress.local", "Bob"),
	}

	admin := NewAdminCategory(renderer, env.Cats, env.Flash)
	public := NewPublicCategory(renderer, env.Cats, "https://blog.example", "Test Blog")
	csrf := middleware.NewCSRF(false)

	r := chi.NewRouter()
	r.Use(csrf.Issue)
	r.Group(func(r chi.Router) {
		r.Use(csrf.Verify)
		r.Get("/admin/category/", admin.List)
		r.Get("/admin/category/new", admin.New)
		r.Post("/admin/category/new", admin.New)
		r.With(CategoryByID(env.Cats)).Get("/admin/category/{id:\\d+}", admin.Show)
		r.With(CategoryByID(env.Cats), RequireGrant(authz.Edit)).Get("/admin/category/{id:\\d+}/edit", admin.Edit)
		r.With(CategoryByID(env.Cats), RequireGrant(authz.Edit)).Post("/admin/category/{id:\\d+}/edit", admin.Edit)
	})
	r.With(CategoryByID(env.Cats), RequireGrant(authz.Delete)).Post("/admin/category/{id:\\d+}/delete", admin.Delete)

	r.Get("/category/", public.List)
	r.Get("/category/rss.xml", public.RSS)
	r.Get("/category/page/{page:[1-9]\\d*}", public.Page)
	r.Get("/category/search", public.Search)
	r.With(CategoryBySlug(env.Cats)).Get("/category/categories/{slug}", public.Show)

	env.Router = r
	return env
}

func testSession(email, name string) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       email,
		DisplayName: name,
		Role:        models.RoleAdmin,
		TwoFADone:   true,
	}
}

// do serves req as sess (nil for anonymous) with the test CSRF cookie.
func (e *testEnv) do(req *http.Request, sess *session.Data) *httptest.ResponseRecorder {
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: testCSRF})
	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, sess *session.Data) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), sess)
}

// post submits a form carrying the double-submit CSRF field.
func (e *testEnv) post(path string, form url.Values, sess *session.Data) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if !form.Has(middleware.CSRFFormField) {
		form.Set(middleware.CSRFFormField, testCSRF)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, sess)
}

// scopedToken returns the token a page rendered for the test CSRF cookie
// would carry for scope.
func scopedToken(scope string) string {
	var token string
	h := middleware.NewCSRF(false).Issue(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = middleware.ScopedCSRFToken(r.Context(), scope)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: testCSRF})
	h.ServeHTTP(httptest.NewRecorder(), req)
	return token
}
