package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/apperr"
	"blogpress/internal/feed"
	"blogpress/internal/render"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100

	publicCacheControl = "public, s-maxage=10"
)

// PublicCategory groups the unauthenticated category pages: the paginated
// listing (HTML and RSS), live search and the detail page.
type PublicCategory struct {
	renderer  *render.Renderer
	cats      CategoryStore
	baseURL   string
	siteTitle string
}

// NewPublicCategory creates the public category handler group. baseURL is
// the external origin used for absolute links; when empty, it is derived
// from each request.
func NewPublicCategory(renderer *render.Renderer, cats CategoryStore, baseURL, siteTitle string) *PublicCategory {
	return &PublicCategory{
		renderer:  renderer,
		cats:      cats,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		siteTitle: siteTitle,
	}
}

// List renders the first page of the listing.
func (h *PublicCategory) List(w http.ResponseWriter, r *http.Request) {
	h.listHTML(w, r, 1)
}

// Page renders the page given by the {page} route parameter.
func (h *PublicCategory) Page(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		apperr.Write(w, r, apperr.ErrNotFound)
		return
	}
	h.listHTML(w, r, page)
}

func (h *PublicCategory) listHTML(w http.ResponseWriter, r *http.Request, page int) {
	p, err := h.cats.FindLatest(r.Context(), page)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", publicCacheControl)
	h.renderer.Public(w, r, "category_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Paginator": p},
	})
}

// RSS renders the first page of the listing as an RSS 2.0 feed.
func (h *PublicCategory) RSS(w http.ResponseWriter, r *http.Request) {
	p, err := h.cats.FindLatest(r.Context(), 1)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	base := h.origin(r)
	b := feed.Builder{
		Title:       h.siteTitle + " categories",
		Link:        base + "/category/",
		Description: "Latest categories published on " + h.siteTitle + ".",
		CategoryURL: func(slug string) string { return categoryURL(base, slug) },
	}

	w.Header().Set("Cache-Control", publicCacheControl)
	h.renderer.XML(w, http.StatusOK, feed.ContentType, b.Build(p.Items))
}

// searchResult is one entry of the live-search JSON response. Title and
// Author are HTML-escaped for direct insertion by the client.
type searchResult struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// Search renders the search page for normal requests. XMLHttpRequest calls
// get a JSON array of matches for query s, at most l of them.
func (h *PublicCategory) Search(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
		h.renderer.Public(w, r, "search", &render.PageData{
			Title:   "Search",
			Section: "search",
		})
		return
	}

	q := r.URL.Query()
	limit := parseSearchLimit(q.Get("l"))

	found, err := h.cats.Search(r.Context(), q.Get("s"), limit)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	base := h.origin(r)
	results := make([]searchResult, 0, len(found))
	for _, c := range found {
		results = append(results, searchResult{
			Title:  escapeHTML5Compat(c.Title),
			Date:   c.PublishedAt.Format("Jan 02, 2006"),
			Author: escapeHTML5Compat(c.AuthorName),
			URL:    categoryURL(base, c.Slug),
		})
	}

	h.renderer.JSON(w, http.StatusOK, results)
}

// Show renders the category resolved by CategoryBySlug. Anyone may view it.
func (h *PublicCategory) Show(w http.ResponseWriter, r *http.Request) {
	c := categoryFromCtx(r.Context())
	h.renderer.Public(w, r, "category_show", &render.PageData{
		Title:   c.Title,
		Section: "categories",
		Data:    map[string]any{"Category": c},
	})
}

// parseSearchLimit reads the l parameter. Missing, malformed or
// non-positive values fall back to the default; large ones are capped.
func parseSearchLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return defaultSearchLimit
	}
	return min(n, maxSearchLimit)
}

// htmlCompat escapes the characters htmlspecialchars escapes with
// ENT_COMPAT|ENT_HTML5: single quotes are left as they are.
var htmlCompat = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeHTML5Compat(s string) string {
	return htmlCompat.Replace(s)
}

// origin returns the configured base URL or, failing that, the scheme and
// host the request arrived on. Forwarding headers are ignored; production
// deployments must set the base URL.
func (h *PublicCategory) origin(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func categoryURL(base, slug string) string {
	return base + "/category/categories/" + url.PathEscape(slug)
}
