package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/apperr"
	"blogpress/internal/authz"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
)

type categoryCtxKey struct{}

// CategoryByID loads the category named by the {id} route parameter into
// the request context. Unknown or malformed ids are answered with 404.
func CategoryByID(finder CategoryFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil || id < 1 {
				apperr.Write(w, r, apperr.ErrNotFound)
				return
			}
			c, err := finder.FindByID(r.Context(), id)
			serveResolved(w, r, next, c, err)
		})
	}
}

// CategoryBySlug loads the category named by the {slug} route parameter
// into the request context. Unknown slugs are answered with 404.
func CategoryBySlug(finder CategoryFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := finder.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
			serveResolved(w, r, next, c, err)
		})
	}
}

func serveResolved(w http.ResponseWriter, r *http.Request, next http.Handler, c *models.Category, err error) {
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	if c == nil {
		apperr.Write(w, r, apperr.ErrNotFound)
		return
	}
	next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), categoryCtxKey{}, c)))
}

// categoryFromCtx returns the category placed by CategoryByID or
// CategoryBySlug.
func categoryFromCtx(ctx context.Context) *models.Category {
	c, _ := ctx.Value(categoryCtxKey{}).(*models.Category)
	return c
}

// RequireGrant refuses the request with 403 unless the session user may
// perform action on the resolved category. Must run after a resolver.
func RequireGrant(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := actorOf(middleware.SessionFromCtx(r.Context()))
			if d := authz.Check(action, actor, categoryFromCtx(r.Context())); !d.Granted {
				apperr.Write(w, r, apperr.Forbidden(d.Reason))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
