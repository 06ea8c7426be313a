// Package router sets up all HTTP routes and middleware chains for
// BlogPress. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/authz"
	"blogpress/internal/handlers"
	"blogpress/internal/metrics"
	"blogpress/internal/middleware"
	"blogpress/web"
)

// Deps holds everything the router wires together.
type Deps struct {
	Sessions     middleware.SessionLoader
	Categories   handlers.CategoryFinder
	CSRF         *middleware.CSRF
	LoginLimiter *middleware.RateLimiter
	Auth         *handlers.Auth
	Admin        *handlers.AdminCategory
	Public       *handlers.PublicCategory
	HSTS         bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(metrics.Instrument)
	r.Use(middleware.SecureHeaders(d.HSTS))
	r.Use(middleware.LoadSession(d.Sessions))
	r.Use(d.CSRF.Issue)

	// No auth, no CSRF.
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/category/", http.StatusFound)
	})

	byID := handlers.CategoryByID(d.Categories)

	r.Route("/admin", func(r chi.Router) {
		// Accessible without a session.
		r.Get("/login", d.Auth.LoginPage)
		r.With(d.CSRF.Verify, d.LoginLimiter.Middleware).Post("/login", d.Auth.LoginSubmit)
		r.With(d.CSRF.Verify).Post("/logout", d.Auth.Logout)

		// 2FA requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.With(d.CSRF.Verify).Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)
		})

		// Authenticated, 2FA-verified administrators.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)

			r.Group(func(r chi.Router) {
				r.Use(d.CSRF.Verify)

				r.Get("/", d.Admin.List)
				r.Get("/category/", d.Admin.List)
				r.Get("/category/new", d.Admin.New)
				r.Post("/category/new", d.Admin.New)
				r.With(byID).Get(`/category/{id:\d+}`, d.Admin.Show)
				r.With(byID, handlers.RequireGrant(authz.Edit)).Get(`/category/{id:\d+}/edit`, d.Admin.Edit)
				r.With(byID, handlers.RequireGrant(authz.Edit)).Post(`/category/{id:\d+}/edit`, d.Admin.Edit)
			})

			// Delete checks its own scoped token so a stale form
			// redirects instead of failing with 403.
			r.With(byID, handlers.RequireGrant(authz.Delete)).Post(`/category/{id:\d+}/delete`, d.Admin.Delete)
		})
	})

	r.Route("/category", func(r chi.Router) {
		r.Get("/", d.Public.List)
		r.Get("/rss.xml", d.Public.RSS)
		r.Get(`/page/{page:[1-9]\d*}`, d.Public.Page)
		r.Get("/search", d.Public.Search)
		r.With(handlers.CategoryBySlug(d.Categories)).Get("/categories/{slug}", d.Public.Show)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
