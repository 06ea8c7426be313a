// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers for the admin category
// CRUD, the public category pages, and the login/2FA flow. Handlers are
// thin: fetch via the store, check permission, bind and validate the form,
// persist, then redirect or render.
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"blogpress/internal/authz"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

// CategoryStore is the persistence the category handlers need.
// *store.CategoryStore satisfies it.
type CategoryStore interface {
	CategoryFinder
	FindByAuthor(ctx context.Context, authorID uuid.UUID, order store.Order) ([]models.Category, error)
	FindLatest(ctx context.Context, page int) (*store.Paginator, error)
	Search(ctx context.Context, query string, limit int) ([]models.Category, error)
	SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error)
	Save(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, c *models.Category) error
}

// CategoryFinder looks up a single category. Not found is (nil, nil).
type CategoryFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// Flasher queues a one-shot message for the next page the user sees.
// *session.Store satisfies it.
type Flasher interface {
	AddFlash(ctx context.Context, r *http.Request, typ, message string) error
}

// actorHandler is a handler that needs the authenticated user.
type actorHandler func(w http.ResponseWriter, r *http.Request, actor *session.Data)

// withActor calls h with the session user. Requests without one are sent
// to the login page; RequireAuth normally stops them earlier.
func withActor(w http.ResponseWriter, r *http.Request, h actorHandler) {
	actor := middleware.SessionFromCtx(r.Context())
	if actor == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	h(w, r, actor)
}

// actorOf converts session data into the identity the permission rules
// evaluate.
func actorOf(d *session.Data) authz.Actor {
	if d == nil {
		return authz.Actor{}
	}
	return authz.Actor{UserID: d.UserID, Role: d.Role}
}
