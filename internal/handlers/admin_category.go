// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"blogpress/internal/apperr"
	"blogpress/internal/authz"
	"blogpress/internal/metrics"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/render"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

// deleteScope is the CSRF intention delete forms are bound to.
const deleteScope = "delete"

// AdminCategory groups the admin category CRUD handlers. Every handler
// runs behind RequireAuth, Require2FA and RequireAdmin.
type AdminCategory struct {
	renderer *render.Renderer
	cats     CategoryStore
	flash    Flasher
}

// NewAdminCategory creates the admin category handler group.
func NewAdminCategory(renderer *render.Renderer, cats CategoryStore, flash Flasher) *AdminCategory {
	return &AdminCategory{renderer: renderer, cats: cats, flash: flash}
}

// List shows the current user's categories, newest first.
func (h *AdminCategory) List(w http.ResponseWriter, r *http.Request) {
	withActor(w, r, h.list)
}

func (h *AdminCategory) list(w http.ResponseWriter, r *http.Request, actor *session.Data) {
	cats, err := h.cats.FindByAuthor(r.Context(), actor.UserID, store.OrderPublishedDesc)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	h.renderer.Page(w, r, "category_list", &render.PageData{
		Title:   "Category list",
		Section: "categories",
		Data:    map[string]any{"Categories": cats},
	})
}

// New renders the creation form (GET) or creates a category (POST).
func (h *AdminCategory) New(w http.ResponseWriter, r *http.Request) {
	withActor(w, r, h.new)
}

func (h *AdminCategory) new(w http.ResponseWriter, r *http.Request, actor *session.Data) {
	c := models.NewCategory(actor.UserID)

	if r.Method != http.MethodPost {
		h.renderForm(w, r, http.StatusOK, c, CategoryForm{}, nil)
		return
	}

	form := bindCategoryForm(r)
	errs, err := validateCategoryForm(r.Context(), h.cats, form, 0)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	if errs != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, c, form, errs)
		return
	}

	c.Title = form.Title
	c.RefreshSlug()
	if err := h.cats.Save(r.Context(), c); err != nil {
		apperr.Write(w, r, err)
		return
	}
	metrics.RecordCategoryMutation("create")
	slog.Info("category created", "id", c.ID, "slug", c.Slug, "author", actor.UserID)
	h.addFlash(r, "Category created successfully.")

	if r.PostFormValue("action") == "saveAndCreateNew" {
		http.Redirect(w, r, "/admin/category/new", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/category/", http.StatusSeeOther)
}

// Show displays one category to its author.
func (h *AdminCategory) Show(w http.ResponseWriter, r *http.Request) {
	withActor(w, r, h.show)
}

func (h *AdminCategory) show(w http.ResponseWriter, r *http.Request, actor *session.Data) {
	c := categoryFromCtx(r.Context())
	if d := authz.Check(authz.Show, actorOf(actor), c); !d.Granted {
		apperr.Write(w, r, apperr.Forbidden(d.Reason))
		return
	}

	h.renderer.Page(w, r, "category_show", &render.PageData{
		Title:   c.Title,
		Section: "categories",
		Data: map[string]any{
			"Category":    c,
			"DeleteToken": middleware.ScopedCSRFToken(r.Context(), deleteScope),
		},
	})
}

// Edit renders the edit form (GET) or updates the title and slug (POST).
// RequireGrant(authz.Edit) has already run.
func (h *AdminCategory) Edit(w http.ResponseWriter, r *http.Request) {
	withActor(w, r, h.edit)
}

func (h *AdminCategory) edit(w http.ResponseWriter, r *http.Request, actor *session.Data) {
	c := categoryFromCtx(r.Context())

	if r.Method != http.MethodPost {
		h.renderForm(w, r, http.StatusOK, c, CategoryForm{Title: c.Title}, nil)
		return
	}

	form := bindCategoryForm(r)
	errs, err := validateCategoryForm(r.Context(), h.cats, form, c.ID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	if errs != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, c, form, errs)
		return
	}

	c.Title = form.Title
	c.RefreshSlug()
	if err := h.cats.Save(r.Context(), c); err != nil {
		apperr.Write(w, r, err)
		return
	}
	metrics.RecordCategoryMutation("update")
	slog.Info("category updated", "id", c.ID, "slug", c.Slug, "by", actor.UserID)
	h.addFlash(r, "Category updated successfully.")

	http.Redirect(w, r, fmt.Sprintf("/admin/category/%d/edit", c.ID), http.StatusSeeOther)
}

// Delete removes a category when the form carries a valid delete-scoped
// CSRF token. An invalid token redirects to the list without deleting.
// RequireGrant(authz.Delete) has already run.
func (h *AdminCategory) Delete(w http.ResponseWriter, r *http.Request) {
	withActor(w, r, h.delete)
}

func (h *AdminCategory) delete(w http.ResponseWriter, r *http.Request, actor *session.Data) {
	c := categoryFromCtx(r.Context())

	if !middleware.ValidScopedCSRFToken(r.Context(), deleteScope, r.PostFormValue("token")) {
		http.Redirect(w, r, "/admin/category/", http.StatusSeeOther)
		return
	}

	if err := h.cats.Delete(r.Context(), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperr.ErrNotFound
		}
		apperr.Write(w, r, err)
		return
	}
	metrics.RecordCategoryMutation("delete")
	slog.Info("category deleted", "id", c.ID, "slug", c.Slug, "by", actor.UserID)
	h.addFlash(r, "Category deleted successfully.")

	http.Redirect(w, r, "/admin/category/", http.StatusSeeOther)
}

func (h *AdminCategory) renderForm(w http.ResponseWriter, r *http.Request, status int, c *models.Category, form CategoryForm, errs map[string]string) {
	title := "Create new category"
	data := map[string]any{
		"Category": c,
		"Form":     form,
		"Errors":   errs,
		"IsNew":    c.IsNew(),
	}
	if !c.IsNew() {
		title = "Edit category"
		data["DeleteToken"] = middleware.ScopedCSRFToken(r.Context(), deleteScope)
	}

	h.renderer.PageStatus(w, r, status, "category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data:    data,
	})
}

// addFlash queues a success message. A failure only costs the message.
func (h *AdminCategory) addFlash(r *http.Request, message string) {
	if err := h.flash.AddFlash(r.Context(), r, session.FlashSuccess, message); err != nil {
		slog.Warn("flash not stored", "error", err)
	}
}
