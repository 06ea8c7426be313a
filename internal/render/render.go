// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the admin interface
// and the public site, plus JSON and XML writers. Admin pages support
// full-page and HTMX partial rendering, detected via the HX-Request header.
package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"blogpress/internal/middleware"
	"blogpress/internal/session"
)

//go:embed templates/admin/*.html templates/public/*.html
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title     string          // Page title for <title> tag
	Section   string          // Active navigation section (e.g., "categories")
	SiteTitle string          // Site name shown in layouts and feeds
	Session   *session.Data   // Current user session (nil if unauthenticated)
	CSRFToken string          // CSRF token for forms and HTMX headers
	Data      map[string]any  // Page-specific data
	Flashes   []session.Flash // One-time notification messages
}

// FlashSource yields the pending flashes of the request's session and
// clears them.
type FlashSource interface {
	PopFlashes(ctx context.Context, r *http.Request) ([]session.Flash, error)
}

// Renderer handles template parsing and execution.
type Renderer struct {
	admin     map[string]*template.Template
	public    map[string]*template.Template
	funcMap   template.FuncMap
	flashes   FlashSource
	siteTitle string
}

// standaloneTemplates lists admin templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// New parses the admin and public template sets from the embedded
// filesystem. Each page template is paired with its layout's base.html.
// The admin layout loads a pinned HTMX build from unpkg, unminified when
// devMode is true. flashes may be nil, in which case admin pages render
// without flash messages.
func New(devMode bool, siteTitle string, flashes FlashSource) (*Renderer, error) {
	r := &Renderer{
		flashes:   flashes,
		siteTitle: siteTitle,
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "active"
				}
				return ""
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			"isDev": func() bool {
				return devMode
			},
			"date": func(t time.Time) string {
				return t.Format("Jan 02, 2006")
			},
			"rfc3339": func(t time.Time) string {
				return t.Format(time.RFC3339)
			},
		},
	}

	var err error
	if r.admin, err = r.parseSet("admin", standaloneTemplates); err != nil {
		return nil, err
	}
	if r.public, err = r.parseSet("public", nil); err != nil {
		return nil, err
	}
	return r, nil
}

// parseSet parses every page under templates/<set>/ paired with that
// set's base.html, except standalone pages which are parsed alone.
func (rn *Renderer) parseSet(set string, standalone map[string]bool) (map[string]*template.Template, error) {
	dir := "templates/" + set
	pages, err := fs.Glob(templateFS, dir+"/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob %s templates: %w", set, err)
	}

	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := path.Base(page)
		if name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		if standalone[tmplName] {
			tmpl, err = template.New(name).Funcs(rn.funcMap).ParseFS(templateFS, page)
		} else {
			tmpl, err = template.New("base.html").Funcs(rn.funcMap).ParseFS(templateFS, dir+"/base.html", page)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s template %s: %w", set, name, err)
		}
		out[tmplName] = tmpl
	}
	return out, nil
}

// Page renders an admin page with status 200. See PageStatus.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a full admin page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.admin[name]
	if !ok {
		slog.Error("admin template not found", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rn.prepare(r, data)
	if rn.flashes != nil && data.Session != nil {
		flashes, err := rn.flashes.PopFlashes(r.Context(), r)
		if err != nil {
			slog.Warn("flash read failed", "error", err)
		}
		data.Flashes = append(data.Flashes, flashes...)
	}

	execName := "base.html"
	switch {
	case isHTMX(r) && !standaloneTemplates[name]:
		execName = "content"
	case standaloneTemplates[name]:
		execName = name + ".html"
	}

	rn.execute(w, status, tmpl, execName, data)
}

// Public renders a page of the public site with status 200.
func (rn *Renderer) Public(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.public[name]
	if !ok {
		slog.Error("public template not found", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rn.prepare(r, data)
	rn.execute(w, http.StatusOK, tmpl, "base.html", data)
}

// JSON writes v as a JSON document with the given status.
func (rn *Renderer) JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("json encode failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// XML writes v as an XML document, prefixed with the XML declaration.
func (rn *Renderer) XML(w http.ResponseWriter, status int, contentType string, v any) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Error("xml encode failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write([]byte(xml.Header))
	w.Write(body)
}

// prepare fills the request-scoped fields of data.
func (rn *Renderer) prepare(r *http.Request, data *PageData) {
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	if data.SiteTitle == "" {
		data.SiteTitle = rn.siteTitle
	}
}

// execute renders into a buffer first so a failing template yields a clean
// 500 instead of a half-written page.
func (rn *Renderer) execute(w http.ResponseWriter, status int, tmpl *template.Template, name string, data *PageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
