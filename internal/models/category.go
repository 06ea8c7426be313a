// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"blogpress/internal/slug"
)

// Category is a blog category owned by the user who created it.
// The slug is derived from the title and never edited directly.
type Category struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	AuthorID    uuid.UUID `json:"author_id"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Virtual field populated by store joins on users.display_name.
	AuthorName string `json:"author_name"`
}

// NewCategory returns an unsaved category owned by authorID.
func NewCategory(authorID uuid.UUID) *Category {
	return &Category{AuthorID: authorID}
}

// IsNew reports whether the category has not been persisted yet.
func (c *Category) IsNew() bool {
	return c.ID == 0
}

// RefreshSlug recomputes the slug from the current title.
func (c *Category) RefreshSlug() {
	c.Slug = slug.Generate(c.Title)
}

// IsAuthoredBy reports whether userID owns the category.
func (c *Category) IsAuthoredBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && c.AuthorID == userID
}
