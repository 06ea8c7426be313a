// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// Order is a whitelisted ORDER BY clause for category listings.
type Order string

const (
	OrderPublishedDesc Order = "c.published_at DESC, c.id DESC"
)

func (o Order) valid() bool {
	switch o {
	case OrderPublishedDesc:
		return true
	}
	return false
}

// minSearchTermLen is the shortest term Search matches on.
const minSearchTermLen = 2

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db, now: time.Now}
}

// categorySelect joins the author so listings can show the display name.
const categorySelect = `
	SELECT c.id, c.title, c.slug, c.author_id, c.published_at, c.updated_at,
	       u.display_name
	FROM categories c
	JOIN users u ON u.id = c.author_id`

// scanCategory scans a row produced by categorySelect.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Title, &c.Slug, &c.AuthorID,
		&c.PublishedAt, &c.UpdatedAt, &c.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) queryList(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByAuthor returns every category written by authorID in the given order.
func (s *CategoryStore) FindByAuthor(ctx context.Context, authorID uuid.UUID, order Order) ([]models.Category, error) {
	if !order.valid() {
		return nil, fmt.Errorf("find categories by author: invalid order %q", order)
	}
	items, err := s.queryList(ctx,
		categorySelect+` WHERE c.author_id = $1 ORDER BY `+string(order),
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("find categories by author: %w", err)
	}
	return items, nil
}

// FindLatest returns the given 1-indexed page of already published
// categories, newest first. Pages past the end are empty.
func (s *CategoryStore) FindLatest(ctx context.Context, page int) (*Paginator, error) {
	if page < 1 {
		page = 1
	}
	now := s.now()

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE published_at <= $1`, now,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count latest categories: %w", err)
	}

	// Checked before offset so huge page numbers cannot overflow it.
	p := &Paginator{CurrentPage: page, PageSize: PageSize, Total: total}
	if total == 0 || page > p.LastPage() {
		return p, nil
	}

	items, err := s.queryList(ctx,
		categorySelect+` WHERE c.published_at <= $1
		ORDER BY `+string(OrderPublishedDesc)+` LIMIT $2 OFFSET $3`,
		now, PageSize, p.offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("find latest categories: %w", err)
	}
	p.Items = items
	return p, nil
}

// Search returns up to limit categories whose title contains any of the
// terms in query, newest first. A query with no usable terms matches
// nothing and does not hit the database.
func (s *CategoryStore) Search(ctx context.Context, query string, limit int) ([]models.Category, error) {
	terms := SearchTerms(query)
	if len(terms) == 0 || limit < 1 {
		return nil, nil
	}

	conds := make([]string, len(terms))
	args := make([]any, 0, len(terms)+1)
	for i, term := range terms {
		conds[i] = fmt.Sprintf("c.title ILIKE $%d", i+1)
		args = append(args, "%"+escapeLike(term)+"%")
	}
	args = append(args, limit)

	items, err := s.queryList(ctx,
		categorySelect+` WHERE `+strings.Join(conds, " OR ")+
			` ORDER BY `+string(OrderPublishedDesc)+
			fmt.Sprintf(` LIMIT $%d`, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}
	return items, nil
}

// SearchTerms splits a free-text query into unique terms of at least two
// characters, preserving first-seen order.
func SearchTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, term := range strings.Fields(query) {
		if utf8.RuneCountInString(term) < minSearchTermLen || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

// escapeLike neutralises LIKE metacharacters so terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, categorySelect+` WHERE c.id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, categorySelect+` WHERE c.slug = $1`, slug)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// SlugTaken reports whether another category (any id but exceptID) already
// uses slug. Pass 0 for a category that has not been saved yet.
func (s *CategoryStore) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`,
		slug, exceptID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check category slug: %w", err)
	}
	return taken, nil
}

// Save inserts a new category or updates the title and slug of an existing
// one. The author is only written on insert. Generated columns are copied
// back into c.
func (s *CategoryStore) Save(ctx context.Context, c *models.Category) error {
	if c.IsNew() {
		var publishedAt any
		if !c.PublishedAt.IsZero() {
			publishedAt = c.PublishedAt
		}
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO categories (title, slug, author_id, published_at)
			VALUES ($1, $2, $3, COALESCE($4::timestamptz, NOW()))
			RETURNING id, published_at, updated_at`,
			c.Title, c.Slug, c.AuthorID, publishedAt,
		).Scan(&c.ID, &c.PublishedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	}

	err := s.db.QueryRowContext(ctx, `
		UPDATE categories SET title = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at`,
		c.Title, c.Slug, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return nil
}

// Delete removes a category.
func (s *CategoryStore) Delete(ctx context.Context, c *models.Category) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, c.ID)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete category %d: %w", c.ID, sql.ErrNoRows)
	}
	return nil
}
