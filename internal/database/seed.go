package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blogpress/internal/slug"
)

// Default development credentials created by Seed.
const (
	SeedAdminEmail    = "admin@blogpress.local"
	SeedAdminPassword = "admin"
)

// sampleCategories are inserted for the seeded admin so the public pages
// have something to show in development.
var sampleCategories = []string{
	"Announcements",
	"Go Programming",
	"Web Development",
	"Databases & Storage",
	"Tutorials",
	"Release Notes",
}

// Seed populates the database with initial development data.
// It creates a default admin user and a handful of categories if no users
// exist yet. The admin is prompted to set up 2FA on first login.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var adminID string
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, SeedAdminEmail, string(hash), "Admin", "admin", false).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// Stagger publish dates so ordering is visible in the listings.
	now := time.Now()
	for i, title := range sampleCategories {
		publishedAt := now.Add(-time.Duration(len(sampleCategories)-i) * time.Hour)
		if _, err := tx.Exec(`
			INSERT INTO categories (title, slug, author_id, published_at)
			VALUES ($1, $2, $3, $4)
		`, title, slug.Generate(title), adminID, publishedAt); err != nil {
			return fmt.Errorf("seed insert category %q: %w", title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", SeedAdminEmail,
		"password", SeedAdminPassword,
		"categories", len(sampleCategories),
	)

	return nil
}
