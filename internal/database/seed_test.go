package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only writes into an empty users table, so calling it twice
	// must succeed without duplicating rows.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var users int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users < 1 {
		t.Errorf("expected at least 1 user, got %d", users)
	}

	// Every stored slug must match its title.
	rows, err := db.Query("SELECT title, slug FROM categories")
	if err != nil {
		t.Fatalf("query categories: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var title, s string
		if err := rows.Scan(&title, &s); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if s == "" {
			t.Errorf("category %q has empty slug", title)
		}
	}
}
