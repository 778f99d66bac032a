package database

import (
	"strings"
	"testing"
)

func TestMigrationsAreOrderedAndNonEmpty(t *testing.T) {
	names, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations out of order: %s before %s", names[i-1], names[i])
		}
	}
	for _, n := range names {
		body, err := migrationFS.ReadFile("migrations/" + n)
		if err != nil {
			t.Fatalf("read %s: %v", n, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			t.Errorf("%s is empty", n)
		}
	}
}

func TestInitialSchemaCascades(t *testing.T) {
	body, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sql := string(body)
	for _, want := range []string{
		"REFERENCES users(id) ON DELETE CASCADE",
		"REFERENCES accounts(id) ON DELETE CASCADE",
		"amount      NUMERIC(10, 2)",
		"email             VARCHAR(254) NOT NULL UNIQUE",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}
