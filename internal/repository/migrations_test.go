package repository

import (
	"strings"
	"testing"
)

// Удаление пользователя в админке — жёсткое: все ссылающиеся на users строки
// должны уходить каскадом, иначе DELETE упадёт с нарушением внешнего ключа.
func TestMigrations_UserReferencesCascade(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migration files embedded")
	}

	for _, e := range entries {
		data, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}

		for i, line := range strings.Split(string(data), "\n") {
			if !strings.Contains(line, "REFERENCES users") {
				continue
			}
			if !strings.Contains(line, "ON DELETE") {
				t.Errorf("%s:%d: reference to users without ON DELETE action: %s",
					e.Name(), i+1, strings.TrimSpace(line))
			}
		}
	}
}
