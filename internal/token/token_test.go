package token

import (
	"testing"

	"github.com/mmeshcher/cardshop-system/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    42,
		Email: "user@example.com",
		Roles: []model.Role{model.RoleUser},
	}
}

func TestNewPair_RoundTrip(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret")

	access, refresh, err := m.NewPair(testUser())
	if err != nil {
		t.Fatalf("NewPair error: %v", err)
	}

	id, err := m.ParseAccess(access)
	if err != nil {
		t.Fatalf("ParseAccess error: %v", err)
	}
	if id != 42 {
		t.Fatalf("access subject = %d, want 42", id)
	}

	id, err = m.ParseRefresh(refresh)
	if err != nil {
		t.Fatalf("ParseRefresh error: %v", err)
	}
	if id != 42 {
		t.Fatalf("refresh subject = %d, want 42", id)
	}
}

func TestParseAccess_RejectsRefreshToken(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret")

	_, refresh, err := m.NewPair(testUser())
	if err != nil {
		t.Fatalf("NewPair error: %v", err)
	}

	if _, err := m.ParseAccess(refresh); err == nil {
		t.Fatalf("expected error for refresh token on access parse")
	}
}

func TestParseAccess_RejectsForeignSignature(t *testing.T) {
	issuer := NewManager("one-secret", "one-refresh")
	verifier := NewManager("other-secret", "other-refresh")

	access, _, err := issuer.NewPair(testUser())
	if err != nil {
		t.Fatalf("NewPair error: %v", err)
	}

	if _, err := verifier.ParseAccess(access); err == nil {
		t.Fatalf("expected error for token signed with another secret")
	}
}

func TestParseAccess_Garbage(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret")

	if _, err := m.ParseAccess("not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
