package otp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestGenerateCode_Format(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 100; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q length = %d, want 6", code, len(code))
		}
		if strings.HasPrefix(code, "0") {
			t.Fatalf("code %q has a leading zero", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("code %q contains non-digit %q", code, ch)
			}
		}
		seen[code] = true
	}

	if len(seen) < 2 {
		t.Fatalf("codes are not random: %v", seen)
	}
}

func TestKeyNamespaces(t *testing.T) {
	email := "user@example.com"

	if got := codeKey(email); got != "otp:data:user@example.com" {
		t.Errorf("codeKey = %q", got)
	}
	if got := lastSentKey(email); got != "otp:lastSent:user@example.com" {
		t.Errorf("lastSentKey = %q", got)
	}
	if got := countKey(email); got != "otp:count:user@example.com" {
		t.Errorf("countKey = %q", got)
	}
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client), mr
}

func TestIssue_ResendCooldown(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Issue(ctx, "user@example.com"); err != nil {
		t.Fatalf("first Issue error: %v", err)
	}

	if _, err := store.Issue(ctx, "user@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Issue: expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(61 * time.Second)

	if _, err := store.Issue(ctx, "user@example.com"); err != nil {
		t.Fatalf("Issue after cooldown error: %v", err)
	}
}

func TestIssue_HourlyLimit(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	// Счётчик выставлен на границу квоты, следующий выпуск должен её превысить.
	if err := mr.Set(countKey("user@example.com"), "60"); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	if _, err := store.Issue(ctx, "user@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestVerify_SingleUse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	ok, err := store.Verify(ctx, "user@example.com", "000000")
	if err != nil || ok {
		t.Fatalf("wrong code: ok=%v err=%v, want false nil", ok, err)
	}

	ok, err = store.Verify(ctx, "user@example.com", code)
	if err != nil || !ok {
		t.Fatalf("correct code: ok=%v err=%v, want true nil", ok, err)
	}

	if _, err := store.Verify(ctx, "user@example.com", code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("replayed code: expected ErrCodeExpired, got %v", err)
	}
}

func TestVerify_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	if _, err := store.Verify(ctx, "user@example.com", code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}
