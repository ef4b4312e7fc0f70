package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer, err := NewIssuer("test-secret-at-least-long-enough", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	raw, err := issuer.Issue("gi-my-garden")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	gardenKey, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if gardenKey != "gi-my-garden" {
		t.Errorf("garden key = %q, want %q", gardenKey, "gi-my-garden")
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Parallel()

	issuer, _ := NewIssuer("test-secret-at-least-long-enough", time.Hour)

	tests := []struct {
		name string
		raw  func(t *testing.T) string
	}{
		{
			name: "garbage",
			raw:  func(t *testing.T) string { return "not.a.token" },
		},
		{
			name: "wrong signing secret",
			raw: func(t *testing.T) string {
				other, _ := NewIssuer("a-completely-different-secret", time.Hour)
				raw, err := other.Issue("gi-key")
				if err != nil {
					t.Fatalf("Issue: %v", err)
				}
				return raw
			},
		},
		{
			name: "expired",
			raw: func(t *testing.T) string {
				expired, _ := NewIssuer("test-secret-at-least-long-enough", -time.Hour)
				raw, err := expired.Issue("gi-key")
				if err != nil {
					t.Fatalf("Issue: %v", err)
				}
				return raw
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := issuer.Verify(tt.raw(t)); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("", time.Hour); err == nil {
		t.Error("expected an error for an empty secret")
	}
}
