package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Minute, time.Hour)

	access, accessExp, err := codec.IssueAccess("user-42")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if accessExp.Before(time.Now()) {
		t.Fatal("access expiry should be in the future")
	}

	subject, err := codec.VerifyAccess(access)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if subject != "user-42" {
		t.Fatalf("expected subject user-42, got %q", subject)
	}

	refresh, _, err := codec.IssueRefresh("user-42")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if subject, err = codec.VerifyRefresh(refresh); err != nil || subject != "user-42" {
		t.Fatalf("verify refresh: subject=%q err=%v", subject, err)
	}
}

func TestTokenCodecSecretsAreIndependent(t *testing.T) {
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Minute, time.Hour)

	access, _, err := codec.IssueAccess("user-42")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	// An access token must not pass refresh verification, and vice versa.
	if _, err := codec.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken crossing token kinds, got %v", err)
	}
}

func TestTokenCodecRejectsTamperedToken(t *testing.T) {
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Minute, time.Hour)

	access, _, err := codec.IssueAccess("user-42")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	tampered := access[:len(access)-2] + "xx"
	if _, err := codec.VerifyAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestTokenCodecRejectsExpiredAccessToken(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Minute, time.Hour).
		WithNowFunc(func() time.Time { return past })

	access, _, err := codec.IssueAccess("user-42")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	codec.WithNowFunc(func() time.Time { return time.Now().UTC() })
	if _, err := codec.VerifyAccess(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestIssuedRefreshTokensAreUnique(t *testing.T) {
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Minute, time.Hour)

	a, _, err := codec.IssueRefresh("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, _, err := codec.IssueRefresh("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatal("two refresh tokens issued back to back must differ")
	}
}

func TestAssertOwner(t *testing.T) {
	if err := AssertOwner("owner-1", "owner-1"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := AssertOwner("owner-1", "intruder"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := AssertOwner("", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for empty ids, got %v", err)
	}
}
