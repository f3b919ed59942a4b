package security

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key"

func TestGenerateAndVerifyStateToken(t *testing.T) {
	token, err := GenerateStateToken(42, "google_ads", "nonce-1", time.Minute, testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyStateToken(token, testSecret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 || claims.Platform != "google_ads" || claims.Nonce != "nonce-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyStateTokenWrongSecret(t *testing.T) {
	token, err := GenerateStateToken(42, "google_ads", "nonce-1", time.Minute, testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyStateToken(token, "other-secret"); err == nil {
		t.Fatalf("token verified under the wrong secret")
	}
}

func TestVerifyStateTokenTampered(t *testing.T) {
	token, err := GenerateStateToken(42, "google_ads", "nonce-1", time.Minute, testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parts := strings.SplitN(token, ".", 2)
	forged, err := GenerateStateToken(99, "google_ads", "nonce-1", time.Minute, "attacker")
	if err != nil {
		t.Fatalf("generate forged: %v", err)
	}
	forgedParts := strings.SplitN(forged, ".", 2)

	// Swap in a payload claiming another user while keeping the old
	// signature.
	if _, err := VerifyStateToken(forgedParts[0]+"."+parts[1], testSecret); err == nil {
		t.Fatalf("tampered payload verified")
	}
}

func TestVerifyStateTokenExpired(t *testing.T) {
	token, err := GenerateStateToken(42, "google_ads", "nonce-1", -time.Minute, testSecret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyStateToken(token, testSecret); err == nil {
		t.Fatalf("expired token verified")
	}
}

func TestVerifyStateTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "no-dot", "a.b", "!!!.###"} {
		if _, err := VerifyStateToken(token, testSecret); err == nil {
			t.Fatalf("malformed token %q verified", token)
		}
	}
}

func TestGenerateStateTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateStateToken(42, "google_ads", "nonce-1", time.Minute, ""); err == nil {
		t.Fatalf("empty secret accepted")
	}
}
