package tokens

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/notevault/notevault/internal/apperr"
)

const testSecret = "codec-test-secret-32-bytes-xxxxxx"

func TestSignVerify_RoundTrip(t *testing.T) {
	now := time.Now()
	claims := Claims{UserID: "u1", SessionID: "s1", Role: "user"}

	token, err := Sign(claims, testSecret, time.Minute, now)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	got, err := Verify(token, testSecret, now)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got.UserID != "u1" || got.SessionID != "s1" || got.Role != "user" {
		t.Fatalf("claims did not round-trip: %+v", got)
	}
	if got.ExpiresAt.Time.Sub(got.IssuedAt.Time) != time.Minute {
		t.Fatalf("unexpected lifetime: iat=%v exp=%v", got.IssuedAt, got.ExpiresAt)
	}
}

func TestVerify_ExpiredDeterministically(t *testing.T) {
	now := time.Now()
	token, err := Sign(Claims{UserID: "u1", SessionID: "s1"}, testSecret, time.Minute, now)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	// one instant before expiry it still verifies
	if _, err := Verify(token, testSecret, now.Add(59*time.Second)); err != nil {
		t.Fatalf("token should be valid before expiry: %v", err)
	}
	// after the expiry instant it fails with the expiry tag
	_, err = Verify(token, testSecret, now.Add(61*time.Second))
	if !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("expected expired error, got: %v", err)
	}
}

func TestVerify_ZeroTTL(t *testing.T) {
	now := time.Now()
	token, err := Sign(Claims{UserID: "u1"}, testSecret, 0, now)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	_, err = Verify(token, testSecret, now.Add(time.Nanosecond))
	if !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("expected expired error, got: %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	token, _ := Sign(Claims{UserID: "u1"}, testSecret, time.Minute, now)
	_, err := Verify(token, "a-completely-different-secret-xxx", now)
	if !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got: %v", err)
	}
	if errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatal("signature failure must not be reported as expiry")
	}
}

func TestVerify_Malformed(t *testing.T) {
	_, err := Verify("not.a.jwt", testSecret, time.Now())
	if !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got: %v", err)
	}
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"userId":"u1","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	_, err := Verify(tok, testSecret, time.Now())
	if !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("expected alg=none rejection, got: %v", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	now := time.Now()
	token, _ := Sign(Claims{UserID: "victim", SessionID: "s1"}, testSecret, time.Minute, now)

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payload), "victim", "attacker", 1)))
	tampered := strings.Join(parts, ".")

	_, err := Verify(tampered, testSecret, now)
	if !errors.Is(err, apperr.ErrInvalidToken) {
		t.Fatalf("expected signature verification to fail, got: %v", err)
	}
}
