package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/config"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret, issuer, subject string, expiry time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "client",
		"iss":  issuer,
		"exp":  time.Now().Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newValidator() *Validator {
	cfg := &config.Config{AuthEnabled: true, AuthSecret: testSecret, AuthIssuer: "masterful"}
	return NewValidator(cfg, zerolog.Nop())
}

func TestValidateToken(t *testing.T) {
	v := newValidator()

	claims, err := v.Validate(signToken(t, testSecret, "masterful", "client-1", time.Hour))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "client-1" || claims.Role != "client" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejectsBadTokens(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "other-secret", "masterful", "client-1", time.Hour)},
		{"wrong issuer", signToken(t, testSecret, "someone-else", "client-1", time.Hour)},
		{"expired", signToken(t, testSecret, "masterful", "client-1", -time.Hour)},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Validate(tt.token); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"", ""},
		{"Bearer ", ""},
	}

	for _, tt := range tests {
		if got := BearerToken(tt.header); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
