package identity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func TestServiceIssueClaims(t *testing.T) {
	secret := "test-secret"
	svc := NewService(secret, "kitchenrush", time.Hour)

	tokenString, err := svc.Issue("user123", "Chef")
	if err != nil {
		t.Fatalf("issue token error: %v", err)
	}

	claims := parseClaims(t, tokenString, secret)
	if got := stringClaim(t, claims, "iss"); got != "kitchenrush" {
		t.Fatalf("iss = %s, want kitchenrush", got)
	}
	if got := stringClaim(t, claims, "sub"); got != "user123" {
		t.Fatalf("sub = %s, want user123", got)
	}
	if got := stringClaim(t, claims, "name"); got != "Chef" {
		t.Fatalf("name = %s, want Chef", got)
	}
	if _, ok := claims["exp"]; !ok {
		t.Fatal("missing exp claim")
	}
}

func TestServiceVerifyRoundTrip(t *testing.T) {
	svc := NewService("test-secret", "kitchenrush", time.Hour)
	tokenString, err := svc.Issue("user123", "Chef")
	if err != nil {
		t.Fatalf("issue token error: %v", err)
	}

	sub, err := svc.Verify(tokenString)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if sub != "user123" {
		t.Fatalf("sub = %s, want user123", sub)
	}
}

func TestServiceVerifyRejects(t *testing.T) {
	good := NewService("test-secret", "kitchenrush", time.Hour)

	expired := NewService("test-secret", "kitchenrush", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue("user123", "Chef")
	if err != nil {
		t.Fatalf("issue token error: %v", err)
	}

	otherSecret, _ := NewService("other-secret", "kitchenrush", time.Hour).Issue("user123", "Chef")
	otherIssuer, _ := NewService("test-secret", "someone-else", time.Hour).Issue("user123", "Chef")

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expiredToken},
		{name: "wrong secret", token: otherSecret},
		{name: "wrong issuer", token: otherIssuer},
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := good.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestServiceIssueRequiresConfig(t *testing.T) {
	if _, err := NewService("", "kitchenrush", time.Hour).Issue("user", ""); !errors.Is(err, ErrIncompleteConfig) {
		t.Fatalf("err = %v, want ErrIncompleteConfig", err)
	}
	if _, err := NewService("secret", "kitchenrush", time.Hour).Issue("", ""); err == nil {
		t.Fatal("expected error for empty user")
	}
	var nilSvc *Service
	if _, err := nilSvc.Issue("user", ""); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func parseClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	if !token.Valid {
		t.Fatal("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not map claims")
	}
	return claims
}

func stringClaim(t *testing.T, claims jwt.MapClaims, name string) string {
	t.Helper()
	value, ok := claims[name]
	if !ok {
		t.Fatalf("missing %s claim", name)
	}
	str, ok := value.(string)
	if !ok {
		t.Fatalf("%s claim is not a string", name)
	}
	return str
}
