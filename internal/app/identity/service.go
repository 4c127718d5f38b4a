package identity

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

var (
	ErrIncompleteConfig = errors.New("identity config is incomplete")
	ErrInvalidToken     = errors.New("invalid identity token")
)

// Service issues and verifies HS256 identity tokens. A client asks for a token over RPC
// and presents it back when the match pulls its profile.
type Service struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret, issuer string, ttl time.Duration) *Service {
	return &Service{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for user.
func (s *Service) Issue(user, displayName string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("identity service is nil")
	}
	if user == "" {
		return "", fmt.Errorf("user is required")
	}
	if s.secret == "" || s.issuer == "" || s.ttl <= 0 {
		return "", ErrIncompleteConfig
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  user,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"jti":  fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63()),
		"name": displayName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks signature, issuer and expiry and returns the subject.
func (s *Service) Verify(tokenString string) (string, error) {
	if s == nil || s.secret == "" {
		return "", ErrIncompleteConfig
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return "", fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return "", fmt.Errorf("%w: expired", ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}
