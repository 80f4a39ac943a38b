package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Service signs and verifies session tokens. Tokens are HS256 JWTs
// carrying at least a "username" claim and no expiry: a session lives
// until the cookie is cleared.
type Service struct {
	secret []byte
}

func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

// Issue signs the claims map into a token string.
func (s *Service) Issue(claims map[string]any) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	return token.SignedString(s.secret)
}

// Verify parses the token and returns its claims. Any decode or
// signature failure yields an empty map - callers treat that as
// anonymous, not as an error.
func (s *Service) Verify(tokenStr string) map[string]any {
	if tokenStr == "" {
		return map[string]any{}
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return map[string]any{}
	}

	return claims
}

// Username extracts the identity claim from a token, or "" for
// anonymous.
func (s *Service) Username(tokenStr string) string {
	username, _ := s.Verify(tokenStr)["username"].(string)
	return username
}
