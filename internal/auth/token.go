package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity claim embedded in a signed token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a process-wide secret.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier from the configured signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyHeader validates a raw Authorization header value and returns the
// username claim. It never touches storage.
func (v *Verifier) VerifyHeader(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredential
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingCredential
	}

	return v.VerifyToken(parts[1])
}

// VerifyToken validates a bare token string.
func (v *Verifier) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}

// Sign issues a token for the given username. The service itself only
// verifies; this exists for tooling and tests.
func (v *Verifier) Sign(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
