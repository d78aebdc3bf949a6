package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued at login. The full principal rides in
// the token so authentication does not need a store round-trip.
type Claims struct {
	Principal Principal `json:"principal"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256-signed JWT credentials.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager. The secret must be non-empty;
// ttl bounds the lifetime of issued tokens.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token carrying the principal. The principal's Token field
// is cleared before embedding so tokens never nest.
func (m *TokenManager) Issue(p Principal) (string, error) {
	p.Token = ""
	now := time.Now()
	claims := &Claims{
		Principal: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the token and returns the embedded principal. Failures
// are classified: expired tokens yield KindExpiredToken, unparseable ones
// KindMalformedToken, and everything else KindInvalidToken. Only HS256 is
// accepted.
func (m *TokenManager) Verify(tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, Wrap(classifyJWTError(err), err)
	}
	if !token.Valid {
		return nil, Wrap(KindInvalidToken, fmt.Errorf("token rejected"))
	}

	p := claims.Principal
	return &p, nil
}

func classifyJWTError(err error) Kind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return KindExpiredToken
	case errors.Is(err, jwt.ErrTokenMalformed):
		return KindMalformedToken
	default:
		return KindInvalidToken
	}
}
