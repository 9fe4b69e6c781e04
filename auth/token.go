package auth

import (
	"time"

	"counsel-chat/domain"
	cerrors "counsel-chat/errors"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "counsel-platform"

// CustomClaims defines the structure of the data stored inside the JWT.
// Tokens are issued by the platform's auth service; this subsystem only
// verifies them to derive the participant identity server-side.
type CustomClaims struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenVerifier checks tokens against the shared signing key.
// The key is injected from configuration, never hardcoded.
type TokenVerifier struct {
	key []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{key: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a JWT string.
func (v *TokenVerifier) Verify(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, cerrors.ErrInvalidToken
	}
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, cerrors.ErrInvalidToken
}

// Participant maps verified claims to the domain identity attached to a
// connection.
func (c *CustomClaims) Participant() domain.Participant {
	role := domain.RoleStudent
	if len(c.Roles) > 0 {
		role = domain.Role(c.Roles[0])
	}
	return domain.Participant{ID: c.UserID, DisplayName: c.DisplayName, Role: role}
}

// GenerateToken creates a signed JWT for a specific user. In production the
// platform's auth service issues tokens; this is used by the CLI client and
// by tests.
func GenerateToken(secret, userID, displayName string, roles []string,
	tokenDuration time.Duration) (string, error) {
	expirationTime := time.Now().Add(tokenDuration)

	claims := &CustomClaims{
		UserID:      userID,
		DisplayName: displayName,
		Roles:       roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
