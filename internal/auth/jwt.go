package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quarrylabs/quarry-cms/internal/stage"
)

const accessTokenExpiry = 24 * time.Hour

// Claims holds the JWT claims for an access token. The user ID is stored in
// the standard "sub" (Subject) field of RegisteredClaims; the email and the
// active stage are custom claims. Switching stages issues a fresh token, so
// the claims always name exactly one stage.
type Claims struct {
	Email      string `json:"email"`
	StageID    string `json:"stage_id"`
	StageKey   string `json:"stage_key"`
	StageLabel string `json:"stage_label"`
	jwt.RegisteredClaims
}

// UserID returns the authenticated user's UUID from the JWT subject claim.
func (c *Claims) UserID() string { return c.Subject }

// CreateAccessToken creates a signed JWT access token carrying the user
// identity and the active stage. The token is signed with HMAC-SHA256.
func CreateAccessToken(userID, email string, st *stage.Stage, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:      email,
		StageID:    st.ID,
		StageKey:   st.Key,
		StageLabel: st.Label,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenExpiry)),
			Issuer:    "quarry",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and validates the given JWT string using the
// provided HMAC secret. It returns the extracted Claims on success, or an
// error if the token is malformed, expired, or signed with the wrong key.
func ValidateAccessToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}

	return claims, nil
}
