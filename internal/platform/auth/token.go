package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by every issued bearer token. Subject is the user id; Role
// drives RBAC; DoctorID is present only for users linked to a doctor profile
// so that ownership checks don't need a round trip to the database.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	Name     string `json:"name"`
	DoctorID string `json:"doctor_id,omitempty"`
}

// TokenConfig holds the HMAC signing key and token lifetime.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Issue signs a token for the given user.
func (tc TokenConfig) Issue(userID uuid.UUID, role, name string, doctorID *uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.TTL)),
		},
		Role: role,
		Name: name,
	}
	if doctorID != nil {
		claims.DoctorID = doctorID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token string and returns its claims.
func (tc TokenConfig) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Identity converts the claims into a context Identity.
func (c *Claims) Identity() (*Identity, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	ident := &Identity{UserID: userID, Role: c.Role, Name: c.Name}
	if c.DoctorID != "" {
		doctorID, err := uuid.Parse(c.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("parse doctor_id: %w", err)
		}
		ident.DoctorID = &doctorID
	}
	return ident, nil
}
