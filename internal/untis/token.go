package untis

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// bearerClaims are the fields read from the token issued by /api/token/new.
// The signature is not verified: the token is only ever replayed to the
// server that issued it.
type bearerClaims struct {
	TenantID any    `json:"tenant_id,omitempty"`
	PersonID any    `json:"person_id,omitempty"`
	Roles    any    `json:"roles,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

func parseBearer(raw string) (*bearerClaims, error) {
	claims := &bearerClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *bearerClaims) expiresAt() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func (c *bearerClaims) personID() int {
	switch v := c.PersonID.(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
