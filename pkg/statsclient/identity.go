package statsclient

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the id/role pair sent in the join-admin handshake.
type Identity struct {
	ID   string
	Role string
}

// IdentityFromToken reads the subject and role claims of a bearer token without
// verifying it. The server verifies the token again on upgrade.
func IdentityFromToken(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	identity := Identity{}
	for _, key := range []string{"sub", "user_id", "id"} {
		if value, ok := claims[key]; ok {
			identity.ID = claimString(value)
			if identity.ID != "" {
				break
			}
		}
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = strings.ToLower(strings.TrimSpace(role))
	}

	if identity.ID == "" {
		return Identity{}, fmt.Errorf("token has no subject claim")
	}
	return identity, nil
}

func claimString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v < 0 {
			return ""
		}
		return strconv.FormatUint(uint64(v), 10)
	default:
		return ""
	}
}
