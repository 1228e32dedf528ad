package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sheetchart-api/internal/utils"
)

// RoleLookup returns the role currently stored for a user, or "" when the user no longer exists.
type RoleLookup func(ctx context.Context, userID uint) (string, error)

// RequireRole ensures the role carried by the verified token is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return RequireStoredRole(nil, roles...)
}

// RequireStoredRole checks the token role and, when lookup is set, the stored
// role too, so a demoted or deleted account loses access before its token expires.
func RequireStoredRole(lookup RoleLookup, roles ...string) fiber.Handler {
	allowed := roleSet(roles)

	return func(c *fiber.Ctx) error {
		if !allowed.has(normalizeRoleValue(c.Locals("user_role"))) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		if lookup == nil {
			return c.Next()
		}

		userID, _ := c.Locals("user_id").(uint)
		if userID == 0 {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		ctx := ContextWithCorrelation(c.UserContext(), GetCorrelationID(c))
		stored, err := lookup(ctx, userID)
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "unable to verify role")
		}
		if !allowed.has(normalizeRoleValue(stored)) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		return c.Next()
	}
}

type roles map[string]struct{}

func roleSet(values []string) roles {
	set := make(roles, len(values))
	for _, role := range values {
		if normalized := normalizeRoleValue(role); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func (r roles) has(role string) bool {
	if role == "" {
		return false
	}
	_, ok := r[role]
	return ok
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
