package middleware

import (
	"context"
	"strings"

	"github.com/anjiri1684/coursehub/access"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const userKey = "user"

// UserStatus reports whether the account behind a token may still act.
type UserStatus interface {
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Protected rejects requests without a valid bearer token or whose account was deactivated.
func Protected(secret string, users UserStatus) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		ContextKey:     userKey,
		ErrorHandler:   jwtError,
		SuccessHandler: activeOnly(users),
	})
}

// OptionalAuth lets anonymous requests through but still rejects a bad token.
func OptionalAuth(secret string, users UserStatus) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		ContextKey:     userKey,
		ErrorHandler:   jwtError,
		SuccessHandler: activeOnly(users),
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == ""
		},
	})
}

// activeOnly runs once the token verified. Tokens outlive a deactivation, so the account
// is checked on every request.
func activeOnly(users UserStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CallerFromCtx(c)
		if caller.IsAnonymous() {
			return c.Next()
		}
		active, err := users.IsActive(c.UserContext(), caller.ID)
		if err != nil {
			return err
		}
		if !active {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Account is deactivated"})
		}
		return c.Next()
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired JWT"})
}

// RoleRequired must run after Protected.
func RoleRequired(roles ...access.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CallerFromCtx(c)
		for _, role := range roles {
			if caller.Role == role && !caller.IsAnonymous() {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: " + roleNames(roles) + " access required",
		})
	}
}

func AdminRequired() fiber.Handler { return RoleRequired(access.RoleAdmin) }

func InstructorRequired() fiber.Handler { return RoleRequired(access.RoleInstructor) }

func StudentRequired() fiber.Handler { return RoleRequired(access.RoleStudent) }

// CallerFromCtx builds the caller from the verified token. Requests without one, or with
// claims we cannot read, are anonymous.
func CallerFromCtx(c *fiber.Ctx) access.Caller {
	token, ok := c.Locals(userKey).(*jwt.Token)
	if !ok || token == nil {
		return access.Anonymous()
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return access.Anonymous()
	}
	rawID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return access.Anonymous()
	}
	return access.Caller{ID: id, Role: access.Role(role)}
}

func roleNames(roles []access.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = strings.ToUpper(string(r)[:1]) + string(r)[1:]
	}
	return strings.Join(names, " or ")
}
