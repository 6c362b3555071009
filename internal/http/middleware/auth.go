package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/model"
	"surveyapi/internal/service"
)

const (
	// UserLocalKey holds the authenticated *model.User in Fiber's context locals.
	UserLocalKey = "user"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

// AccessToken returns the access token of the request: the access_token cookie,
// or else the bearer token of the Authorization header.
func AccessToken(c *fiber.Ctx) string {
	if t := c.Cookies(AccessTokenCookie); t != "" {
		return t
	}
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate resolves the caller when a token is present. Requests whose
// token is missing or rejected continue anonymously; the Require guards decide
// what that means. Any other failure (revocation store or database down) ends
// the request with 503 rather than downgrading a signed-in user to anonymous.
func Authenticate(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := AccessToken(c)
		if token == "" {
			return c.Next()
		}
		u, err := a.Authenticate(c.UserContext(), token)
		switch {
		case err == nil && u != nil:
			c.Locals(UserLocalKey, u)
		case err != nil && !errors.Is(err, service.ErrUnauthenticated):
			rid, _ := c.Locals(RequestIDLocalKey).(string)
			slog.Default().ErrorContext(c.UserContext(), "authentication_unavailable",
				"request_id", rid,
				"path", c.Path(),
				"error", err.Error(),
			)
			return fiber.NewError(fiber.StatusServiceUnavailable, "authentication is temporarily unavailable")
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(UserLocalKey).(*model.User)
	return u
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication credentials were not provided")
		}
		return c.Next()
	}
}

// RequireAdmin admits admins and staff.
func RequireAdmin() fiber.Handler {
	return requireRole(func(u *model.User) bool { return u.IsAdmin() })
}

// RequireClient admits clients, admins and staff.
func RequireClient() fiber.Handler {
	return requireRole(func(u *model.User) bool { return u.IsClient() })
}

func requireRole(allowed func(*model.User) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication credentials were not provided")
		}
		if !allowed(u) {
			return fiber.NewError(fiber.StatusForbidden, "you do not have permission to perform this action")
		}
		return c.Next()
	}
}
