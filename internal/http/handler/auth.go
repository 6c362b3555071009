package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/service"
)

// CookieConfig controls the attributes of the auth cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

func (cc CookieConfig) set(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (cc CookieConfig) clear(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterInput
		if !parseBody(c, &in) {
			return nil
		}
		u, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Account created. Check your email to activate it.",
			"user":    u,
		})
	}
}

func Activate(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Activate(c.UserContext(), c.Params("uid"), c.Params("token")); err != nil {
			return fail(c, err)
		}
		return message(c, fiber.StatusOK, "Account activated successfully")
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues the token pair and stores it in http-only cookies.
func Login(svc service.AuthService, cookies CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in loginRequest
		if !parseBody(c, &in) {
			return nil
		}
		identifier := in.Username
		if identifier == "" {
			identifier = in.Email
		}
		if identifier == "" || in.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "username and password are required")
		}
		res, err := svc.Login(c.UserContext(), identifier, in.Password)
		if err != nil {
			return fail(c, err)
		}
		cookies.set(c, middleware.AccessTokenCookie, res.Access, res.AccessTTL)
		cookies.set(c, middleware.RefreshTokenCookie, res.Refresh, res.RefreshTTL)
		return c.JSON(res)
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshToken reads the refresh token from its cookie, or else from the JSON body.
func RefreshToken(svc service.AuthService, cookies CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(middleware.RefreshTokenCookie)
		if token == "" && len(c.Body()) > 0 {
			var in refreshRequest
			if !parseBody(c, &in) {
				return nil
			}
			token = in.Refresh
		}
		if token == "" {
			return writeError(c, fiber.StatusBadRequest, "REFRESH_TOKEN_REQUIRED", "refresh token is required")
		}
		res, err := svc.Refresh(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				return writeError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", err.Error())
			}
			return fail(c, err)
		}
		cookies.set(c, middleware.AccessTokenCookie, res.Access, res.AccessTTL)
		return c.JSON(res)
	}
}

// Logout revokes whatever tokens the caller presented. It always succeeds for the client.
func Logout(svc service.AuthService, cookies CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		refresh := c.Cookies(middleware.RefreshTokenCookie)
		if refresh == "" && len(c.Body()) > 0 {
			var in refreshRequest
			if err := c.BodyParser(&in); err == nil {
				refresh = in.Refresh
			}
		}
		if err := svc.Logout(c.UserContext(), middleware.AccessToken(c), refresh); err != nil {
			logFailure(c, "logout_revoke_failed", err)
		}
		cookies.clear(c, middleware.AccessTokenCookie)
		cookies.clear(c, middleware.RefreshTokenCookie)
		return message(c, fiber.StatusOK, "Logged out successfully")
	}
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func RequestPasswordReset(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in passwordResetRequest
		if !parseBody(c, &in) {
			return nil
		}
		if err := svc.RequestPasswordReset(c.UserContext(), in.Email); err != nil {
			return fail(c, err)
		}
		return message(c, fiber.StatusOK, "If the email is registered, a reset link has been sent")
	}
}

type passwordResetConfirmRequest struct {
	UID         string `json:"uid"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func ConfirmPasswordReset(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in passwordResetConfirmRequest
		if !parseBody(c, &in) {
			return nil
		}
		if err := svc.ConfirmPasswordReset(c.UserContext(), in.UID, in.Token, in.NewPassword); err != nil {
			return fail(c, err)
		}
		return message(c, fiber.StatusOK, "Password has been reset")
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func ChangePassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in changePasswordRequest
		if !parseBody(c, &in) {
			return nil
		}
		err := svc.ChangePassword(c.UserContext(), middleware.CurrentUser(c), in.OldPassword, in.NewPassword)
		if err != nil {
			return fail(c, err)
		}
		return message(c, fiber.StatusOK, "Password changed successfully")
	}
}

type passwordValidateRequest struct {
	Password string `json:"password"`
}

func ValidatePassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in passwordValidateRequest
		if !parseBody(c, &in) {
			return nil
		}
		problems := svc.ValidatePassword(in.Password)
		if problems == nil {
			problems = []string{}
		}
		return c.JSON(fiber.Map{"valid": len(problems) == 0, "errors": problems})
	}
}
