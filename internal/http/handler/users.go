package handler

import (
	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/service"
)

func GetProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Profile(c.UserContext(), middleware.CurrentUser(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func UpdateProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProfileInput
		if !parseBody(c, &in) {
			return nil
		}
		u, err := svc.UpdateProfile(c.UserContext(), middleware.CurrentUser(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func ListRoles(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, err := svc.ListRoles(c.UserContext(), middleware.CurrentUser(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(roles)
	}
}

// ListUsers pages through every account with limit & offset.
func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, ok := intQuery(c, "limit", 10)
		if !ok {
			return nil
		}
		offset, ok := intQuery(c, "offset", 0)
		if !ok {
			return nil
		}
		res, err := svc.List(c.UserContext(), middleware.CurrentUser(c), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AdminUserInput
		if !parseBody(c, &in) {
			return nil
		}
		u, err := svc.Create(c.UserContext(), middleware.CurrentUser(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

func GetUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		u, err := svc.Get(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func UpdateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		var in service.AdminUserInput
		if !parseBody(c, &in) {
			return nil
		}
		u, err := svc.Update(c.UserContext(), middleware.CurrentUser(c), id, in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func DeleteUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetUserActive backs both the activate and deactivate routes.
func SetUserActive(svc service.UserService, active bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		u, err := svc.SetActive(c.UserContext(), middleware.CurrentUser(c), id, active)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}
