package handler

import (
	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/service"
)

func ListSurveys(svc service.SurveyService) fiber.Handler {
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

func CreateSurvey(svc service.SurveyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SurveyInput
		if !parseBody(c, &in) {
			return nil
		}
		s, err := svc.Create(c.UserContext(), middleware.CurrentUser(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

func GetSurvey(svc service.SurveyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		s, err := svc.Get(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s)
	}
}

// UpdateSurvey serves both PUT and PATCH; a present questions list replaces the whole set.
func UpdateSurvey(svc service.SurveyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		var in service.SurveyInput
		if !parseBody(c, &in) {
			return nil
		}
		s, err := svc.Update(c.UserContext(), middleware.CurrentUser(c), id, in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s)
	}
}

func DeleteSurvey(svc service.SurveyService) fiber.Handler {
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
