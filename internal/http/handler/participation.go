package handler

import (
	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/service"
)

// PublicSurvey renders an open instance for respondents. Authentication is optional.
func PublicSurvey(svc service.ParticipationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		s, err := svc.PublicSurvey(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s)
	}
}

func SubmitSurvey(svc service.ParticipationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		var in service.SubmitInput
		if !parseBody(c, &in) {
			return nil
		}
		res, err := svc.Submit(c.UserContext(), middleware.CurrentUser(c), id, in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

func ParticipationResults(svc service.ParticipationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		res, err := svc.Results(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func InstanceStats(svc service.ParticipationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		surveyID, ok := uuidParam(c, "surveyId")
		if !ok {
			return nil
		}
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		st, err := svc.InstanceStats(c.UserContext(), surveyID, id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}
